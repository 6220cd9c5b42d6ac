package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"
)

// CosmeticsCatalog fetches the cosmetics catalog and keeps it for ttl.
type CosmeticsCatalog struct {
	url  string
	ttl  time.Duration
	http *http.Client

	mu      sync.Mutex
	entries []models.Cosmetic
	fetched time.Time
}

func NewCosmeticsCatalog(url string, ttl, timeout time.Duration) *CosmeticsCatalog {
	return &CosmeticsCatalog{
		url:  url,
		ttl:  ttl,
		http: &http.Client{Timeout: timeout},
	}
}

type catalogEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rarity struct {
		Value        string `json:"value"`
		DisplayValue string `json:"displayValue"`
	} `json:"rarity"`
	Type struct {
		Value        string `json:"value"`
		DisplayValue string `json:"displayValue"`
	} `json:"type"`
	Images struct {
		SmallIcon string `json:"smallIcon"`
		Icon      string `json:"icon"`
	} `json:"images"`
}

// Entries returns the cached catalog, refreshing it once it is older than
// ttl. A failed refresh falls back to the stale copy when one exists.
func (c *CosmeticsCatalog) Entries(ctx context.Context) ([]models.Cosmetic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries != nil && time.Since(c.fetched) < c.ttl {
		return c.entries, nil
	}

	entries, err := c.fetch(ctx)
	if err != nil {
		if c.entries != nil {
			logger.Warn("Serving stale cosmetics catalog", "error", err, "age", time.Since(c.fetched))
			return c.entries, nil
		}
		return nil, err
	}

	c.entries = entries
	c.fetched = time.Now()
	logger.Info("Cosmetics catalog refreshed", "entries", len(entries))
	return entries, nil
}

func (c *CosmeticsCatalog) fetch(ctx context.Context) ([]models.Cosmetic, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, classifyTransport(err)
	}
	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp.StatusCode, errorMessage(raw))
	}

	var body struct {
		Data []catalogEntry `json:"data"`
	}
	if err := decode(raw, &body); err != nil {
		return nil, err
	}

	entries := make([]models.Cosmetic, 0, len(body.Data))
	for _, e := range body.Data {
		if e.ID == "" {
			continue
		}
		entries = append(entries, models.Cosmetic{
			ID:     e.ID,
			Name:   e.Name,
			Rarity: firstNonEmpty(e.Rarity.DisplayValue, e.Rarity.Value),
			Type:   firstNonEmpty(e.Type.DisplayValue, e.Type.Value),
			Image:  firstNonEmpty(e.Images.Icon, e.Images.SmallIcon),
		})
	}
	return entries, nil
}
