package marketplace

import (
	"errors"
	"strings"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/cosmetics"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"
)

var (
	ErrInvalidPriceRange = errors.New("minPrice must not exceed maxPrice")
	ErrNegativePrice     = errors.New("price bounds must not be negative")
)

// Catalog indexes cosmetic entries for athena id resolution.
type Catalog struct {
	entries []models.Cosmetic
	exact   map[string][]int
}

func NewCatalog(entries []models.Cosmetic) *Catalog {
	c := &Catalog{entries: entries, exact: make(map[string][]int, len(entries))}
	for i, e := range entries {
		key := cosmetics.Normalize(e.ID)
		c.exact[key] = append(c.exact[key], i)
	}
	return c
}

// Resolve returns the catalog entries matching an athena id: exact hits
// first, then every entry whose id contains or is contained in it.
func (c *Catalog) Resolve(id string) []models.Cosmetic {
	if c == nil {
		return nil
	}
	idx := c.exact[cosmetics.Normalize(id)]
	seen := make(map[int]bool, len(idx))
	out := make([]models.Cosmetic, 0, len(idx))
	for _, i := range idx {
		seen[i] = true
		out = append(out, c.entries[i])
	}
	for i, e := range c.entries {
		if !seen[i] && cosmetics.SameID(id, e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// Pipeline derives the displayed product subset from filter selections.
type Pipeline struct {
	catalog *Catalog
	names   *cosmetics.Table
}

func NewPipeline(catalog []models.Cosmetic, names *cosmetics.Table) *Pipeline {
	return &Pipeline{catalog: NewCatalog(catalog), names: names}
}

func Validate(f models.FilterState) error {
	if f.MinPrice < 0 || (f.MaxPrice != nil && *f.MaxPrice < 0) {
		return ErrNegativePrice
	}
	if f.MaxPrice != nil && f.MinPrice > *f.MaxPrice {
		return ErrInvalidPriceRange
	}
	return nil
}

// Apply keeps the products passing every active filter, in input order.
func (p *Pipeline) Apply(products []models.Product, f models.FilterState) ([]models.Product, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}

	target := ""
	if f.Platform != "" && !strings.EqualFold(f.Platform, "all") {
		target = NormalizePlatform(f.Platform)
		if target == "" {
			target = strings.TrimSpace(f.Platform)
		}
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	rarity := ""
	if f.SelectedRarity != nil {
		rarity = strings.TrimSpace(*f.SelectedRarity)
	}
	var wanted []string
	for _, name := range f.SelectedCosmetics {
		if name = strings.TrimSpace(name); name != "" {
			wanted = append(wanted, name)
		}
	}

	out := make([]models.Product, 0, len(products))
	for _, prod := range products {
		if target != "" && !hasPlatform(prod, target) {
			continue
		}
		if search != "" && !p.matchesSearch(prod, search) {
			continue
		}
		if prod.Price < f.MinPrice || (f.MaxPrice != nil && prod.Price > *f.MaxPrice) {
			continue
		}
		if rarity != "" && !p.hasRarity(prod, rarity) {
			continue
		}
		if len(wanted) > 0 && !p.hasAllCosmetics(prod, wanted) {
			continue
		}
		out = append(out, prod)
	}
	return out, nil
}

func hasPlatform(prod models.Product, target string) bool {
	for _, pl := range productPlatforms(prod.Platform, prod.Name) {
		if strings.EqualFold(pl, target) {
			return true
		}
	}
	return false
}

func (p *Pipeline) hasRarity(prod models.Product, rarity string) bool {
	for _, id := range prod.AthenaIDs {
		for _, c := range p.catalog.Resolve(id) {
			if strings.EqualFold(strings.TrimSpace(c.Rarity), rarity) {
				return true
			}
		}
	}
	return false
}

// resolvedNames lists the display names reachable from a product's athena
// ids, falling back to the naming table for ids missing from the catalog.
func (p *Pipeline) resolvedNames(prod models.Product) []string {
	var names []string
	for _, id := range prod.AthenaIDs {
		entries := p.catalog.Resolve(id)
		for _, c := range entries {
			names = append(names, c.Name)
		}
		if len(entries) == 0 && p.names != nil {
			names = append(names, p.names.Name(id))
		}
	}
	return names
}

func (p *Pipeline) hasAllCosmetics(prod models.Product, wanted []string) bool {
	resolved := p.resolvedNames(prod)
	productName := strings.ToLower(prod.Name)

	for _, w := range wanted {
		lw := strings.ToLower(w)
		found := strings.Contains(productName, lw) ||
			containsFold(prod.Cosmetics, w) ||
			containsFold(resolved, w)
		if !found {
			return false
		}
	}
	return true
}

func (p *Pipeline) matchesSearch(prod models.Product, term string) bool {
	if strings.Contains(strings.ToLower(prod.Name), term) ||
		strings.Contains(strings.ToLower(prod.Description), term) {
		return true
	}
	for _, c := range prod.Cosmetics {
		if strings.Contains(strings.ToLower(c), term) {
			return true
		}
	}
	for _, n := range p.resolvedNames(prod) {
		if strings.Contains(strings.ToLower(n), term) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

// Facets summarises the products for the filter sidebar. Each product
// counts once per rarity and platform it carries.
func (p *Pipeline) Facets(products []models.Product) models.Facets {
	f := models.Facets{
		Rarities:  make(map[string]int),
		Platforms: make(map[string]int),
		Total:     len(products),
	}

	for i, prod := range products {
		if i == 0 || prod.Price < f.PriceRange.Min {
			f.PriceRange.Min = prod.Price
		}
		if i == 0 || prod.Price > f.PriceRange.Max {
			f.PriceRange.Max = prod.Price
		}

		rarities := make(map[string]bool)
		for _, id := range prod.AthenaIDs {
			for _, c := range p.catalog.Resolve(id) {
				if r := strings.TrimSpace(c.Rarity); r != "" {
					rarities[r] = true
				}
			}
		}
		for r := range rarities {
			f.Rarities[r]++
		}

		for _, pl := range productPlatforms(prod.Platform, prod.Name) {
			f.Platforms[pl]++
		}
	}
	return f
}
