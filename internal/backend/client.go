package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
)

const maxBodyBytes = 8 << 20

// Credentials are the caller's backend session, relayed on seller calls.
type Credentials struct {
	Session       string
	Authorization string
}

func (c Credentials) Complete() bool {
	return c.Session != "" && c.Authorization != ""
}

// Client talks to the commerce backend.
type Client struct {
	baseURL       string
	sessionCookie string
	http          *http.Client
	skinsDelay    time.Duration
}

func NewClient(baseURL, sessionCookie string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		sessionCookie: sessionCookie,
		http:          &http.Client{Timeout: timeout},
	}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, creds *Credentials, payload interface{}) (*response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds != nil {
		if creds.Session != "" {
			req.AddCookie(&http.Cookie{Name: c.sessionCookie, Value: creds.Session})
		}
		if creds.Authorization != "" {
			req.Header.Set("Authorization", creds.Authorization)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("Backend request failed", "method", method, "path", path, "error", err)
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransport(err)
	}

	logger.Debug("Backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency", time.Since(start))

	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp.StatusCode, errorMessage(raw))
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: raw}, nil
}

// errorMessage pulls a human message out of a backend error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	for _, m := range []string{body.Error, body.Message, body.Detail} {
		if m != "" {
			return m
		}
	}
	return ""
}

func decode(raw []byte, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}
