package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/poll"
)

const (
	skinsAttempts   = 3
	skinsRetryDelay = 2 * time.Second
)

type LoginResult struct {
	Message     string
	Credentials Credentials
	User        *models.User
}

// Login exchanges an email and OTP code for a backend session, then looks
// up the caller's role with it.
func (c *Client) Login(ctx context.Context, email, code string) (*LoginResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/login", nil, nil, map[string]string{
		"email": email,
		"code":  code,
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		Message       string `json:"message"`
		Authorization string `json:"authorization"`
		Token         string `json:"token"`
	}
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := decode(resp.body, &body); err != nil {
			return nil, err
		}
	}

	creds := Credentials{
		Session:       c.sessionFrom(resp.header),
		Authorization: firstNonEmpty(body.Authorization, body.Token, resp.header.Get("Authorization")),
	}
	if creds.Session == "" {
		return nil, fmt.Errorf("%w: login response carried no session cookie", ErrBadResponse)
	}

	user, err := c.GetRole(ctx, creds)
	if err != nil {
		return nil, err
	}
	if user.Authorization == "" {
		user.Authorization = creds.Authorization
	}
	if creds.Authorization == "" {
		creds.Authorization = user.Authorization
	}

	return &LoginResult{Message: body.Message, Credentials: creds, User: user}, nil
}

// sessionFrom picks the backend session out of Set-Cookie, preferring the
// configured cookie name and falling back to the first cookie set.
func (c *Client) sessionFrom(h http.Header) string {
	cookies := (&http.Response{Header: h}).Cookies()
	for _, ck := range cookies {
		if ck.Name == c.sessionCookie {
			return ck.Value
		}
	}
	if len(cookies) > 0 {
		return cookies[0].Value
	}
	return ""
}

// GetRole returns the user behind a backend session. The backend answers
// either with the user object or with it nested under "user".
func (c *Client) GetRole(ctx context.Context, creds Credentials) (*models.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/get_role", nil, &creds, nil)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := decode(resp.body, &wrapped); err != nil {
		return nil, err
	}
	user := wrapped.User
	if user == nil {
		user = &models.User{}
		if err := decode(resp.body, user); err != nil {
			return nil, err
		}
	}
	if user.Role == "" {
		return nil, fmt.Errorf("%w: role missing from get_role", ErrBadResponse)
	}
	return user, nil
}

type OrderRequest struct {
	Email         string `json:"email"`
	ProductID     int    `json:"product_id"`
	PaymentMethod string `json:"payment_method"`
	Coupon        string `json:"coupon,omitempty"`
	Warranty      int    `json:"warranty,omitempty"`
}

func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (map[string]interface{}, error) {
	resp, err := c.do(ctx, http.MethodPost, "/create_order", nil, nil, order)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := decode(resp.body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProducts relays the product listing untouched.
func (c *Client) GetProducts(ctx context.Context, query url.Values) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/get_products", query, nil, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp.body) {
		return nil, fmt.Errorf("%w: get_products returned invalid JSON", ErrBadResponse)
	}
	return resp.body, nil
}

// ListProducts fetches and decodes the product listing, accepting either a
// bare array or an object with a "products" array.
func (c *Client) ListProducts(ctx context.Context, query url.Values) ([]models.Product, error) {
	raw, err := c.GetProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	return decodeProducts(raw)
}

func decodeProducts(raw json.RawMessage) ([]models.Product, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var products []models.Product
		if err := decode(trimmed, &products); err != nil {
			return nil, err
		}
		return products, nil
	}
	var wrapped struct {
		Products []models.Product `json:"products"`
	}
	if err := decode(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Products, nil
}

func (c *Client) EditProduct(ctx context.Context, creds Credentials, id string, product map[string]interface{}) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodPut, "/seller/edit_product/"+url.PathEscape(id), nil, &creds, product)
	if err != nil {
		return nil, err
	}
	return rawOrEmpty(resp.body)
}

func (c *Client) GetSellerLink(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/seller/get_link", nil, &creds, nil)
	if err != nil {
		return nil, err
	}
	return rawOrEmpty(resp.body)
}

func rawOrEmpty(body []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrBadResponse)
	}
	return body, nil
}

// Skins is an Epic account's locker as reported for a device code.
type Skins struct {
	Ready     bool                `json:"ready"`
	AthenaIDs []string            `json:"athena_ids"`
	Stats     models.ProductStats `json:"stats"`
}

// GetSkins fetches the locker linked to a device code. Timeouts are retried
// a fixed number of times. A pending link is reported with Ready false.
func (c *Client) GetSkins(ctx context.Context, creds Credentials, deviceCode string) (*Skins, error) {
	var skins *Skins
	err := poll.Retry(ctx, skinsAttempts, c.retryDelay(), IsTimeout, func(ctx context.Context) error {
		resp, err := c.do(ctx, http.MethodGet, "/get_skins", url.Values{"device_code": {deviceCode}}, &creds, nil)
		if err != nil {
			return err
		}
		skins, err = parseSkins(resp.status, resp.body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return skins, nil
}

func (c *Client) retryDelay() time.Duration {
	if c.skinsDelay > 0 {
		return c.skinsDelay
	}
	return skinsRetryDelay
}

// WaitForSkins polls GetSkins until the device code has been authorised.
// Only transient failures are polled through; anything else is returned at
// once.
func (c *Client) WaitForSkins(ctx context.Context, creds Credentials, deviceCode string, opts poll.Options) (*Skins, error) {
	if opts.Retryable == nil {
		opts.Retryable = IsTransient
	}
	var skins *Skins
	err := poll.Run(ctx, opts, func(ctx context.Context) (bool, error) {
		s, err := c.GetSkins(ctx, creds, deviceCode)
		if err != nil {
			return false, err
		}
		skins = s
		return s.Ready, nil
	})
	if err != nil {
		return nil, err
	}
	return skins, nil
}

func parseSkins(status int, body []byte) (*Skins, error) {
	if status == http.StatusAccepted {
		return &Skins{AthenaIDs: []string{}}, nil
	}

	var fields map[string]json.RawMessage
	if err := decode(body, &fields); err != nil {
		return nil, err
	}

	if s, ok := fields["status"]; ok {
		var state string
		if json.Unmarshal(s, &state) == nil {
			switch strings.ToLower(state) {
			case "pending", "waiting", "authorization_pending":
				return &Skins{AthenaIDs: []string{}}, nil
			}
		}
	}

	rawIDs, ok := fields["athena_ids"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(rawIDs), []byte("[")) {
		return nil, fmt.Errorf("%w: athena_ids is not an array", ErrBadResponse)
	}
	skins := &Skins{Ready: true}
	if err := decode(rawIDs, &skins.AthenaIDs); err != nil {
		return nil, err
	}
	if skins.AthenaIDs == nil {
		skins.AthenaIDs = []string{}
	}

	// Counts may arrive at the top level or under "stats"; absent ones stay 0.
	if rawStats, ok := fields["stats"]; ok {
		_ = json.Unmarshal(rawStats, &skins.Stats)
	} else {
		_ = json.Unmarshal(body, &skins.Stats)
	}
	return skins, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
