// Package inventory is the client for the asset-inventory API: bearer-token
// auth, cursor pagination, bounded retries, and per-run de-duplication of
// identical batch queries.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	loginPath     = "/api/v1.0/login"
	inventoryPath = "/api/v1.0/inventory"
)

// Config is the immutable client configuration for one run.
type Config struct {
	BaseURL    string
	AccessKey  string
	SecretKey  string
	AccountIDs []string

	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Doer issues one HTTP request. *http.Client satisfies it; tests inject
// fakes so the retry behavior is checkable without a network.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Stats counts client activity for the end-of-run summary.
type Stats struct {
	Calls     int
	CacheHits int
	Retries   int
}

// Client is the authenticated inventory API client. All state (credential,
// cache, stats) is scoped to the client's lifetime, which is one run.
type Client struct {
	cfg    Config
	http   Doer
	logger *zap.Logger

	token       string
	tokenExpiry time.Time

	cache *queryCache

	mu    sync.Mutex
	stats Stats
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// NewClient builds an unauthenticated client; call Authenticate before
// issuing queries.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10000
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 60 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		cache:  newQueryCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// Authenticate exchanges the key pair for a bearer token. Any failure here
// is fatal for the run.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(loginRequest{AccessKey: c.cfg.AccessKey, SecretKey: c.cfg.SecretKey})
	if err != nil {
		return &AuthError{Err: err}
	}

	data, err := c.call(ctx, loginPath, body, false)
	if err != nil {
		return &AuthError{Err: err}
	}

	var resp loginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return &AuthError{Err: fmt.Errorf("decoding login response: %w", err)}
	}
	if resp.AccessToken == "" {
		return &AuthError{Err: fmt.Errorf("login response contained no access token")}
	}

	c.token = resp.AccessToken
	if resp.ExpiresAt > 0 {
		c.tokenExpiry = time.Unix(resp.ExpiresAt, 0).UTC()
		c.logger.Info("authenticated with inventory API",
			zap.Time("tokenExpiry", c.tokenExpiry))
	} else {
		c.logger.Info("authenticated with inventory API")
	}
	return nil
}

type inventoryQuery struct {
	AssetTypes  []string       `json:"assetTypes"`
	Size        int            `json:"size"`
	ProviderIDs []string       `json:"providerIds,omitempty"`
	Filters     map[string]any `json:"filters,omitempty"`
	AfterKey    string         `json:"afterKey,omitempty"`
}

type inventoryPage struct {
	ResponseObjects []Asset `json:"responseObjects"`
	AfterKey        string  `json:"afterKey"`
}

// ListAssets returns every asset of one type visible to the configured
// accounts, following the pagination cursor until exhausted.
func (c *Client) ListAssets(ctx context.Context, assetType string) ([]Asset, error) {
	return c.query(ctx, assetType, nil)
}

// FetchBatch returns the assets whose resource id is in keys, as one
// logical batch. Identical key sets are served from the per-run cache and
// cost no further API calls.
func (c *Client) FetchBatch(ctx context.Context, assetType string, keys []string) ([]Asset, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	return c.query(ctx, assetType, keys)
}

func (c *Client) query(ctx context.Context, assetType string, keys []string) ([]Asset, error) {
	sig := signature(assetType, c.cfg.AccountIDs, keys)
	if assets, ok := c.cache.get(sig); ok {
		c.count(func(s *Stats) { s.CacheHits++ })
		c.logger.Debug("inventory query served from cache",
			zap.String("assetType", assetType), zap.Int("keys", len(keys)))
		return assets, nil
	}

	q := inventoryQuery{
		AssetTypes:  []string{assetType},
		Size:        c.cfg.PageSize,
		ProviderIDs: c.cfg.AccountIDs,
	}
	if len(keys) > 0 {
		q.Filters = map[string]any{
			"resourceId": map[string]any{"$in": keys},
		}
	}

	var assets []Asset
	for {
		body, err := json.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("encoding inventory query: %w", err)
		}

		data, err := c.call(ctx, inventoryPath, body, true)
		if err != nil {
			return nil, err
		}

		var page inventoryPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decoding inventory page: %w", err)
		}

		assets = append(assets, page.ResponseObjects...)

		// A short page or a missing cursor ends the result set
		if len(page.ResponseObjects) < c.cfg.PageSize || page.AfterKey == "" {
			break
		}
		q.AfterKey = page.AfterKey
	}

	c.cache.put(sig, assets)
	return assets, nil
}

// call runs one logical HTTP call through the retry machine. Each call
// moves Pending -> Sent -> Success | Retryable | Fatal; Retryable outcomes
// (429, 502, 503, 504, transient connection errors) loop back to Sent after
// an exponential delay with jitter, up to MaxAttempts. Exhausting the bound
// makes this call fatal without affecting any other in-flight call.
func (c *Client) call(ctx context.Context, path string, body []byte, authenticated bool) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.MaxInterval = c.cfg.MaxBackoff
	bo.MaxElapsedTime = 0

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		data, err := c.send(ctx, path, body, authenticated)
		if err == nil {
			return data, nil
		}
		if !retryableError(err) {
			return nil, err
		}

		lastErr = err
		if attempt == c.cfg.MaxAttempts {
			break
		}

		wait := bo.NextBackOff()
		c.count(func(s *Stats) { s.Retries++ })
		c.logger.Warn("retrying inventory call",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

func (c *Client) send(ctx context.Context, path string, body []byte, authenticated bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.count(func(s *Stats) { s.Calls++ })
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(data)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: msg}
	}
	return data, nil
}

func (c *Client) count(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}

// Stats returns the call counters accumulated so far.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
