// Package api is a client for the Camelot REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nitroScope/internal/chain"
)

// DefaultBaseURL is the public Camelot API.
const DefaultBaseURL = "https://api.camelot.exchange"

const (
	nitrosPath   = "/nitros"
	nftPoolsPath = "/nft-pools"

	maxErrorBody = 512
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	RequestsPerS float64
	Burst        int
	MaxRetries   int
	RetryBackoff time.Duration
	Cache        Cache
	CacheTTL     time.Duration
	Logger       *zap.Logger
}

// Client fetches Nitro and spNFT pool listings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	cache      Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.RequestsPerS <= 0 {
		opts.RequestsPerS = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerS), opts.Burst),
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		logger:     opts.Logger,
	}
}

// Nitros returns every Nitro pool keyed by lowercased address.
func (c *Client) Nitros(ctx context.Context) (map[string]Nitro, error) {
	var resp nitrosResponse
	if err := c.getJSON(ctx, nitrosPath, &resp); err != nil {
		return nil, err
	}
	out := make(map[string]Nitro, len(resp.Data.Nitros))
	for addr, nitro := range resp.Data.Nitros {
		key := strings.ToLower(addr)
		nitro.Address = addr
		out[key] = nitro
	}
	return out, nil
}

// NFTPools returns every spNFT pool keyed by lowercased address.
func (c *Client) NFTPools(ctx context.Context) (map[string]NFTPool, error) {
	var resp nftPoolsResponse
	if err := c.getJSON(ctx, nftPoolsPath, &resp); err != nil {
		return nil, err
	}
	out := make(map[string]NFTPool, len(resp.Data.NFTPools))
	for addr, pool := range resp.Data.NFTPools {
		key := strings.ToLower(addr)
		pool.Address = addr
		out[key] = pool
	}
	return out, nil
}

// LookupNitro finds address in a Nitros result.
func LookupNitro(nitros map[string]Nitro, address string) (Nitro, error) {
	nitro, ok := nitros[strings.ToLower(address)]
	if !ok {
		return Nitro{}, fmt.Errorf("nitro %s: %w", address, ErrNotFound)
	}
	return nitro, nil
}

// LookupNFTPool finds address in an NFTPools result.
func LookupNFTPool(pools map[string]NFTPool, address string) (NFTPool, error) {
	pool, ok := pools[strings.ToLower(address)]
	if !ok {
		return NFTPool{}, fmt.Errorf("nft pool %s: %w", address, ErrNotFound)
	}
	return pool, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// cacheKey scopes cached payloads to the API host they came from.
func (c *Client) cacheKey(path string) string {
	return c.baseURL + path
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.cache != nil {
		data, ok, err := c.cache.Get(ctx, c.cacheKey(path))
		if err != nil {
			c.logger.Warn("api cache read failed", zap.String("path", path), zap.Error(err))
		} else if ok {
			c.logger.Debug("api cache hit", zap.String("path", path))
			return data, nil
		}
	}

	var body []byte
	err := chain.WithRetry(ctx, c.maxRetries, c.backoff, func(ctx context.Context) error {
		var err error
		body, err = c.fetch(ctx, path)
		if err == nil {
			return nil
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return chain.Permanent(err)
		}
		c.logger.Warn("api request failed", zap.String("path", path), zap.Error(err))
		return err
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, c.cacheKey(path), body, c.cacheTTL); err != nil {
			c.logger.Warn("api cache write failed", zap.String("path", path), zap.Error(err))
		}
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(snippet)}
	}
	return body, nil
}
