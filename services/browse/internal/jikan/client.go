// Package jikan is the query service over the Jikan v4 anime API. Every
// operation builds an endpoint path and a canonical parameter record, then
// goes through the request cache; upstream failures come back as *Error.
package jikan

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/anime-browse/services/browse/internal/ratelimit"
	"github.com/example/anime-browse/services/browse/internal/reqcache"
)

const (
	DefaultBaseURL   = "https://api.jikan.moe/v4"
	defaultUserAgent = "anime-browse/1.0"
	maxBodyBytes     = 4 << 20
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	cache   *reqcache.Cache
	limiter *ratelimit.Limiter
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.UserAgent = ua
		}
	}
}

// WithLimiter paces upstream calls. Cache hits never wait.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client reading through cache. A nil cache gets a private one.
func New(baseURL string, cache *reqcache.Cache, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cache == nil {
		cache = reqcache.New()
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		UserAgent:  defaultUserAgent,
		cache:      cache,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClearCache drops every cached response so the next call of any operation
// goes upstream.
func (c *Client) ClearCache() {
	c.cache.Clear()
	c.log.Info("jikan cache cleared")
}

func (c *Client) get(ctx context.Context, endpoint string, params reqcache.Params) (*Response, error) {
	v, err := c.cache.GetOrFetch(ctx, endpoint, params, func(ctx context.Context) (any, error) {
		resp, err := c.fetch(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Response), nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params reqcache.Params) (*Response, error) {
	rawURL := c.BaseURL + endpoint
	if q := params.Encode(); q != "" {
		rawURL += "?" + q
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, unknown(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, unknown(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	out, err := classify(resp, err)
	c.log.Debug("jikan fetch",
		zap.String("url", rawURL),
		zap.Duration("took", time.Since(start)),
		zap.Bool("ok", err == nil))
	return out, err
}

// classify maps one HTTP outcome to exactly one of: success, rate limited,
// transport error, unknown error.
func classify(resp *http.Response, err error) (*Response, error) {
	if err != nil {
		return nil, unknown(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, rateLimited()
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, transport(resp.StatusCode, statusText(resp))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, unknown(err)
	}
	out, err := DecodeResponse(b)
	if err != nil {
		return nil, unknown(err)
	}
	return out, nil
}

// statusText strips the numeric prefix from resp.Status ("500 Internal Server Error").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
