// Package platform is the HTTP client for the remote GrowthLab platform API.
//
// A single Client serves both the proxy routes and the cached read paths:
// Do relays raw responses, Fetch adds the response cache and the optional
// degraded-mode fallback, and the typed convenience methods sit on top of both.
package platform

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/growthlab/growthlab-web/internal/metrics"
)

const (
	// DefaultBaseURL is used when no platform URL is configured.
	DefaultBaseURL = "http://localhost:3001"

	// DefaultCacheTTL is how long a successful GET stays fresh.
	DefaultCacheTTL = 5 * time.Minute

	defaultTimeout = 10 * time.Second

	// APIKeyHeader carries the static API key on every platform call.
	APIKeyHeader = "X-API-Key"
)

// Source tells a caller where a response body came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Result wraps decoded data together with its Source.
type Result[T any] struct {
	Data   T
	Source Source
}

// Degraded reports whether Data is fixture data rather than platform data.
func (r Result[T]) Degraded() bool {
	return r.Source == SourceFallback
}

// Config holds the connection settings for the platform.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache enables response caching for Fetch. A non-positive ttl keeps the default.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithDegradedMode makes Fetch serve fixture data when the platform fails.
func WithDegradedMode(enabled bool) Option {
	return func(c *Client) { c.degraded = enabled }
}

// WithLogger sets the logger used for cache and fallback warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client talks to the platform API. The zero token is anonymous; use
// WithToken to derive a client bound to a caller's bearer token.
type Client struct {
	baseURL  string
	apiKey   string
	token    string
	http     *http.Client
	cache    Cache
	ttl      time.Duration
	degraded bool
	logger   *slog.Logger
}

// New creates a Client for the platform described by cfg.
func New(cfg Config, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		ttl:     DefaultCacheTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of c that authenticates as token. The copy shares
// the cache and transport with c. An empty token yields an anonymous client.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token the client is bound to, if any.
func (c *Client) Token() string { return c.token }

// DegradedMode reports whether fixture fallback is enabled.
func (c *Client) DegradedMode() bool { return c.degraded }

// Request describes a raw platform call.
type Request struct {
	Method   string
	Endpoint string
	Query    url.Values
	Body     []byte
	Header   http.Header
}

// Response is a fully-read platform response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (c *Client) httpClient() *http.Client {
	if c.token == "" {
		return c.http
	}
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout:       c.http.Timeout,
		CheckRedirect: c.http.CheckRedirect,
		Jar:           c.http.Jar,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"}),
			Base:   base,
		},
	}
}

// Do performs req and returns the response without interpreting its status.
// An error is returned only when no response was received.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL + req.Endpoint
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("platform: build %s %s: %w", method, req.Endpoint, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(APIKeyHeader, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient().Do(httpReq)
	metrics.UpstreamDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("platform: %s %s: %w", method, req.Endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("platform: read %s %s: %w", method, req.Endpoint, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Fetch performs a cached GET of endpoint. Fresh cache entries are served
// without a network call. When the call fails and degraded mode is on, the
// fixture for the endpoint family is returned with SourceFallback; fallback
// data is never cached. A 401 or 404 is always returned as an error.
func (c *Client) Fetch(ctx context.Context, endpoint string, query url.Values) ([]byte, Source, error) {
	f, err := c.fetch(ctx, endpoint, query)
	return f.body, f.source, err
}

// fetched is a Fetch result plus the upstream failure a fallback replaced.
type fetched struct {
	body   []byte
	source Source
	cause  error
}

func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values) (fetched, error) {
	key := c.cacheKey(http.MethodGet, endpoint, query)
	if c.cache != nil {
		data, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("platform cache read failed", "endpoint", endpoint, "error", err)
		case ok:
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return fetched{body: data, source: SourceCache}, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Query: query})
	if err == nil && !resp.OK() {
		err = &APIError{Method: http.MethodGet, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if err == nil && !json.Valid(resp.Body) {
		err = fmt.Errorf("platform: GET %s returned invalid JSON", endpoint)
	}
	if err != nil {
		if !c.degraded || !canFallBack(err) || ctx.Err() != nil {
			return fetched{}, err
		}
		family, data := fallbackFor(endpoint)
		metrics.FallbackServedTotal.WithLabelValues(family).Inc()
		c.logger.Warn("platform unavailable, serving fallback data", "endpoint", endpoint, "family", family, "error", err)
		return fetched{body: data, source: SourceFallback, cause: err}, nil
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, resp.Body, c.ttl); err != nil {
			c.logger.Warn("platform cache write failed", "endpoint", endpoint, "error", err)
		}
	}
	return fetched{body: resp.Body, source: SourceLive}, nil
}

// canFallBack reports whether err is an outage rather than an answer. A 401
// or 404 is the platform's verdict and is never masked.
func canFallBack(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return false
	}
	return true
}

// Get is Fetch followed by decoding the body into out. When the fallback
// fixture does not fit out, the upstream failure is returned instead.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out any) (Source, error) {
	f, err := c.fetch(ctx, endpoint, query)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(f.body, out); err != nil {
		if f.source == SourceFallback {
			return "", fmt.Errorf("%w: %s: %w", ErrFallbackMismatch, endpoint, f.cause)
		}
		return "", fmt.Errorf("platform: decode %s: %w", endpoint, err)
	}
	return f.source, nil
}

// ClearCache drops every cached response.
func (c *Client) ClearCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Clear(ctx)
}

// call performs an uncached request, encoding in and decoding the body into
// out. Successful writes invalidate the cache.
func (c *Client) call(ctx context.Context, method, endpoint string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("platform: encode %s %s: %w", method, endpoint, err)
		}
	}

	resp, err := c.Do(ctx, Request{Method: method, Endpoint: endpoint, Body: body})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &APIError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	if method != http.MethodGet {
		if err := c.ClearCache(ctx); err != nil {
			c.logger.Warn("platform cache clear failed", "endpoint", endpoint, "error", err)
		}
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("platform: decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

// cacheKey hashes everything that can change a response, including the
// credentials, so entries are never shared between users.
func (c *Client) cacheKey(method, endpoint string, query url.Values) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n", method, endpoint, query.Encode())
	fmt.Fprintf(h, "authorization=%s\n", c.token)
	fmt.Fprintf(h, "api-key=%s\n", c.apiKey)
	return hex.EncodeToString(h.Sum(nil))
}

func fetchAs[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (Result[T], error) {
	var v T
	src, err := c.Get(ctx, endpoint, query, &v)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Data: v, Source: src}, nil
}
