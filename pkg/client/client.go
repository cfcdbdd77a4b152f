package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/auth"
	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
	transport "github.com/GuyPaddock/json-service-framework-sub001/internal/http"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

// Client is a JSON:API service client. Resource clients created from it
// share its transport, cache and codec.
type Client struct {
	baseURL   string
	transport *transport.Client
	codec     *jsonapi.Codec
	logger    jsonapi.Logger
	cache     *CacheManager
	backend   Cache
	policy    *CachingPolicy
	pageSize  int
	pageLimit int
}

// New creates a client from config.
func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	baseURL := normalizeBaseURL(config.BaseURL)
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	logger := config.Logger
	if logger == nil {
		logger = jsonapi.NopLogger{}
	}

	client := &Client{
		baseURL:   baseURL,
		codec:     jsonapi.NewCodec(config.Registry, config.IdentifierFactory),
		logger:    logger,
		policy:    config.CachingPolicy,
		pageSize:  config.PageSize,
		pageLimit: config.PageLimit,
	}

	if client.pageSize <= 0 {
		client.pageSize = constants.DefaultPageSize
	}

	if client.pageLimit == 0 {
		client.pageLimit = constants.DefaultPageLimit
	}

	if client.policy == nil {
		client.policy = DefaultCachingPolicy()
	}

	if config.Cache != nil {
		backend, err := NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("creating response cache: %w", err)
		}

		client.backend = backend
		client.cache = NewCacheManager(backend, config.Cache.Options)
	}

	client.transport = transport.NewClient(baseURL, createTokenManager(config, baseURL), transportOptions(config)...)

	return client, nil
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}

	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return base
}

func createTokenManager(config *Config, baseURL string) auth.TokenManager {
	if config.TokenManager != nil {
		return config.TokenManager
	}

	if config.needsOAuth2() {
		tokenURL := config.TokenURL
		if tokenURL == "" {
			tokenURL = baseURL + "/oauth/token"
		}

		return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			TokenURL:     tokenURL,
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Username:     config.Username,
			Password:     config.Password,
			RefreshToken: config.RefreshToken,
			AccessToken:  config.AccessToken,
			Scopes:       config.Scopes,
		})
	}

	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	return nil
}

func transportOptions(config *Config) []transport.Option {
	var opts []transport.Option

	if config.Logger != nil {
		opts = append(opts, transport.WithLogger(config.Logger), transport.WithDebug(config.Debug))
	}

	if config.HTTPClient != nil {
		opts = append(opts, transport.WithHTTPClient(config.HTTPClient))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, transport.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		opts = append(opts, transport.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	if config.UserAgent != "" {
		opts = append(opts, transport.WithUserAgent(config.UserAgent))
	}

	if config.Interceptors != nil {
		opts = append(opts, config.Interceptors.transportOptions()...)
	}

	return opts
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Codec returns the codec used for resource documents.
func (c *Client) Codec() *jsonapi.Codec {
	return c.codec
}

// Logger returns the client's logger.
func (c *Client) Logger() jsonapi.Logger {
	return c.logger
}

// CacheManager returns the response cache, or nil when caching is off.
func (c *Client) CacheManager() *CacheManager {
	return c.cache
}

// Close releases the cache backend's resources.
func (c *Client) Close() error {
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// get fetches path, serving and filling the response cache.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var key string

	if c.cache != nil {
		key = c.cache.GetCacheKey(http.MethodGet, path, query)

		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			c.logger.Debug("Serving response from cache", map[string]interface{}{"key": key})

			return entry.Data, nil
		}
	}

	resp, err := c.transport.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && c.policy.ShouldCache(http.MethodGet, path, resp.StatusCode) {
		err = c.cache.SetWithETag(ctx, key, resp.Body, resp.Headers.Get("ETag"), 0)
		if err != nil {
			c.logger.Warn("Failed to cache response", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return resp.Body, nil
}

// mutate sends a write request and drops cached responses under
// invalidate.
func (c *Client) mutate(ctx context.Context, method, path string, body []byte, invalidate string) ([]byte, error) {
	req := &transport.Request{Method: method, Path: path}
	if body != nil {
		req.Body = body
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		removed, err := c.cache.InvalidatePath(ctx, invalidate)
		if err != nil {
			c.logger.Warn("Failed to invalidate cached responses", map[string]interface{}{
				"path":  invalidate,
				"error": err.Error(),
			})
		} else if removed > 0 {
			c.logger.Debug("Invalidated cached responses", map[string]interface{}{
				"path":    invalidate,
				"removed": removed,
			})
		}
	}

	return resp.Body, nil
}
