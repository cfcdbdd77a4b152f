package client

import (
	"context"
	"net/http"
	"time"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

// TokenManager supplies bearer tokens to the transport.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com/v1". A
	// missing scheme defaults to https.
	BaseURL string

	// Authentication options (provide one, or none for a public API).
	// AccessToken is sent as is. With a TokenURL it seeds an OAuth2
	// manager that can later refresh it.
	AccessToken string
	// TokenURL is the OAuth2 token endpoint. Empty means BaseURL + "/oauth/token".
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	RefreshToken string
	Scopes       []string
	// TokenManager overrides every other authentication option.
	TokenManager TokenManager

	// HTTPTimeout bounds each attempt. Zero keeps the transport default.
	HTTPTimeout time.Duration
	// RetryMax, RetryWaitMin and RetryWaitMax tune retries of transient
	// failures. They apply when RetryMax > 0.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// HTTPClient replaces the underlying net/http client.
	HTTPClient *http.Client
	UserAgent  string

	// PageSize is sent as page[size] when a request does not set one.
	PageSize int
	// PageLimit caps the pages a listed collection walks. Zero selects
	// the default; jsonapi.UnlimitedPages disables the cap.
	PageLimit int

	// Debug logs every request and response at debug level.
	Debug  bool
	Logger jsonapi.Logger

	// Cache enables response caching. Nil disables it.
	Cache *CacheConfig
	// CachingPolicy decides which responses are cached. Nil selects
	// DefaultCachingPolicy.
	CachingPolicy *CachingPolicy
	// Interceptors run around every request.
	Interceptors *InterceptorChain

	// Registry and IdentifierFactory drive the model codec. Nil selects
	// the defaults.
	Registry          *jsonapi.Registry
	IdentifierFactory *jsonapi.IdentifierFactory
}

func (c *Config) needsOAuth2() bool {
	return c.ClientID != "" || c.RefreshToken != "" || c.Username != ""
}
