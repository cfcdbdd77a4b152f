package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for token requests.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit limits concurrent fetches by GetMany.
	DefaultConcurrencyLimit = 4
)

// Pagination.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 50

	// DefaultPageLimit caps the pages walked by a paged collection to prevent
	// runaway iteration over a remote resource that never terminates.
	DefaultPageLimit = 50

	// FirstPage is the number of the first page; pages are 1-based.
	FirstPage = 1
)

// Metadata cache.
const (
	// MetadataCacheSize bounds the number of model types whose field metadata is cached.
	MetadataCacheSize = 32

	// MetadataCacheTTL is how long cached field metadata stays valid.
	MetadataCacheTTL = 10 * time.Minute
)

// Response cache.
const (
	// DefaultCacheSize is the default response cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default response cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024

	// DefaultNATSBucket is the default JetStream KV bucket for cached responses.
	DefaultNATSBucket = "jsonapi-responses"
)

// Token handling.
const (
	// TokenExpiryBuffer is subtracted from a token's expiry when checking validity.
	TokenExpiryBuffer = 30 * time.Second
)

// Media types.
const (
	// MediaTypeJSONAPI is the JSON:API media type.
	MediaTypeJSONAPI = "application/vnd.api+json"

	// DefaultUserAgent is sent when Config.UserAgent is empty.
	DefaultUserAgent = "json-service-framework/1.0"
)
