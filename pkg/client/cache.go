package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/cache"
	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
)

// Cache stores raw response bodies.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is one cached response body.
type CacheEntry struct {
	Data      []byte
	ExpiresAt time.Time
	ETag      string
}

// Expired reports whether the entry is past its expiry. A zero ExpiresAt
// never expires.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// CacheOptions tunes a CacheManager.
type CacheOptions struct {
	// TTL applies when Set is called without a positive ttl.
	TTL time.Duration
	// MaxSize is the entry limit for backends that honour one.
	MaxSize int
	// EnableETags keeps the ETag of cached responses.
	EnableETags bool
	// ResourceTTLs overrides TTL for paths under the given prefixes.
	ResourceTTLs map[string]time.Duration
}

// DefaultCacheOptions returns the default cache options.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		TTL:         constants.DefaultCacheTTL,
		MaxSize:     constants.DefaultCacheSize,
		EnableETags: true,
	}
}

// TTLFor returns the TTL for path, preferring the longest matching
// ResourceTTLs prefix.
func (o *CacheOptions) TTLFor(path string) time.Duration {
	ttl, longest := o.TTL, -1

	for prefix, value := range o.ResourceTTLs {
		if pathHasPrefix(path, prefix) && len(prefix) > longest {
			ttl, longest = value, len(prefix)
		}
	}

	return ttl
}

// MemoryCache is an in-process Cache bounded by entry count.
type MemoryCache struct {
	items           *cache.Cache[string, *CacheEntry]
	now             func() time.Time
	cleanupInterval time.Duration

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{
		items: cache.New[string, *CacheEntry](maxSize, 0),
		now:   time.Now,
	}
}

// Get returns the entry for key.
func (c *MemoryCache) Get(_ context.Context, key string) (*CacheEntry, error) {
	entry, _, ok := c.items.Peek(key)
	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	if entry.Expired(c.now()) {
		c.items.Delete(key)

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set stores entry under key.
func (c *MemoryCache) Set(_ context.Context, key string, entry *CacheEntry) error {
	c.maybeCleanup()
	c.items.SetWithExpiry(key, entry, entry.ExpiresAt)

	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.items.Delete(key)

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.items.Clear()

	return nil
}

// Has reports whether an unexpired entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.items.Len()
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup() {
	c.items.Cleanup()
}

func (c *MemoryCache) maybeCleanup() {
	if c.cleanupInterval <= 0 {
		return
	}

	c.mu.Lock()
	now := c.now()
	due := now.Sub(c.lastCleanup) >= c.cleanupInterval
	if due {
		c.lastCleanup = now
	}
	c.mu.Unlock()

	if due {
		c.Cleanup()
	}
}

// CacheStats counts cache activity.
type CacheStats struct {
	Hits          int64
	Misses        int64
	Sets          int64
	Invalidations int64
}

// GetHitRate returns hits as a fraction of lookups.
func (s CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheManager keys responses by request and keeps statistics.
type CacheManager struct {
	cache   Cache
	options *CacheOptions

	mu    sync.Mutex
	stats CacheStats
	paths map[string]string
}

// NewCacheManager wraps cache. Nil options select the defaults.
func NewCacheManager(cache Cache, options *CacheOptions) *CacheManager {
	if options == nil {
		options = DefaultCacheOptions()
	}

	return &CacheManager{
		cache:   cache,
		options: options,
		paths:   make(map[string]string),
	}
}

// Options returns the manager's options.
func (m *CacheManager) Options() *CacheOptions {
	return m.options
}

// GetCacheKey builds the key for a request. Query parameters are encoded
// in sorted order so equivalent requests share a key.
func (m *CacheManager) GetCacheKey(method, path string, query url.Values) string {
	key := method + ":" + path
	if len(query) > 0 {
		key += ":" + query.Encode()
	}

	return key
}

// Get looks up key, counting the hit or miss.
func (m *CacheManager) Get(ctx context.Context, key string) (*CacheEntry, error) {
	entry, err := m.cache.Get(ctx, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.stats.Misses++
		if errors.Is(err, ErrCacheKeyNotFound) || errors.Is(err, ErrCacheEntryExpired) {
			delete(m.paths, key)
		}

		return nil, err
	}

	m.stats.Hits++

	return entry, nil
}

// Set stores data under key. A non-positive ttl selects the configured TTL
// for the key's path.
func (m *CacheManager) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return m.SetWithETag(ctx, key, data, "", ttl)
}

// SetWithETag stores data together with its ETag.
func (m *CacheManager) SetWithETag(ctx context.Context, key string, data []byte, etag string, ttl time.Duration) error {
	if len(data) > constants.MaxCacheValueSize {
		return fmt.Errorf("%w: %d bytes", ErrCacheValueTooLarge, len(data))
	}

	path := pathOfKey(key)
	if ttl <= 0 {
		ttl = m.options.TTLFor(path)
	}

	if !m.options.EnableETags {
		etag = ""
	}

	entry := &CacheEntry{Data: data, ETag: etag}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	err := m.cache.Set(ctx, key, entry)
	if err != nil {
		return fmt.Errorf("caching %s: %w", key, err)
	}

	m.mu.Lock()
	m.stats.Sets++
	m.paths[key] = path
	m.mu.Unlock()

	return nil
}

// Delete removes key.
func (m *CacheManager) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.paths, key)
	m.mu.Unlock()

	return m.cache.Delete(ctx, key)
}

// InvalidatePath removes every entry this manager stored for path or a
// path beneath it, and returns how many it removed.
func (m *CacheManager) InvalidatePath(ctx context.Context, path string) (int, error) {
	m.mu.Lock()
	var keys []string
	for key, keyPath := range m.paths {
		if pathHasPrefix(keyPath, path) {
			keys = append(keys, key)
			delete(m.paths, key)
		}
	}
	m.stats.Invalidations += int64(len(keys))
	m.mu.Unlock()

	var lastErr error
	for _, key := range keys {
		err := m.cache.Delete(ctx, key)
		if err != nil {
			lastErr = err
		}
	}

	return len(keys), lastErr
}

// Clear empties the cache.
func (m *CacheManager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.paths = make(map[string]string)
	m.mu.Unlock()

	return m.cache.Clear(ctx)
}

// GetStats returns a snapshot of the statistics.
func (m *CacheManager) GetStats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}

func pathOfKey(key string) string {
	_, rest, ok := strings.Cut(key, ":")
	if !ok {
		return key
	}

	path, _, _ := strings.Cut(rest, ":")

	return path
}

func pathHasPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}

	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// CachingPolicy decides which responses are cached.
type CachingPolicy struct {
	CacheGET     bool
	CachePOST    bool
	CacheErrors  bool
	IncludePaths []string
	ExcludePaths []string
}

// DefaultCachingPolicy caches successful GET responses for every path.
func DefaultCachingPolicy() *CachingPolicy {
	return &CachingPolicy{CacheGET: true}
}

// ShouldCache reports whether a response may be cached.
func (p *CachingPolicy) ShouldCache(method, path string, statusCode int) bool {
	switch method {
	case "GET":
		if !p.CacheGET {
			return false
		}
	case "POST":
		if !p.CachePOST {
			return false
		}
	default:
		return false
	}

	if statusCode < 200 || (statusCode >= 300 && !p.CacheErrors) {
		return false
	}

	for _, excluded := range p.ExcludePaths {
		if pathHasPrefix(path, excluded) {
			return false
		}
	}

	if len(p.IncludePaths) == 0 {
		return true
	}

	for _, included := range p.IncludePaths {
		if pathHasPrefix(path, included) {
			return true
		}
	}

	return false
}
