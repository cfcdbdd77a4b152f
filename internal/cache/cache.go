// Package cache provides a bounded, time-expiring in-memory cache.
//
// Reads take a shared lock only, so concurrent lookups of warm keys never
// serialize behind each other. Expired entries are treated as misses and
// removed lazily by Set or explicitly by Cleanup.
package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fake to control expiry.
type Clock func() time.Time

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a size-bounded map whose entries expire after a TTL.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]entry[V]
	maxSize int
	ttl     time.Duration
	now     Clock
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock sets the time source used for expiry.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// New creates a cache holding at most maxSize entries, each valid for ttl.
// A non-positive maxSize means unbounded; a non-positive ttl means entries
// never expire unless stored with an explicit expiry.
func New[K comparable, V any](maxSize int, ttl time.Duration, opts ...Option) *Cache[K, V] {
	o := &options{clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	return &Cache[K, V]{
		items:   make(map[K]entry[V]),
		maxSize: maxSize,
		ttl:     ttl,
		now:     o.clock,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || c.expired(e) {
		var zero V

		return zero, false
	}

	return e.value, true
}

// Peek returns the value and its expiry even when the entry has expired.
func (c *Cache[K, V]) Peek(key K) (V, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]

	return e.value, e.expiresAt, ok
}

// Set stores value under key with the cache's TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	c.SetWithExpiry(key, value, expiresAt)
}

// SetWithExpiry stores value under key, expiring at expiresAt. A zero
// expiresAt never expires.
func (c *Cache[K, V]) SetWithExpiry(key K, value V, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.removeExpiredLocked()

		if len(c.items) >= c.maxSize {
			c.evictOldestLocked()
		}
	}

	c.items[key] = entry[V]{value: value, expiresAt: expiresAt}
}

// Delete removes key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]entry[V])
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Cleanup removes expired entries.
func (c *Cache[K, V]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeExpiredLocked()
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

func (c *Cache[K, V]) removeExpiredLocked() {
	for key, e := range c.items {
		if c.expired(e) {
			delete(c.items, key)
		}
	}
}

// evictOldestLocked drops the entry closest to expiry. Entries without an
// expiry are only evicted when nothing else is left.
func (c *Cache[K, V]) evictOldestLocked() {
	var (
		victim    K
		haveAny   bool
		haveTimed bool
		oldest    time.Time
	)

	for key, e := range c.items {
		if e.expiresAt.IsZero() {
			if !haveAny {
				victim, haveAny = key, true
			}

			continue
		}

		if !haveTimed || e.expiresAt.Before(oldest) {
			victim, oldest = key, e.expiresAt
			haveAny, haveTimed = true, true
		}
	}

	if haveAny {
		delete(c.items, victim)
	}
}
