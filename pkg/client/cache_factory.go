package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
)

// CacheType names a response cache backend.
type CacheType string

const (
	// CacheTypeMemory keeps responses in process.
	CacheTypeMemory CacheType = "memory"
	// CacheTypeNATS shares responses through a JetStream key-value bucket.
	CacheTypeNATS CacheType = "nats"
	// CacheTypeTiered puts a memory cache in front of the NATS bucket.
	CacheTypeTiered CacheType = "tiered"
	// CacheTypeNone stores nothing.
	CacheTypeNone CacheType = "none"
)

// CacheConfig selects and configures a cache backend.
type CacheConfig struct {
	Type CacheType `mapstructure:"type" yaml:"type"`

	// Memory is used by the memory and tiered types. Nil selects defaults.
	Memory *MemoryCacheConfig `mapstructure:"memory" yaml:"memory,omitempty"`

	// NATS is required by the nats and tiered types.
	NATS *NATSKVConfig `mapstructure:"nats" yaml:"nats,omitempty"`

	// Options apply to any backend. Nil selects DefaultCacheOptions.
	Options *CacheOptions `mapstructure:"-" yaml:"-"`
}

// MemoryCacheConfig sizes the in-process cache.
type MemoryCacheConfig struct {
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`

	// CleanupInterval is a duration string like "1m". Expired entries are
	// swept on the first write after each interval.
	CleanupInterval string `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// DefaultCacheConfig returns a memory cache of constants.DefaultCacheSize
// entries swept every minute.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeMemory,
		Memory: &MemoryCacheConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: "1m",
		},
		Options: DefaultCacheOptions(),
	}
}

// NewCacheFromConfig opens the backend config selects. A nil config opens
// DefaultCacheConfig.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory:
		return asCache(NewMemoryCacheFromConfig(config.Memory))
	case CacheTypeNATS:
		return asCache(NewNATSKVCache(config.NATS))
	case CacheTypeTiered:
		return asCache(newTieredFromConfig(config))
	case CacheTypeNone:
		return disabledCache{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// asCache keeps a failed constructor's typed nil out of the interface.
func asCache[C Cache](cache C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}

	return cache, nil
}

func newTieredFromConfig(config *CacheConfig) (*TieredCache, error) {
	if config.NATS == nil {
		return nil, ErrNATSConfigRequired
	}

	local, err := NewMemoryCacheFromConfig(config.Memory)
	if err != nil {
		return nil, err
	}

	shared, err := NewNATSKVCache(config.NATS)
	if err != nil {
		return nil, err
	}

	return NewTieredCache(local, shared), nil
}

// NewMemoryCacheFromConfig creates a memory cache. A nil config selects the
// DefaultCacheConfig sizing.
func NewMemoryCacheFromConfig(config *MemoryCacheConfig) (*MemoryCache, error) {
	if config == nil {
		config = DefaultCacheConfig().Memory
	}

	var interval time.Duration

	if config.CleanupInterval != "" {
		parsed, err := time.ParseDuration(config.CleanupInterval)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCleanup, config.CleanupInterval)
		}

		interval = parsed
	}

	cache := NewMemoryCache(config.MaxSize)
	cache.cleanupInterval = interval
	cache.lastCleanup = cache.now()

	return cache, nil
}

// disabledCache backs CacheTypeNone: writes vanish, reads miss.
type disabledCache struct{}

func (disabledCache) Get(context.Context, string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (disabledCache) Set(context.Context, string, *CacheEntry) error { return nil }
func (disabledCache) Delete(context.Context, string) error { return nil }
func (disabledCache) Clear(context.Context) error { return nil }
func (disabledCache) Has(context.Context, string) bool { return false }

// TieredCache consults its layers in order. A hit in a slower layer is
// copied into every faster layer before it.
type TieredCache struct {
	layers []Cache
}

// NewTieredCache orders layers fastest first.
func NewTieredCache(layers ...Cache) *TieredCache {
	return &TieredCache{layers: layers}
}

// Get returns the entry from the first layer that holds it.
func (c *TieredCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for depth, layer := range c.layers {
		entry, err := layer.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, faster := range c.layers[:depth] {
			_ = faster.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set writes entry to every layer. Failures are joined.
func (c *TieredCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(layer Cache) error { return layer.Set(ctx, key, entry) })
}

// Delete removes key from every layer. Failures are joined.
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	return c.each(func(layer Cache) error { return layer.Delete(ctx, key) })
}

// Clear empties every layer. Failures are joined.
func (c *TieredCache) Clear(ctx context.Context) error {
	return c.each(func(layer Cache) error { return layer.Clear(ctx) })
}

// Has reports whether any layer holds key.
func (c *TieredCache) Has(ctx context.Context, key string) bool {
	for _, layer := range c.layers {
		if layer.Has(ctx, key) {
			return true
		}
	}

	return false
}

// Close closes the layers that hold connections.
func (c *TieredCache) Close() error {
	return c.each(func(layer Cache) error {
		if closer, ok := layer.(io.Closer); ok {
			return closer.Close()
		}

		return nil
	})
}

func (c *TieredCache) each(fn func(Cache) error) error {
	errs := make([]error, 0, len(c.layers))

	for _, layer := range c.layers {
		errs = append(errs, fn(layer))
	}

	return errors.Join(errs...)
}
