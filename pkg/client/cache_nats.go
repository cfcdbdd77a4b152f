package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
)

// NATSKVConfig configures a NATS JetStream key-value cache.
type NATSKVConfig struct {
	URL            string        `mapstructure:"url"             yaml:"url"`
	Bucket         string        `mapstructure:"bucket"          yaml:"bucket"`
	TTL            time.Duration `mapstructure:"ttl"             yaml:"ttl"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	Name           string        `mapstructure:"name"            yaml:"name,omitempty"`

	// Store replaces the JetStream bucket, skipping the connection.
	Store KeyValueStore `mapstructure:"-" yaml:"-"`
}

// KeyValueStore is the subset of a JetStream KV bucket the cache needs.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// NATSKVCache stores msgpack-encoded entries in a JetStream KV bucket.
// Keys are hashed because KV keys only allow a restricted alphabet.
type NATSKVCache struct {
	store KeyValueStore
	conn  *nats.Conn
	now   func() time.Time
}

type natsEntry struct {
	Data      []byte    `msgpack:"d"`
	ExpiresAt time.Time `msgpack:"e"`
	ETag      string    `msgpack:"t,omitempty"`
}

// NewNATSKVCache connects to NATS and opens, creating if needed, the
// configured bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	if config.Store != nil {
		return NewNATSKVCacheWithStore(config.Store), nil
	}

	url := config.URL
	if url == "" {
		url = nats.DefaultURL
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = constants.ShortHTTPTimeout
	}

	opts := []nats.Option{nats.Timeout(timeout)}
	if config.Name != "" {
		opts = append(opts, nats.Name(config.Name))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       bucket,
		TTL:          config.TTL,
		MaxValueSize: constants.MaxCacheValueSize,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening KV bucket %s: %w", bucket, err)
	}

	cache := NewNATSKVCacheWithStore(jetstreamStore{kv: kv})
	cache.conn = conn

	return cache, nil
}

// NewNATSKVCacheWithStore creates a cache over an already opened store.
func NewNATSKVCacheWithStore(store KeyValueStore) *NATSKVCache {
	return &NATSKVCache{store: store, now: time.Now}
}

// Close closes the NATS connection if the cache opened it.
func (c *NATSKVCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}

	return nil
}

// Get returns the entry for key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	hashed := hashKey(key)

	data, err := c.store.Get(ctx, hashed)
	if err != nil {
		return nil, err
	}

	var stored natsEntry

	err = msgpack.Unmarshal(data, &stored)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	entry := &CacheEntry{Data: stored.Data, ExpiresAt: stored.ExpiresAt, ETag: stored.ETag}
	if entry.Expired(c.now()) {
		_ = c.store.Delete(ctx, hashed)

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := msgpack.Marshal(&natsEntry{
		Data:      entry.Data,
		ExpiresAt: entry.ExpiresAt,
		ETag:      entry.ETag,
	})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	if len(data) > constants.MaxCacheValueSize {
		return fmt.Errorf("%w: %d bytes", ErrCacheValueTooLarge, len(data))
	}

	return c.store.Put(ctx, hashKey(key), data)
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.store.Delete(ctx, hashKey(key))
	if errors.Is(err, ErrCacheKeyNotFound) {
		return nil
	}

	return err
}

// Clear removes every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		err = c.store.Delete(ctx, key)
		if err != nil && !errors.Is(err, ErrCacheKeyNotFound) {
			return err
		}
	}

	return nil
}

// Has reports whether an unexpired entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}

type jetstreamStore struct {
	kv jetstream.KeyValue
}

func (s jetstreamStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return nil, ErrCacheKeyNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("reading KV entry: %w", err)
	}

	return entry.Value(), nil
}

func (s jetstreamStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.kv.Put(ctx, key, value)
	if err != nil {
		return fmt.Errorf("writing KV entry: %w", err)
	}

	return nil
}

func (s jetstreamStore) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return ErrCacheKeyNotFound
	}

	if err != nil {
		return fmt.Errorf("deleting KV entry: %w", err)
	}

	return nil
}

func (s jetstreamStore) Keys(ctx context.Context) ([]string, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing KV keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}

	return keys, nil
}
