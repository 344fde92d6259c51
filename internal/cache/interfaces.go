package cache

import (
	"context"
	"time"
)

// Cache is a small TTL key/value store. MemoryCache serves development and
// tests, RedisCache serves multi-instance deployments.
type Cache interface {
	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases background resources.
	Close() error
}
