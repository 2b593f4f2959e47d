package cache

import (
	"context"
	"errors"
	"time"
)

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrStoreCorrupted  = errors.New("cache store file corrupted")
)

// Store is the storage capability shared by both tiers.
//
// Contract:
//   - Get returns ErrCacheNotFound when the key is absent or has expired.
//   - Put overwrites. ttl <= 0 means no expiry; durable stores ignore ttl entirely.
//   - Remove is idempotent.
//   - Keys returns keys with the given prefix (all keys for ""), sorted ascending.
//   - A bounded store may evict entries at any time without reporting it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	RemoveAll(ctx context.Context) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// validateKey rejects keys no backend can address.
func validateKey(key string) error {
	if key == "" {
		return ErrInvalidCacheKey
	}
	return nil
}
