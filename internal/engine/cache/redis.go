package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisScanCount is the COUNT hint passed to SCAN.
const redisScanCount = 256

// redisDeleteChunk bounds the number of keys sent in one DEL.
const redisDeleteChunk = 500

// RedisStore is a durable tier backed by Redis. All keys live under a namespace prefix so
// RemoveAll only touches this store's keys, never the whole database.
type RedisStore struct {
	client    *redis.Client
	namespace string
	timeout   time.Duration
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
	Timeout   time.Duration
}

// NewRedisStore connects to Redis. The connection is lazy; no round trip happens here.
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisStoreFromClient(client, opts.Namespace, opts.Timeout)
}

// NewRedisStoreFromClient wraps an existing client. timeout <= 0 disables per-call deadlines.
func NewRedisStoreFromClient(client *redis.Client, namespace string, timeout time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		timeout:   timeout,
	}
}

// callContext bounds a single Redis round trip.
func (s *RedisStore) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Get returns the stored text or ErrCacheNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	value, err := s.client.Get(ctx, s.namespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Put stores value. ttl <= 0 stores without expiry.
func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	if err := s.client.Set(ctx, s.namespace+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	if err := s.client.Del(ctx, s.namespace+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// RemoveAll deletes every key under the namespace.
func (s *RedisStore) RemoveAll(ctx context.Context) error {
	keys, err := s.scan(ctx, "")
	if err != nil {
		return err
	}

	for start := 0; start < len(keys); start += redisDeleteChunk {
		end := min(start+redisDeleteChunk, len(keys))
		chunk := make([]string, 0, end-start)
		for _, key := range keys[start:end] {
			chunk = append(chunk, s.namespace+key)
		}

		callCtx, cancel := s.callContext(ctx)
		delErr := s.client.Del(callCtx, chunk...).Err()
		cancel()
		if delErr != nil {
			return fmt.Errorf("redis del: %w", delErr)
		}
	}
	return nil
}

// Keys lists keys starting with prefix, namespace stripped.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.scan(ctx, prefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// scan walks SCAN MATCH <namespace><prefix>* and strips the namespace.
func (s *RedisStore) scan(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	pattern := escapeGlob(s.namespace+prefix) + "*"
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return keys, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// escapeGlob escapes Redis glob metacharacters so prefix matches literally.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Store = (*RedisStore)(nil)
