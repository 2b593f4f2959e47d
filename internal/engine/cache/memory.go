package cache

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is the fast tier: an in-process map with per-key TTL and a max entry count.
// When full, inserting a new key evicts expired entries first and then the entry closest
// to expiry. Eviction is silent.
type MemoryStore struct {
	// mu serializes the capacity check with the insert.
	mu sync.Mutex

	items      *gocache.Cache
	maxEntries int
}

// NewMemoryStore creates a fast-tier store. cleanupInterval controls the background
// janitor that purges expired items (<= 0 disables it; expiry is still lazy on Get).
// maxEntries <= 0 means unbounded.
func NewMemoryStore(cleanupInterval time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		items:      gocache.New(gocache.NoExpiration, cleanupInterval),
		maxEntries: maxEntries,
	}
}

// Get returns the stored text or ErrCacheNotFound.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	raw, ok := s.items.Get(key)
	if !ok {
		return "", ErrCacheNotFound
	}
	value, ok := raw.(string)
	if !ok {
		return "", ErrCacheNotFound
	}
	return value, nil
}

// Put stores value under key for ttl.
func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxEntries > 0 {
		if _, exists := s.items.Get(key); !exists {
			s.makeRoomLocked()
		}
	}
	s.items.Set(key, value, ttl)
	return nil
}

// makeRoomLocked evicts until one more entry fits. Must be called with mu held.
func (s *MemoryStore) makeRoomLocked() {
	if s.items.ItemCount() < s.maxEntries {
		return
	}
	s.items.DeleteExpired()

	for s.items.ItemCount() >= s.maxEntries {
		victim, found := "", false
		soonest := int64(math.MaxInt64)
		for key, item := range s.items.Items() {
			expiration := item.Expiration
			if expiration == 0 {
				expiration = math.MaxInt64
			}
			if !found || expiration < soonest || (expiration == soonest && key < victim) {
				victim, soonest, found = key, expiration, true
			}
		}
		if !found {
			return
		}
		s.items.Delete(victim)
	}
}

// Remove deletes key. Missing keys are not an error.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.items.Delete(key)
	return nil
}

// RemoveAll drops every entry.
func (s *MemoryStore) RemoveAll(_ context.Context) error {
	s.items.Flush()
	return nil
}

// Keys lists unexpired keys starting with prefix.
func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	items := s.items.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored items, including expired ones not yet purged.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}

var _ Store = (*MemoryStore)(nil)
