package engine_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pecunia/internal/engine"
	"github.com/rshade/pecunia/internal/engine/cache"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testCache struct {
	*engine.FinanceCache
	fast    *cache.MemoryStore
	durable *cache.FileStore
	clock   *fakeClock
}

func newTestCache(t *testing.T, opts ...engine.Option) *testCache {
	t.Helper()
	durable, err := cache.NewFileStore(filepath.Join(t.TempDir(), "properties.json"))
	require.NoError(t, err)
	fast := cache.NewMemoryStore(0, 0)
	clock := newFakeClock()

	all := append([]engine.Option{engine.WithClock(clock.Now), engine.WithLogger(zerolog.Nop())}, opts...)
	return &testCache{
		FinanceCache: engine.New(fast, durable, all...),
		fast:         fast,
		durable:      durable,
		clock:        clock,
	}
}

func TestFinanceCache_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "NASDAQ:GOOGL", "price", cache.NumberValue(150.5), "2024-01-02")

	value, ok := fc.Read(ctx, "nasdaq:googl", "PRICE", "2024-01-02")
	require.True(t, ok)
	assert.True(t, value.Equal(cache.NumberValue(150.5)))

	_, ok = fc.Read(ctx, "NASDAQ:GOOGL", "price", "2024-01-03")
	assert.False(t, ok)

	// Both tiers hold the same record.
	key := cache.MakeKey("NASDAQ:GOOGL", "price", "2024-01-02")
	fastRaw, err := fc.fast.Get(ctx, key)
	require.NoError(t, err)
	durableRaw, err := fc.durable.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, durableRaw, fastRaw)

	entry, err := cache.DecodeCacheEntry(durableRaw)
	require.NoError(t, err)
	assert.Equal(t, fc.clock.Now().UnixMilli(), entry.Timestamp)
	assert.Equal(t, "NASDAQ:GOOGL", entry.Symbol)
	assert.Equal(t, "price", entry.Attribute)
}

func TestFinanceCache_WriteDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(1), "")
	assert.Equal(t, "2024-01-02", fc.Today())

	value, ok := fc.Read(ctx, "IBM", "price", "2024-01-02")
	require.True(t, ok)
	assert.True(t, value.Equal(cache.NumberValue(1)))
}

func TestFinanceCache_ReadLatest(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-01")
	fc.Write(ctx, "IBM", "price", cache.NumberValue(101), "2024-01-02")

	value, ok := fc.Read(ctx, "IBM", "price", "")
	require.True(t, ok)
	assert.True(t, value.Equal(cache.NumberValue(101)))

	_, ok = fc.Read(ctx, "IBM", "volume", "")
	assert.False(t, ok)
}

func TestFinanceCache_StaleLatestIsPurged(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-02")
	require.NoError(t, fc.fast.RemoveAll(ctx))
	fc.clock.Advance(25 * time.Hour)

	_, ok := fc.Read(ctx, "IBM", "price", "")
	assert.False(t, ok)

	_, err := fc.durable.Get(ctx, cache.MakeKey("IBM", "price", "2024-01-02"))
	assert.ErrorIs(t, err, cache.ErrCacheNotFound)
}

func TestFinanceCache_StalenessWindowBoundary(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-02")
	require.NoError(t, fc.fast.RemoveAll(ctx))
	fc.clock.Advance(24 * time.Hour)

	// Exactly at the window is not stale.
	value, ok := fc.Read(ctx, "IBM", "price", "")
	require.True(t, ok)
	assert.True(t, value.Equal(cache.NumberValue(100)))
}

func TestFinanceCache_DatedReadIgnoresAge(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-02")
	require.NoError(t, fc.fast.RemoveAll(ctx))
	fc.clock.Advance(30 * 24 * time.Hour)

	value, ok := fc.Read(ctx, "IBM", "price", "2024-01-02")
	require.True(t, ok)
	assert.True(t, value.Equal(cache.NumberValue(100)))
}

func TestFinanceCache_FastHitSkipsStaleness(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-02")
	fc.clock.Advance(25 * time.Hour)

	_, ok := fc.Read(ctx, "IBM", "price", "")
	assert.True(t, ok)
}

func TestFinanceCache_Promotion(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	key := cache.MakeKey("IBM", "price", "2024-01-02")
	raw, err := cache.NewCacheEntry("IBM", "price", cache.NumberValue(7), "2024-01-02", fc.clock.Now()).Encode()
	require.NoError(t, err)
	require.NoError(t, fc.durable.Put(ctx, key, raw, 0))

	_, err = fc.fast.Get(ctx, key)
	require.ErrorIs(t, err, cache.ErrCacheNotFound)

	value, ok := fc.Read(ctx, "IBM", "price", "2024-01-02")
	require.True(t, ok)
	assert.True(t, value.Equal(cache.NumberValue(7)))

	promoted, err := fc.fast.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, raw, promoted)
}

func TestFinanceCache_MalformedRecordIsAbsent(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	key := cache.MakeKey("IBM", "price", "2024-01-02")
	require.NoError(t, fc.durable.Put(ctx, key, "{broken", 0))

	_, ok := fc.Read(ctx, "IBM", "price", "2024-01-02")
	assert.False(t, ok)
	_, ok = fc.Read(ctx, "IBM", "price", "")
	assert.False(t, ok)

	// Malformed records are left in place.
	_, err := fc.durable.Get(ctx, key)
	assert.NoError(t, err)
}

func TestFinanceCache_HistoricalValue(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-02")
	assert.True(t, fc.HistoricalValue(ctx, "IBM", "price", "2024-01-02").Equal(cache.NumberValue(100)))
	assert.True(t, fc.HistoricalValue(ctx, "IBM", "price", "2023-12-29").
		Equal(cache.StringValue("#N/A (no data for 2023-12-29)")))
}

func TestFinanceCache_RemoveAll(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-01")
	fc.Write(ctx, "IBM", "price", cache.NumberValue(101), "2024-01-02")
	fc.Write(ctx, "IBM", "volume", cache.NumberValue(5), "2024-01-02")

	assert.Equal(t, 2, fc.RemoveAll(ctx, "ibm", "Price"))

	_, ok := fc.Read(ctx, "IBM", "price", "2024-01-01")
	assert.False(t, ok)
	_, ok = fc.Read(ctx, "IBM", "price", "2024-01-02")
	assert.False(t, ok)
	_, ok = fc.Read(ctx, "IBM", "volume", "2024-01-02")
	assert.True(t, ok)

	fastKeys, err := fc.fast.Keys(ctx, cache.KeyPrefix("IBM", "price"))
	require.NoError(t, err)
	assert.Empty(t, fastKeys)

	assert.Equal(t, 0, fc.RemoveAll(ctx, "IBM", "price"))
}

func TestFinanceCache_ClearAll(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-01")
	require.NoError(t, fc.durable.Put(ctx, "settings", "keep?", 0))

	fc.ClearAll(ctx)
	assert.Equal(t, 0, fc.durable.Count())
	assert.Equal(t, 0, fc.fast.Len())
}

func TestFinanceCache_ExpireOlderThan(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "OLD", "price", cache.NumberValue(1), "2024-01-01")
	fc.clock.Advance(48 * time.Hour)
	fc.Write(ctx, "NEW", "price", cache.NumberValue(2), "2024-01-03")
	require.NoError(t, fc.durable.Put(ctx, "finance_BAD_price_2024-01-01", "nope", 0))
	require.NoError(t, fc.durable.Put(ctx, "settings", "x", 0))

	assert.Equal(t, 1, fc.ExpireOlderThan(ctx, cache.DefaultExpireAfter))

	_, err := fc.durable.Get(ctx, cache.MakeKey("OLD", "price", "2024-01-01"))
	assert.ErrorIs(t, err, cache.ErrCacheNotFound)
	_, err = fc.fast.Get(ctx, cache.MakeKey("OLD", "price", "2024-01-01"))
	assert.ErrorIs(t, err, cache.ErrCacheNotFound)

	for _, key := range []string{cache.MakeKey("NEW", "price", "2024-01-03"), "finance_BAD_price_2024-01-01", "settings"} {
		_, getErr := fc.durable.Get(ctx, key)
		assert.NoError(t, getErr, key)
	}
}

func TestFinanceCache_History(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	fc.Write(ctx, "IBM", "price", cache.NumberValue(100), "2024-01-01")
	fc.Write(ctx, "IBM", "price", cache.NumberValue(102), "2024-01-03")
	fc.Write(ctx, "IBM", "price", cache.NumberValue(101), "2024-01-02")
	require.NoError(t, fc.durable.Put(ctx, cache.MakeKey("IBM", "price", "2023-12-31"), "bad", 0))

	points := fc.History(ctx, "IBM", "price")
	require.Len(t, points, 4)
	assert.Equal(t, "2024-01-03", points[0].Date)
	assert.True(t, points[0].Value.Equal(cache.NumberValue(102)))
	assert.Equal(t, "2024-01-02", points[1].Date)
	assert.Equal(t, "2024-01-01", points[2].Date)
	assert.ErrorIs(t, points[3].Err, cache.ErrMalformedEntry)
	assert.Equal(t, "finance_IBM_price_2023-12-31", points[3].Key)

	assert.Empty(t, fc.History(ctx, "IBM", "volume"))
}

func TestFinanceCache_ListAll(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	assert.Equal(t, "No cached finance data", fc.ListAll(ctx))

	fc.Write(ctx, "IBM", "price", cache.NumberValue(150.5), "2024-01-02")
	fc.Write(ctx, "IBM", "name", cache.StringValue("International Business Machines"), "2024-01-02")
	require.NoError(t, fc.durable.Put(ctx, "finance_X_price_2024-01-02", "bad", 0))
	require.NoError(t, fc.durable.Put(ctx, "settings", "x", 0))
	fc.clock.Advance(90 * time.Second)

	want := "Cached Finance Data:\n" +
		"finance_IBM_name_2024-01-02: International Business Machines (1.5 min old)\n" +
		"finance_IBM_price_2024-01-02: 150.5 (1.5 min old)\n" +
		"finance_X_price_2024-01-02: [error reading]\n"
	assert.Equal(t, want, fc.ListAll(ctx))

	entries := fc.Entries(ctx)
	require.Len(t, entries, 3)
	assert.Equal(t, 90*time.Second, entries[0].Age)
	assert.Equal(t, "IBM", entries[0].Entry.Symbol)
	assert.Error(t, entries[2].Err)
}

func TestFinanceCache_FastTierEvictionFallsBackToDurable(t *testing.T) {
	ctx := context.Background()
	durable, err := cache.NewFileStore(filepath.Join(t.TempDir(), "properties.json"))
	require.NoError(t, err)
	fast := cache.NewMemoryStore(0, 1)
	fc := engine.New(fast, durable)

	fc.Write(ctx, "A", "price", cache.NumberValue(1), "2024-01-02")
	fc.Write(ctx, "B", "price", cache.NumberValue(2), "2024-01-02")
	assert.Equal(t, 1, fast.Len())

	value, ok := fc.Read(ctx, "A", "price", "2024-01-02")
	require.True(t, ok)
	assert.True(t, value.Equal(cache.NumberValue(1)))
}

func TestFinanceCache_IsExpired(t *testing.T) {
	fc := newTestCache(t)
	now := fc.clock.Now()
	assert.False(t, fc.IsExpired(now.UnixMilli(), time.Hour))
	assert.True(t, fc.IsExpired(now.Add(-2*time.Hour).UnixMilli(), time.Hour))
}

func TestFinanceCache_Options(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t, engine.WithStalenessWindow(time.Hour), engine.WithFastTTL(time.Minute))

	fc.Write(ctx, "IBM", "price", cache.NumberValue(1), "2024-01-02")
	require.NoError(t, fc.fast.RemoveAll(ctx))
	fc.clock.Advance(2 * time.Hour)

	_, ok := fc.Read(ctx, "IBM", "price", "")
	assert.False(t, ok)
}

// failingStore fails every write.
type failingStore struct {
	*cache.MemoryStore
}

var errStoreDown = errors.New("store down")

func (failingStore) Put(context.Context, string, string, time.Duration) error {
	return errStoreDown
}

func TestFinanceCache_WriteFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	fast := cache.NewMemoryStore(0, 0)
	fc := engine.New(fast, failingStore{cache.NewMemoryStore(0, 0)})

	assert.NotPanics(t, func() {
		fc.Write(ctx, "IBM", "price", cache.NumberValue(1), "2024-01-02")
	})

	// The fast tier still took the write.
	value, ok := fc.Read(ctx, "IBM", "price", "2024-01-02")
	require.True(t, ok)
	assert.True(t, value.Equal(cache.NumberValue(1)))
}

func TestFinanceCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	fc := newTestCache(t)

	const workers = 8
	const writes = 20

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			symbol := fmt.Sprintf("SYM%d", w%3)
			for i := range writes {
				date := fmt.Sprintf("2024-01-%02d", i+1)
				fc.Write(ctx, symbol, "price", cache.NumberValue(float64(i)), date)
				fc.Read(ctx, symbol, "price", "")
				if i%5 == 0 {
					fc.Entries(ctx)
				}
			}
		}()
	}
	wg.Wait()

	for s := range 3 {
		points := fc.History(ctx, fmt.Sprintf("SYM%d", s), "price")
		assert.Len(t, points, writes)
	}
}
