package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/logging"
)

// Tier names used in logs and metric attributes.
const (
	tierFast    = "tier1"
	tierDurable = "tier2"
)

// FinanceCache reads and writes finance entries across a fast tier and a durable tier.
// It is safe for concurrent use.
type FinanceCache struct {
	fast    cache.Store
	durable cache.Store

	logger          zerolog.Logger
	now             func() time.Time
	meter           metric.Meter
	fastTTL         time.Duration
	stalenessWindow time.Duration

	metrics *cacheMetrics
	locks   stripedLock
}

// Option configures a FinanceCache.
type Option func(*FinanceCache)

// WithClock injects the time source used for timestamps, ages and default dates.
func WithClock(now func() time.Time) Option {
	return func(c *FinanceCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *FinanceCache) {
		c.logger = logging.ComponentLogger(logger, "engine")
	}
}

// WithMeter sets the meter used for cache counters.
func WithMeter(meter metric.Meter) Option {
	return func(c *FinanceCache) {
		if meter != nil {
			c.meter = meter
		}
	}
}

// WithFastTTL sets how long written and promoted entries live in the fast tier.
func WithFastTTL(ttl time.Duration) Option {
	return func(c *FinanceCache) {
		if ttl > 0 {
			c.fastTTL = ttl
		}
	}
}

// WithStalenessWindow sets the age past which a latest lookup purges an entry.
func WithStalenessWindow(window time.Duration) Option {
	return func(c *FinanceCache) {
		if window > 0 {
			c.stalenessWindow = window
		}
	}
}

// New creates a FinanceCache over the given tiers.
func New(fast, durable cache.Store, opts ...Option) *FinanceCache {
	c := &FinanceCache{
		fast:            fast,
		durable:         durable,
		logger:          zerolog.Nop(),
		now:             time.Now,
		meter:           otel.GetMeterProvider().Meter(MeterName),
		fastTTL:         cache.DefaultFastTTL,
		stalenessWindow: cache.DefaultStalenessWindow,
	}
	for _, opt := range opts {
		opt(c)
	}

	m, err := newCacheMetrics(c.meter)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache metrics unavailable")
		m, _ = newCacheMetrics(noop.NewMeterProvider().Meter(MeterName))
	}
	c.metrics = m
	return c
}

// Now returns the engine clock's current time.
func (c *FinanceCache) Now() time.Time {
	return c.now()
}

// Today returns the engine clock's current date (UTC, YYYY-MM-DD).
func (c *FinanceCache) Today() string {
	return c.now().UTC().Format(time.DateOnly)
}

// IsExpired reports whether an entry written at timestampMs is older than maxAge.
func (c *FinanceCache) IsExpired(timestampMs int64, maxAge time.Duration) bool {
	return cache.IsExpired(timestampMs, maxAge, c.now())
}

// Read looks up the value for (symbol, attribute, date). An empty date reads the most
// recent entry for the series, subject to the staleness window.
func (c *FinanceCache) Read(ctx context.Context, symbol, attribute, date string) (cache.Value, bool) {
	unlock := c.locks.lock(cache.KeyPrefix(symbol, attribute))
	defer unlock()

	if date != "" {
		return c.readDated(ctx, cache.MakeKey(symbol, attribute, date))
	}
	return c.readLatest(ctx, symbol, attribute)
}

// HistoricalValue returns the cached value for an explicit date, or a "#N/A" message.
func (c *FinanceCache) HistoricalValue(ctx context.Context, symbol, attribute, date string) cache.Value {
	if value, ok := c.Read(ctx, symbol, attribute, date); ok {
		return value
	}
	return cache.StringValue("#N/A (no data for " + date + ")")
}

func (c *FinanceCache) readDated(ctx context.Context, key string) (cache.Value, bool) {
	if value, ok := c.readFast(ctx, key, lookupDated); ok {
		return value, true
	}

	entry, raw, ok := c.readDurable(ctx, key)
	if !ok {
		c.metrics.miss(ctx, lookupDated)
		return cache.Value{}, false
	}
	c.metrics.tier2Hit(ctx, lookupDated)
	c.logger.Debug().Ctx(ctx).Str("key", key).Msg("tier2 cache hit")
	c.promote(ctx, key, raw)
	return entry.Value, true
}

func (c *FinanceCache) readLatest(ctx context.Context, symbol, attribute string) (cache.Value, bool) {
	keys, err := c.durable.Keys(ctx, cache.KeyPrefix(symbol, attribute))
	if err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).
			Str("symbol", symbol).
			Str("attribute", attribute).
			Msg("listing durable keys failed")
	}
	if len(keys) == 0 {
		c.metrics.miss(ctx, lookupLatest)
		return cache.Value{}, false
	}
	latest := keys[len(keys)-1]

	if value, ok := c.readFast(ctx, latest, lookupLatest); ok {
		return value, true
	}

	entry, raw, ok := c.readDurable(ctx, latest)
	if !ok {
		c.metrics.miss(ctx, lookupLatest)
		return cache.Value{}, false
	}

	if c.IsExpired(entry.Timestamp, c.stalenessWindow) {
		if removeErr := c.durable.Remove(ctx, latest); removeErr != nil {
			c.logger.Warn().Ctx(ctx).Err(removeErr).Str("key", latest).Msg("removing stale entry failed")
		}
		c.metrics.expired(ctx, reasonStale, 1)
		c.metrics.miss(ctx, lookupLatest)
		c.logger.Debug().Ctx(ctx).
			Str("key", latest).
			Dur("age", entry.Age(c.now())).
			Msg("stale entry purged")
		return cache.Value{}, false
	}

	c.metrics.tier2Hit(ctx, lookupLatest)
	c.logger.Debug().Ctx(ctx).Str("key", latest).Msg("tier2 cache hit")
	c.promote(ctx, latest, raw)
	return entry.Value, true
}

// readFast returns the fast-tier value for key. Malformed fast entries count as misses.
func (c *FinanceCache) readFast(ctx context.Context, key, kind string) (cache.Value, bool) {
	raw, err := c.fast.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotFound) {
			c.logger.Warn().Ctx(ctx).Err(err).Str("key", key).Msg("tier1 read failed")
		}
		return cache.Value{}, false
	}
	entry, err := cache.DecodeCacheEntry(raw)
	if err != nil {
		c.metrics.malformedRecord(ctx)
		c.logger.Warn().Ctx(ctx).Err(err).Str("key", key).Msg("cache read error")
		return cache.Value{}, false
	}
	c.metrics.tier1Hit(ctx, kind)
	c.logger.Debug().Ctx(ctx).Str("key", key).Msg("tier1 cache hit")
	return entry.Value, true
}

// readDurable returns the decoded durable entry for key with its raw text.
func (c *FinanceCache) readDurable(ctx context.Context, key string) (*cache.CacheEntry, string, bool) {
	raw, err := c.durable.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotFound) {
			c.logger.Warn().Ctx(ctx).Err(err).Str("key", key).Msg("tier2 read failed")
		}
		return nil, "", false
	}
	entry, err := cache.DecodeCacheEntry(raw)
	if err != nil {
		c.metrics.malformedRecord(ctx)
		c.logger.Warn().Ctx(ctx).Err(err).Str("key", key).Msg("cache read error")
		return nil, "", false
	}
	return entry, raw, true
}

// promote copies the raw durable text into the fast tier.
func (c *FinanceCache) promote(ctx context.Context, key, raw string) {
	if err := c.fast.Put(ctx, key, raw, c.fastTTL); err != nil {
		c.metrics.writeFailed(ctx, tierFast)
		c.logger.Warn().Ctx(ctx).Err(err).Str("key", key).Msg("promotion failed")
		return
	}
	c.metrics.promoted(ctx)
}

// Write stores value for (symbol, attribute, date) in both tiers. An empty date means
// today. Failures are logged and counted, never returned.
func (c *FinanceCache) Write(ctx context.Context, symbol, attribute string, value cache.Value, date string) {
	if date == "" {
		date = c.Today()
	}
	unlock := c.locks.lock(cache.KeyPrefix(symbol, attribute))
	defer unlock()

	key := cache.MakeKey(symbol, attribute, date)
	raw, err := cache.NewCacheEntry(symbol, attribute, value, date, c.now()).Encode()
	if err != nil {
		c.metrics.writeFailed(ctx, tierDurable)
		c.logger.Error().Ctx(ctx).Err(err).Str("key", key).Msg("cache write error")
		return
	}

	failed := false
	if putErr := c.fast.Put(ctx, key, raw, c.fastTTL); putErr != nil {
		failed = true
		c.metrics.writeFailed(ctx, tierFast)
		c.logger.Warn().Ctx(ctx).Err(putErr).Str("key", key).Msg("tier1 write failed")
	}
	if putErr := c.durable.Put(ctx, key, raw, 0); putErr != nil {
		failed = true
		c.metrics.writeFailed(ctx, tierDurable)
		c.logger.Error().Ctx(ctx).Err(putErr).Str("key", key).Msg("tier2 write failed")
	}
	if failed {
		return
	}

	c.metrics.written(ctx)
	c.logger.Debug().Ctx(ctx).
		Str("key", key).
		Stringer("value", value).
		Msg("cached (tier1+tier2)")
}

// RemoveAll deletes every dated entry for the series from both tiers and returns the
// number of durable keys matched.
func (c *FinanceCache) RemoveAll(ctx context.Context, symbol, attribute string) int {
	prefix := cache.KeyPrefix(symbol, attribute)
	unlock := c.locks.lock(prefix)
	defer unlock()

	keys, err := c.durable.Keys(ctx, prefix)
	if err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).Str("prefix", prefix).Msg("listing durable keys failed")
		return 0
	}
	for _, key := range keys {
		c.removeBoth(ctx, key)
	}

	c.logger.Info().Ctx(ctx).
		Str("symbol", symbol).
		Str("attribute", attribute).
		Int("removed", len(keys)).
		Msg("removed cache entries")
	return len(keys)
}

// ClearAll empties both tiers.
func (c *FinanceCache) ClearAll(ctx context.Context) {
	unlock := c.locks.lockAll()
	defer unlock()

	if err := c.durable.RemoveAll(ctx); err != nil {
		c.logger.Error().Ctx(ctx).Err(err).Msg("clearing tier2 failed")
	}
	if err := c.fast.RemoveAll(ctx); err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).Msg("clearing tier1 failed")
	}
	c.logger.Info().Ctx(ctx).Msg("all cache cleared")
}

// ExpireOlderThan removes every finance entry older than maxAge from both tiers and
// returns how many were removed. Malformed records are skipped.
func (c *FinanceCache) ExpireOlderThan(ctx context.Context, maxAge time.Duration) int {
	unlock := c.locks.lockAll()
	defer unlock()

	keys, err := c.durable.Keys(ctx, cache.KeyNamespace)
	if err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).Msg("listing durable keys failed")
		return 0
	}

	expired := 0
	for _, key := range keys {
		raw, getErr := c.durable.Get(ctx, key)
		if getErr != nil {
			continue
		}
		entry, decodeErr := cache.DecodeCacheEntry(raw)
		if decodeErr != nil {
			continue
		}
		if !c.IsExpired(entry.Timestamp, maxAge) {
			continue
		}
		c.removeBoth(ctx, key)
		expired++
	}

	c.metrics.expired(ctx, reasonExpire, expired)
	c.logger.Info().Ctx(ctx).
		Int("expired", expired).
		Dur("max_age", maxAge).
		Msgf("Expired %d old cache entries", expired)
	return expired
}

func (c *FinanceCache) removeBoth(ctx context.Context, key string) {
	if err := c.durable.Remove(ctx, key); err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).Str("key", key).Msg("tier2 remove failed")
	}
	if err := c.fast.Remove(ctx, key); err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).Str("key", key).Msg("tier1 remove failed")
	}
}
