package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names recorded by the engine.
const (
	MetricTier1Hits   = "pecunia.cache.tier1.hits"
	MetricTier2Hits   = "pecunia.cache.tier2.hits"
	MetricMisses      = "pecunia.cache.misses"
	MetricPromotions  = "pecunia.cache.promotions"
	MetricWrites      = "pecunia.cache.writes"
	MetricWriteErrors = "pecunia.cache.write_errors"
	MetricExpirations = "pecunia.cache.expirations"
	MetricMalformed   = "pecunia.cache.malformed"
)

// MeterName is the instrumentation scope used when no meter is injected.
const MeterName = "github.com/rshade/pecunia/internal/engine"

// Lookup kinds and expiration reasons used as metric attributes.
const (
	lookupDated  = "dated"
	lookupLatest = "latest"

	reasonStale  = "stale"
	reasonExpire = "expire"
)

// cacheMetrics holds the engine's counters.
type cacheMetrics struct {
	tier1Hits   metric.Int64Counter
	tier2Hits   metric.Int64Counter
	misses      metric.Int64Counter
	promotions  metric.Int64Counter
	writes      metric.Int64Counter
	writeErrors metric.Int64Counter
	expirations metric.Int64Counter
	malformed   metric.Int64Counter
}

func newCacheMetrics(meter metric.Meter) (*cacheMetrics, error) {
	specs := []struct {
		name string
		desc string
		unit string
	}{
		{MetricTier1Hits, "Lookups answered by the fast tier", "{lookup}"},
		{MetricTier2Hits, "Lookups answered by the durable tier", "{lookup}"},
		{MetricMisses, "Lookups answered by neither tier", "{lookup}"},
		{MetricPromotions, "Durable entries copied into the fast tier", "{entry}"},
		{MetricWrites, "Entries written to both tiers", "{entry}"},
		{MetricWriteErrors, "Failed tier writes", "{error}"},
		{MetricExpirations, "Entries removed for age", "{entry}"},
		{MetricMalformed, "Stored records that could not be decoded", "{entry}"},
	}

	m := &cacheMetrics{}
	targets := []*metric.Int64Counter{
		&m.tier1Hits, &m.tier2Hits, &m.misses, &m.promotions,
		&m.writes, &m.writeErrors, &m.expirations, &m.malformed,
	}
	for i, s := range specs {
		counter, err := meter.Int64Counter(s.name,
			metric.WithDescription(s.desc),
			metric.WithUnit(s.unit),
		)
		if err != nil {
			return nil, err
		}
		*targets[i] = counter
	}
	return m, nil
}

func lookupAttr(kind string) metric.AddOption {
	return metric.WithAttributes(attribute.String("lookup", kind))
}

func (m *cacheMetrics) tier1Hit(ctx context.Context, kind string) {
	m.tier1Hits.Add(ctx, 1, lookupAttr(kind))
}

func (m *cacheMetrics) tier2Hit(ctx context.Context, kind string) {
	m.tier2Hits.Add(ctx, 1, lookupAttr(kind))
}

func (m *cacheMetrics) miss(ctx context.Context, kind string) {
	m.misses.Add(ctx, 1, lookupAttr(kind))
}

func (m *cacheMetrics) promoted(ctx context.Context) {
	m.promotions.Add(ctx, 1)
}

func (m *cacheMetrics) written(ctx context.Context) {
	m.writes.Add(ctx, 1)
}

func (m *cacheMetrics) writeFailed(ctx context.Context, tier string) {
	m.writeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (m *cacheMetrics) expired(ctx context.Context, reason string, n int) {
	if n <= 0 {
		return
	}
	m.expirations.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *cacheMetrics) malformedRecord(ctx context.Context) {
	m.malformed.Add(ctx, 1)
}
