package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/engine"
	"github.com/rshade/pecunia/internal/engine/cache"
)

func TestNewDurableStore(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		cfg := config.Default().Cache
		cfg.File = filepath.Join(t.TempDir(), "props.json")
		store, closeFn, err := newDurableStore(cfg)
		require.NoError(t, err)
		assert.IsType(t, &cache.FileStore{}, store)
		require.NoError(t, closeFn(context.Background()))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default().Cache
		cfg.Backend = config.BackendRedis
		cfg.Redis.Addr = mr.Addr()

		store, closeFn, err := newDurableStore(cfg)
		require.NoError(t, err)
		require.NoError(t, store.Put(context.Background(), "finance_A_price_2024-01-02", "{}", 0))
		assert.True(t, mr.Exists("pecunia:finance_A_price_2024-01-02"))
		require.NoError(t, closeFn(context.Background()))
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := config.Default().Cache
		cfg.Backend = "memcached"
		_, _, err := newDurableStore(cfg)
		require.ErrorIs(t, err, ErrUnsupportedBackend)
	})
}

func TestOpenSession_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.Redis.Addr = mr.Addr()

	s, err := openSession(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	ctx := context.Background()
	s.cache.Write(ctx, "NYSE:IBM", "price", cache.NumberValue(140), "2024-01-02")
	v, ok := s.cache.Read(ctx, "NYSE:IBM", "price", "2024-01-02")
	require.True(t, ok)
	assert.True(t, v.Equal(cache.NumberValue(140)))
	assert.True(t, mr.Exists("pecunia:"+cache.MakeKey("NYSE:IBM", "price", "2024-01-02")))
}

func TestOpenSession_StdoutMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.File = filepath.Join(t.TempDir(), "props.json")
	cfg.Metrics.Exporter = config.ExporterStdout

	var metricsOut bytes.Buffer
	s, err := openSession(cfg, &metricsOut)
	require.NoError(t, err)

	ctx := context.Background()
	s.cache.Write(ctx, "NYSE:IBM", "price", cache.NumberValue(140), "2024-01-02")
	s.cache.Read(ctx, "NYSE:IBM", "price", "2024-01-02")
	s.cache.Read(ctx, "NYSE:F", "price", "2024-01-02")

	require.NoError(t, s.Close(ctx))
	assert.Contains(t, metricsOut.String(), engine.MetricWrites)
	assert.Contains(t, metricsOut.String(), engine.MetricTier1Hits)
	assert.Contains(t, metricsOut.String(), engine.MetricMisses)
}

func TestOpenSession_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = "memcached"
	_, err := openSession(cfg, &bytes.Buffer{})
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewMeterProvider_None(t *testing.T) {
	provider, shutdown, err := newMeterProvider(config.MetricsConfig{Exporter: config.ExporterNone}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NotNil(t, provider.Meter(engine.MeterName))
	require.NoError(t, shutdown(context.Background()))
}
