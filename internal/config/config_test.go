package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/engine/cache"
)

// clearEnv blanks every variable Load reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvConfig, config.EnvCacheBackend, config.EnvCacheFile, config.EnvRedisAddr,
		config.EnvLogLevel, config.EnvLogFormat, cache.EnvFastTTL, cache.EnvFastMaxEntries,
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 6*time.Hour, cfg.Cache.FastTTL.Std())
	assert.Equal(t, 24*time.Hour, cfg.Cache.StalenessWindow.Std())
	assert.Equal(t, 24*time.Hour, cfg.Cache.ExpireAfter.Std())
	assert.Equal(t, config.BackendFile, cfg.Cache.Backend)
	assert.Equal(t, config.OutputText, cfg.Output.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigPath())
	assert.Equal(t, config.Default().Cache, cfg.Cache)
}

func TestLoad_MergesSections(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cache:
  fast_ttl: 1h
  expire_after: 172800
  backend: redis
  redis:
    addr: redis.internal:6379
logging:
  level: debug
unknown:
  ignored: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Cache.FastTTL.Std())
	assert.Equal(t, 48*time.Hour, cfg.Cache.ExpireAfter.Std())
	assert.Equal(t, config.BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Keys the file leaves out keep their defaults.
	assert.Equal(t, 24*time.Hour, cfg.Cache.StalenessWindow.Std())
	assert.Equal(t, "pecunia:", cfg.Cache.Redis.Prefix)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache: [unterminated"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("cache:\n  fast_ttl: soon\n"), 0o600))
	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvCacheBackend, "REDIS")
	t.Setenv(config.EnvCacheFile, "/tmp/p.json")
	t.Setenv(config.EnvRedisAddr, "10.0.0.1:6379")
	t.Setenv(config.EnvLogLevel, "warn")
	t.Setenv(cache.EnvFastTTL, "30m")
	t.Setenv(cache.EnvFastMaxEntries, "12")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "/tmp/p.json", cfg.Cache.File)
	assert.Equal(t, "10.0.0.1:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 30*time.Minute, cfg.Cache.FastTTL.Std())
	assert.Equal(t, 12, cfg.Cache.FastMaxEntries)
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv(config.EnvConfig, "/etc/pecunia.yaml")
	assert.Equal(t, "/etc/pecunia.yaml", config.DefaultConfigPath())

	t.Setenv(config.EnvConfig, "")
	assert.Equal(t, filepath.Join(config.ConfigDir(), "config.yaml"), config.DefaultConfigPath())
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "dir", "config.yaml")

	cfg := config.Default()
	cfg.SetConfigPath(path)
	cfg.Cache.FastTTL = config.Duration(90 * time.Minute)
	cfg.Metrics.Exporter = config.ExporterStdout
	require.NoError(t, cfg.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fast_ttl: 1h30m0s")

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Cache, loaded.Cache)
	assert.Equal(t, config.ExporterStdout, loaded.Metrics.Exporter)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"ttl too small", func(c *config.Config) { c.Cache.FastTTL = config.Duration(time.Millisecond) }},
		{"window too large", func(c *config.Config) { c.Cache.StalenessWindow = config.Duration(365 * 24 * time.Hour) }},
		{"negative capacity", func(c *config.Config) { c.Cache.FastMaxEntries = -1 }},
		{"unknown backend", func(c *config.Config) { c.Cache.Backend = "sqlite" }},
		{"redis without addr", func(c *config.Config) {
			c.Cache.Backend = config.BackendRedis
			c.Cache.Redis.Addr = ""
		}},
		{"unknown exporter", func(c *config.Config) { c.Metrics.Exporter = "prometheus" }},
		{"unknown output", func(c *config.Config) { c.Output.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
		})
	}
}

func TestGlobalConfig(t *testing.T) {
	clearEnv(t)
	t.Cleanup(config.ResetGlobalConfigForTest)

	cfg := config.Default()
	cfg.Output.Format = config.OutputJSON
	cfg.Logging.Level = "error"
	config.SetGlobalConfig(cfg)

	assert.Same(t, cfg, config.GetGlobalConfig())
	assert.Equal(t, config.OutputJSON, config.GetDefaultOutputFormat())
	assert.Equal(t, "error", config.GetLogLevel())
	assert.Equal(t, "error", config.GetLoggingConfig().Level)
}

func TestLogger(t *testing.T) {
	clearEnv(t)
	t.Cleanup(config.ResetGlobalConfigForTest)
	t.Cleanup(config.CloseLogFile)

	logPath := filepath.Join(t.TempDir(), "logs", "pecunia.log")
	cfg := config.Default()
	cfg.Logging.File = logPath
	config.SetGlobalConfig(cfg)

	require.NoError(t, config.InitLogger("debug", true))
	config.GetLogger().Debug().Msg("written to file")
	config.CloseLogFile()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")

	config.SetLogLevel("warn")
	assert.Equal(t, "warn", config.GetLogger().GetLevel().String())

	config.SetLogLevel("nonsense")
	assert.Equal(t, "info", config.GetLogger().GetLevel().String())

	lc := cfg.Logging.ToLoggingConfig()
	assert.Equal(t, "file", lc.Output)
	assert.Equal(t, logPath, lc.File)
}
