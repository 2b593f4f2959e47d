// Package config loads pecunia's YAML configuration, applies environment overrides, and
// owns the process-wide logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/pecunia/internal/engine/cache"
)

// Environment variables.
const (
	EnvConfig       = "PECUNIA_CONFIG"
	EnvCacheBackend = "PECUNIA_CACHE_BACKEND"
	EnvCacheFile    = "PECUNIA_CACHE_FILE"
	EnvRedisAddr    = "PECUNIA_REDIS_ADDR"
	EnvLogLevel     = "PECUNIA_LOG_LEVEL"
	EnvLogFormat    = "PECUNIA_LOG_FORMAT"
)

// Durable backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Metrics exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Defaults.
const (
	defaultRedisAddr    = "localhost:6379"
	defaultRedisPrefix  = "pecunia:"
	defaultRedisTimeout = 2 * time.Second
	configDirName       = ".pecunia"
	configFileName      = "config.yaml"
	outputTypeFile      = "file"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Duration is a time.Duration that reads and writes YAML as a duration string.
// Bare integers are seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts "6h", "90s" or plain seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Output  OutputConfig  `yaml:"output"`

	configPath string
}

// CacheConfig configures both tiers and the engine windows.
type CacheConfig struct {
	FastTTL         Duration    `yaml:"fast_ttl"`
	FastMaxEntries  int         `yaml:"fast_max_entries"`
	CleanupInterval Duration    `yaml:"cleanup_interval"`
	StalenessWindow Duration    `yaml:"staleness_window"`
	ExpireAfter     Duration    `yaml:"expire_after"`
	Backend         string      `yaml:"backend"`
	File            string      `yaml:"file,omitempty"`
	Redis           RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis durable tier.
type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password,omitempty"`
	DB       int      `yaml:"db"`
	Prefix   string   `yaml:"prefix"`
	Timeout  Duration `yaml:"timeout"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// MetricsConfig selects the metrics exporter.
type MetricsConfig struct {
	Exporter string `yaml:"exporter"`
}

// OutputConfig sets CLI output defaults.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			FastTTL:         Duration(cache.DefaultFastTTL),
			FastMaxEntries:  cache.DefaultFastMaxEntries,
			CleanupInterval: Duration(cache.DefaultCleanupInterval),
			StalenessWindow: Duration(cache.DefaultStalenessWindow),
			ExpireAfter:     Duration(cache.DefaultExpireAfter),
			Backend:         BackendFile,
			Redis: RedisConfig{
				Addr:    defaultRedisAddr,
				Prefix:  defaultRedisPrefix,
				Timeout: Duration(defaultRedisTimeout),
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{Exporter: ExporterNone},
		Output:  OutputConfig{Format: OutputText},
	}
}

// New returns the configuration at the default path with environment overrides applied.
// A missing or unreadable file yields defaults.
func New() *Config {
	cfg, err := Load(DefaultConfigPath())
	if err != nil {
		cfg = Default()
		cfg.configPath = DefaultConfigPath()
		cfg.ApplyEnv()
	}
	return cfg
}

// Load reads the configuration at path. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.configPath = path

	if _, err := os.Stat(path); err == nil {
		if mergeErr := ShallowMergeYAML(cfg, path); mergeErr != nil {
			return nil, mergeErr
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot access config path %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// DefaultConfigPath returns $PECUNIA_CONFIG or ~/.pecunia/config.yaml.
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), configFileName)
}

// ConfigDir returns ~/.pecunia, or .pecunia when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvCacheBackend); v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvCacheFile); v != "" {
		c.Cache.File = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	c.Cache.FastTTL = Duration(cache.GetFastTTLFromEnv(c.Cache.FastTTL.Std()))
	c.Cache.FastMaxEntries = cache.GetFastMaxEntriesFromEnv(c.Cache.FastMaxEntries)
}

// ConfigPath returns the file this configuration is saved to.
func (c *Config) ConfigPath() string {
	if c.configPath == "" {
		return DefaultConfigPath()
	}
	return c.configPath
}

// SetConfigPath changes where Save writes.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save() error {
	path := c.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if writeErr := os.WriteFile(path, data, 0o600); writeErr != nil {
		return fmt.Errorf("writing config file: %w", writeErr)
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	for name, d := range map[string]Duration{
		"cache.fast_ttl":         c.Cache.FastTTL,
		"cache.staleness_window": c.Cache.StalenessWindow,
		"cache.expire_after":     c.Cache.ExpireAfter,
	} {
		if d.Std() < cache.MinTTL || d.Std() > cache.MaxTTL {
			errs = append(errs, fmt.Errorf("%s must be between %s and %s, got %s",
				name, cache.MinTTL, cache.MaxTTL, d.Std()))
		}
	}
	if c.Cache.CleanupInterval < 0 {
		errs = append(errs, errors.New("cache.cleanup_interval must be >= 0"))
	}
	if c.Cache.FastMaxEntries < 0 {
		errs = append(errs, errors.New("cache.fast_max_entries must be >= 0"))
	}

	switch c.Cache.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
		}
		if c.Cache.Redis.Timeout < 0 {
			errs = append(errs, errors.New("cache.redis.timeout must be >= 0"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be %q or %q, got %q",
			BackendFile, BackendRedis, c.Cache.Backend))
	}

	switch c.Metrics.Exporter {
	case "", ExporterNone, ExporterStdout:
	default:
		errs = append(errs, fmt.Errorf("metrics.exporter must be %q or %q, got %q",
			ExporterNone, ExporterStdout, c.Metrics.Exporter))
	}

	switch c.Output.Format {
	case "", OutputText, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("output.format must be %q or %q, got %q",
			OutputText, OutputJSON, c.Output.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// EnsureLogDir creates the directory of the configured log file, if any.
func EnsureLogDir() error {
	path := GetGlobalConfig().Logging.File
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	return nil
}
