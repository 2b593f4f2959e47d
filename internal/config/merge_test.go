package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pecunia/internal/config"
)

// writeOverlay writes YAML content to a temp file and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestShallowMergeYAML_SingleSection(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
output:
  format: json
`)
	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "json", target.Output.Format)
	assert.Equal(t, config.Default().Cache, target.Cache, "other sections untouched")
	assert.Equal(t, "info", target.Logging.Level)
}

func TestShallowMergeYAML_PartialSectionKeepsDefaults(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
cache:
  fast_ttl: 90s
  redis:
    addr: cache.internal:6380
`)
	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, 90*time.Second, target.Cache.FastTTL.Std())
	assert.Equal(t, "cache.internal:6380", target.Cache.Redis.Addr)
	assert.Equal(t, config.Default().Cache.StalenessWindow, target.Cache.StalenessWindow)
	assert.Equal(t, config.Default().Cache.Redis.Prefix, target.Cache.Redis.Prefix)
	assert.Equal(t, config.BackendFile, target.Cache.Backend)
}

func TestShallowMergeYAML_DurationForms(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
cache:
  fast_ttl: 300
  expire_after: 6h
`)
	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, 5*time.Minute, target.Cache.FastTTL.Std())
	assert.Equal(t, 6*time.Hour, target.Cache.ExpireAfter.Std())
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
plugins:
  anything: true
metrics:
  exporter: stdout
`)
	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, config.ExporterStdout, target.Metrics.Exporter)
}

func TestShallowMergeYAML_Errors(t *testing.T) {
	t.Run("nil target", func(t *testing.T) {
		assert.Error(t, config.ShallowMergeYAML(nil, writeOverlay(t, "output: {}")))
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.ShallowMergeYAML(config.Default(), filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "reading overlay file")
	})

	t.Run("bad duration", func(t *testing.T) {
		err := config.ShallowMergeYAML(config.Default(), writeOverlay(t, "cache:\n  fast_ttl: soon\n"))
		assert.ErrorContains(t, err, `applying overlay section "cache"`)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		err := config.ShallowMergeYAML(config.Default(), writeOverlay(t, "cache: [\n"))
		assert.ErrorContains(t, err, "parsing overlay YAML")
	})
}
