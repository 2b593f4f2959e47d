package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pecunia/internal/cli"
	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.String())
		require.NotNil(t, root)
		assert.Equal(t, "pecunia", root.Use)
	})
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.yaml"))
	t.Setenv(config.EnvCacheFile, filepath.Join(dir, "properties.json"))
	t.Setenv(config.EnvLogLevel, "error")
	t.Cleanup(config.ResetGlobalConfigForTest)

	require.NoError(t, run(context.Background(), []string{"exec", "?"}))
	assert.Error(t, run(context.Background(), []string{"no-such-command"}))
}
