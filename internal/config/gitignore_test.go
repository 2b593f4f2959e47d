package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pecunia/internal/config"
)

func TestGitignorePatterns(t *testing.T) {
	assert.Equal(t, []string{"properties.json", "properties.json.lock", "properties.json.tmp", "*.log"},
		config.GitignorePatterns(""))
	assert.Equal(t, "quotes.json.lock", config.GitignorePatterns("quotes.json")[1])
}

func TestEnsureGitignore(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", ".pecunia")
	patterns := config.GitignorePatterns("")

	added, err := config.EnsureGitignore(dir, patterns)
	require.NoError(t, err)
	assert.Equal(t, patterns, added)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.True(t, len(data) > 0 && data[0] == '#', "new file starts with the header")
	for _, p := range patterns {
		assert.Contains(t, string(data), p+"\n")
	}

	added, err = config.EnsureGitignore(dir, patterns)
	require.NoError(t, err)
	assert.Empty(t, added, "second call must not rewrite")
}

func TestEnsureGitignore_AppendsMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n*.bak\n*.log"), 0o644))

	added, err := config.EnsureGitignore(dir, []string{"*.log", "quotes.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"quotes.json"}, added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n*.bak\n*.log\nquotes.json\n", string(data))
}

func TestEnsureGitignore_ReadOnlyDir(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission checks not enforced")
	}

	dir := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.Chmod(dir, 0o444))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	added, err := config.EnsureGitignore(dir, config.GitignorePatterns(""))
	require.Error(t, err)
	assert.Empty(t, added)
}
