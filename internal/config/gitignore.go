package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const gitignoreHeader = "# pecunia cache data (auto-generated)\n# Config is tracked; cached quotes are not.\n"

// GitignorePatterns returns the patterns that keep a file-backed cache and its logs out of
// version control.
func GitignorePatterns(cacheFile string) []string {
	if cacheFile == "" {
		cacheFile = "properties.json"
	}
	return []string{cacheFile, cacheFile + ".lock", cacheFile + ".tmp", "*.log"}
}

// EnsureGitignore makes sure dir/.gitignore lists every pattern. A missing file is created
// with a header; an existing file only has the missing patterns appended. It returns the
// patterns that were added.
func EnsureGitignore(dir string, patterns []string) ([]string, error) {
	path := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, mkdirErr)
		}
	case err != nil:
		return nil, fmt.Errorf("reading .gitignore at %s: %w", path, err)
	}

	present := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(existing))
	for scanner.Scan() {
		present[strings.TrimSpace(scanner.Text())] = true
	}

	var missing []string
	for _, p := range patterns {
		if !present[p] {
			missing = append(missing, p)
			present[p] = true
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) == 0 {
		buf.WriteString(gitignoreHeader)
	} else if existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	for _, p := range missing {
		buf.WriteString(p)
		buf.WriteByte('\n')
	}

	//nolint:gosec // .gitignore must be world-readable (0644).
	if writeErr := os.WriteFile(path, buf.Bytes(), 0o644); writeErr != nil {
		return nil, fmt.Errorf("writing .gitignore at %s: %w", path, writeErr)
	}
	return missing, nil
}
