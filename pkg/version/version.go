// Package version exposes build metadata set with -ldflags.
package version

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X github.com/rshade/pecunia/pkg/version.version=v1.2.3 ..."
//
//nolint:gochecknoglobals // overwritten by the linker.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// GetVersion returns the release version.
func GetVersion() string {
	return version
}

// GetGitCommit returns the commit the binary was built from.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return buildDate
}

// String renders the full version line shown by --version.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildDate)
}
