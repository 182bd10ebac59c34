// Package version carries build metadata stamped in with -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the one-line banner printed by `ns1tool version`.
func String() string {
	return fmt.Sprintf("ns1tool %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
