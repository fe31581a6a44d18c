// Package version reports the build of the omrsamples command.
package version

import "fmt"

// Set at build time with -ldflags "-X omr-sampler/internal/version.Version=...".
var (
	Version   = "0.1.0"
	BuildTime = "unknown" // UTC
	GitCommit = "unknown"
)

// String formats the build information for --version.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
