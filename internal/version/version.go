// Package version exposes the build information stamped into the binary.
package version

import "fmt"

// Overridden at build time with -ldflags.
var (
	// Version is the release version of the calibration tooling. The
	// pattern generator burns this into the slate, so captured plates can
	// be matched to the build that analysed them.
	Version = "0.1.0"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// GitCommit is the revision the binary was built from.
	GitCommit = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit)
}
