// Package build holds the version stamped into feedback-web at link time:
//
//	go build -ldflags "-X github.com/joestump/feedback-web/internal/build.Version=v1.2.0 \
//	  -X github.com/joestump/feedback-web/internal/build.Commit=$(git rev-parse --short HEAD)"
package build

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Branch  = "unknown"
)

// String describes the running build, e.g. "v1.2.0 (commit abc123, branch main)".
// Unstamped builds read "dev".
func String() string {
	if Commit == "unknown" && Branch == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit %s, branch %s)", Version, Commit, Branch)
}
