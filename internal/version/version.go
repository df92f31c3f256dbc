// Package version holds build metadata, overridden at link time with
// -ldflags "-X github.com/mandalnilabja/roboadmin/internal/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "none"
)
