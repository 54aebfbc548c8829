// Package version reports build metadata for the linkpost binary.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name used in version strings and status output.
const Name = "linkpost"

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/linkpost/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/linkpost/internal/version.Commit=abc123
//	  -X github.com/soyeahso/linkpost/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string including the target platform,
// which matters when one build host produces binaries for several devices.
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		Name, Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// Banner is the one-line header printed by status.
func Banner() string {
	return fmt.Sprintf("%s %s (%s)", Name, Version, short(Commit))
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
