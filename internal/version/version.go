package version

import (
	"runtime/debug"
	"sync"
)

// Version is the current semantic version of dextract
const Version = "0.3.0"

// Set at build time with -ldflags "-X github.com/standardbeagle/dextract/internal/version.GitCommit=..."
var (
	GitCommit = "unknown"
	BuildDate = "development"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns detailed version information
func FullInfo() string {
	return "dextract " + Version + " (commit: " + Revision() + ", built: " + BuildDate + ")"
}

var (
	revision     string
	revisionOnce sync.Once
)

// Revision returns GitCommit when it was stamped at link time, otherwise the
// VCS revision recorded by the Go toolchain, shortened to 12 characters.
func Revision() string {
	revisionOnce.Do(func() {
		revision = GitCommit
		if revision != "unknown" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				revision = s.Value
				if len(revision) > 12 {
					revision = revision[:12]
				}
			}
		}
	})
	return revision
}
