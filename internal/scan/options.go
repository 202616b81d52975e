package scan

import (
	"runtime"

	"github.com/standardbeagle/dextract/internal/classify"
	"github.com/standardbeagle/dextract/internal/extract"
	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/types"
)

// Ignorer reports whether a slash-separated path relative to the scan root
// should be left out, e.g. because .gitignore lists it.
type Ignorer interface {
	ShouldIgnore(relPath string, isDir bool) bool
}

// Observer receives per-file events when Options.Verbose is set. Calls may
// come from several workers at once.
type Observer interface {
	Reading(path string)
	Scanned(path string, deps types.DependencySet)
	Skipped(cand classify.Candidate, d classify.Decision)
	Failed(path string, err error)
}

// DefaultExclude prunes VCS metadata. Files under a pruned .git directory are
// not candidates, so they are missing from Stats.Total as well as from the
// dependency set. Pass an empty, non-nil Exclude to walk and count them.
var DefaultExclude = []string{"**/.git/**"}

// Options configures a Scanner. The zero value scans with the built-in
// languages, the default exclusion tables and a 5,000,000 byte ceiling.
type Options struct {
	MaxFileSize int64
	Strict      bool
	// Verbose only controls Observer callbacks; results never depend on it.
	Verbose bool
	Workers int

	Registry          *languages.Registry
	IgnoredNames      []string
	IgnoredExtensions []string
	ConfigFileNames   []string

	// Doublestar globs matched against paths relative to the root.
	// A nil Exclude means DefaultExclude; []string{} excludes nothing and
	// counts every file under the root, .git included.
	Exclude []string
	Include []string

	FollowSymlinks bool
	Ignore         Ignorer
	Observer       Observer
	Cache          *extract.Cache
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = types.DefaultMaxFileSize
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Registry == nil {
		o.Registry = languages.Default()
	}
	if o.Exclude == nil {
		o.Exclude = DefaultExclude
	}
	return o
}
