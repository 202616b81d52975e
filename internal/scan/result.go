package scan

import (
	"time"

	dxerrors "github.com/standardbeagle/dextract/internal/errors"
	"github.com/standardbeagle/dextract/internal/types"
)

// Stats counts what happened to each candidate file of a scan
type Stats struct {
	Total        int64 `json:"total" yaml:"total"`
	Scanned      int64 `json:"scanned" yaml:"scanned"`
	NonSource    int64 `json:"non_source" yaml:"non_source"`
	TooLarge     int64 `json:"too_large" yaml:"too_large"`
	Unsupported  int64 `json:"unsupported" yaml:"unsupported"`
	AccessErrors int64 `json:"access_errors" yaml:"access_errors"`
}

// Eligible is the number of candidates that were not excluded as non-source
func (s Stats) Eligible() int64 {
	return s.Total - s.NonSource
}

// Coverage returns Scanned / (Total - NonSource) as a fraction in [0,1].
// It is 0 when every candidate was non-source.
func (s Stats) Coverage() float64 {
	eligible := s.Eligible()
	if eligible <= 0 {
		return 0
	}
	return float64(s.Scanned) / float64(eligible)
}

// CoveragePercent returns Coverage as a percentage
func (s Stats) CoveragePercent() float64 {
	return s.Coverage() * 100
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.Total += other.Total
	s.Scanned += other.Scanned
	s.NonSource += other.NonSource
	s.TooLarge += other.TooLarge
	s.Unsupported += other.Unsupported
	s.AccessErrors += other.AccessErrors
}

// Result is the outcome of one Scan call
type Result struct {
	Root         string
	Dependencies types.DependencySet
	Stats        Stats
	MaxFileSize  int64
	Duration     time.Duration

	// Errors holds per-file access failures and unreadable directories.
	// None of them stopped the scan.
	Errors []error
}

// Err returns the collected per-file errors as a *errors.MultiError, or nil
func (r *Result) Err() error {
	return dxerrors.NewMultiError(r.Errors).ErrorOrNil()
}
