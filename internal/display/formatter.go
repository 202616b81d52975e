// Package display renders scan results for people and for other programs.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/dextract/internal/scan"
)

var _ scan.Observer = (*Narrator)(nil)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted values of FormatterOptions.Format
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// FormatterOptions controls result formatting
type FormatterOptions struct {
	Format    string // "text", "json", "yaml"
	ShowStats bool   // append counters and coverage
	Color     bool   // text only
}

// Formatter renders scan results
type Formatter struct {
	options FormatterOptions
}

// NewFormatter creates a formatter; an empty format means text
func NewFormatter(options FormatterOptions) (*Formatter, error) {
	if options.Format == "" {
		options.Format = FormatText
	}
	switch options.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", options.Format, strings.Join(Formats, ", "))
	}
	return &Formatter{options: options}, nil
}

// Report is the serialisable form of a scan result
type Report struct {
	Root         string       `json:"root" yaml:"root"`
	Dependencies []string     `json:"dependencies" yaml:"dependencies"`
	Stats        *StatsReport `json:"stats,omitempty" yaml:"stats,omitempty"`
	Errors       []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// StatsReport adds derived figures to the raw counters
type StatsReport struct {
	scan.Stats      `yaml:",inline"`
	CoveragePercent float64 `json:"coverage_percent" yaml:"coverage_percent"`
	MaxFileSize     int64   `json:"max_file_size" yaml:"max_file_size"`
	DurationMS      int64   `json:"duration_ms" yaml:"duration_ms"`
}

// NewReport converts a result; stats are included when withStats is set
func NewReport(result *scan.Result, withStats bool) Report {
	r := Report{
		Root:         result.Root,
		Dependencies: result.Dependencies.Sorted(),
	}
	for _, err := range result.Errors {
		r.Errors = append(r.Errors, err.Error())
	}
	if withStats {
		r.Stats = &StatsReport{
			Stats:           result.Stats,
			CoveragePercent: math.Round(result.Stats.CoveragePercent()*100) / 100,
			MaxFileSize:     result.MaxFileSize,
			DurationMS:      result.Duration.Milliseconds(),
		}
	}
	return r
}

// Write renders result to w
func (f *Formatter) Write(w io.Writer, result *scan.Result) error {
	report := NewReport(result, f.options.ShowStats)

	switch f.options.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return f.writeText(w, result, report)
	}
}

// Format renders result to a string
func (f *Formatter) Format(result *scan.Result) (string, error) {
	var sb strings.Builder
	if err := f.Write(&sb, result); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (f *Formatter) writeText(w io.Writer, result *scan.Result, report Report) error {
	var sb strings.Builder
	for _, dep := range report.Dependencies {
		sb.WriteString(dep)
		sb.WriteByte('\n')
	}
	if f.options.ShowStats {
		sb.WriteString(Summary(result, f.options.Color))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Summary returns the closing statistics block
func Summary(result *scan.Result, color bool) string {
	tag := Success.String() + ":"
	if color {
		tag = Success.color() + tag + colorReset
	}

	s := result.Stats
	var sb strings.Builder
	fmt.Fprintf(&sb, "[dextract] %s\n", tag)
	sb.WriteString(" - - - - - - -\n")
	fmt.Fprintf(&sb, "| Files detected under %.1fMB: %d\n", float64(result.MaxFileSize)/1_000_000, s.Total)
	fmt.Fprintf(&sb, "| Files scanned: %d\n", s.Scanned)
	if s.NonSource+s.TooLarge+s.Unsupported+s.AccessErrors > 0 {
		fmt.Fprintf(&sb, "| Skipped: %d non-source, %d too large, %d unsupported, %d unreadable\n",
			s.NonSource, s.TooLarge, s.Unsupported, s.AccessErrors)
	}
	fmt.Fprintf(&sb, "| Scan coverage: %.1f%%\n", s.CoveragePercent())
	fmt.Fprintf(&sb, "| Dependencies found: %d\n", result.Dependencies.Len())
	sb.WriteString(" - - - - - - -\n")
	return sb.String()
}
