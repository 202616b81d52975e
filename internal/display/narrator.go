package display

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/standardbeagle/dextract/internal/classify"
	"github.com/standardbeagle/dextract/internal/types"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Level is the severity tag printed after the program prefix
type Level int

const (
	Information Level = iota
	Notice
	Error
	Success
)

func (l Level) String() string {
	switch l {
	case Information:
		return "INFORMATION"
	case Notice:
		return "NOTICE"
	case Error:
		return "ERROR"
	case Success:
		return "SUCCESS"
	default:
		return "UNKNOWN"
	}
}

func (l Level) color() string {
	switch l {
	case Notice:
		return colorYellow
	case Error:
		return colorRed
	case Success:
		return colorGreen
	default:
		return colorCyan
	}
}

// Narrator prints per-file progress lines such as
//
//	[dextract] INFORMATION: Reading main.go
//
// It implements scan.Observer and is safe for concurrent use.
type Narrator struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewNarrator writes to out. Colour is used when out is a terminal and
// NO_COLOR is unset.
func NewNarrator(out io.Writer) *Narrator {
	return &Narrator{out: out, color: UseColor(out)}
}

// WithColor forces colour on or off
func (n *Narrator) WithColor(enabled bool) *Narrator {
	n.color = enabled
	return n
}

// Printf writes one tagged line
func (n *Narrator) Printf(level Level, format string, args ...interface{}) {
	tag := level.String() + ":"
	if n.color {
		tag = level.color() + tag + colorReset
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "[dextract] %s %s\n", tag, fmt.Sprintf(format, args...))
}

// Reading implements scan.Observer
func (n *Narrator) Reading(path string) {
	n.Printf(Information, "Reading %s", filepath.Base(path))
}

// Scanned implements scan.Observer
func (n *Narrator) Scanned(path string, deps types.DependencySet) {
	if deps.Len() == 0 {
		n.Printf(Information, "This file doesn't include any dependencies.")
	}
}

// Skipped implements scan.Observer
func (n *Narrator) Skipped(c classify.Candidate, d classify.Decision) {
	switch d.Outcome {
	case classify.SkipUnsupported:
		if hint := classify.LanguageHint(c.Path); hint != "" {
			n.Printf(Notice, "The file '%s' (%s) is not yet supported by this module.", c.Name, hint)
			return
		}
		n.Printf(Notice, "The file '%s' is not yet supported by this module.", c.Name)
	case classify.SkipTooLarge:
		n.Printf(Notice, "The file '%s' is too large and will be ignored.", c.Name)
	case classify.SkipNonSource:
		n.Printf(Information, "The file '%s' is not a source file.", c.Name)
	}
}

// Failed implements scan.Observer
func (n *Narrator) Failed(path string, err error) {
	n.Printf(Error, "The file '%s' could not be accessed: %v", filepath.Base(path), err)
}

// UseColor reports whether out is a terminal and NO_COLOR is unset
func UseColor(out io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
