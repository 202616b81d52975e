// Package classify decides, from a file's name and size alone, whether it
// should be scanned for dependencies.
package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"

	dxerrors "github.com/standardbeagle/dextract/internal/errors"
	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/types"
)

// Outcome is the classifier's verdict for one candidate
type Outcome uint8

const (
	Scan Outcome = iota
	SkipNonSource
	SkipTooLarge
	SkipUnsupported
)

func (o Outcome) String() string {
	switch o {
	case Scan:
		return "scan"
	case SkipNonSource:
		return "non-source"
	case SkipTooLarge:
		return "too-large"
	case SkipUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Err converts a skip outcome into a *errors.SkipError for reporting.
// Scan returns nil.
func (o Outcome) Err(path string) error {
	switch o {
	case SkipNonSource:
		return dxerrors.NewSkipError(dxerrors.ErrorTypeNonSource, path, "")
	case SkipTooLarge:
		return dxerrors.NewSkipError(dxerrors.ErrorTypeSizeLimit, path, "")
	case SkipUnsupported:
		return dxerrors.NewSkipError(dxerrors.ErrorTypeUnsupportedLanguage, path, "")
	default:
		return nil
	}
}

// Candidate is what the classifier knows about a file before reading it
type Candidate struct {
	Path string
	Name string
	Ext  string
	Size int64
}

// NewCandidate derives Name and Ext from path
func NewCandidate(path string, size int64) Candidate {
	name := filepath.Base(path)
	return Candidate{
		Path: path,
		Name: name,
		Ext:  filepath.Ext(name),
		Size: size,
	}
}

// Stem returns the file name without its extension ("Makefile.yaml" -> "Makefile")
func (c Candidate) Stem() string {
	return strings.TrimSuffix(c.Name, c.Ext)
}

// Decision carries the outcome and, for Scan, the rule to extract with
type Decision struct {
	Outcome Outcome
	Rule    *languages.Rule

	// ConfigFile marks well-known configuration files. Informational only.
	ConfigFile bool
}

// Options configures a Classifier. Nil tables fall back to the defaults.
type Options struct {
	IgnoredNames      []string
	IgnoredExtensions []string
	ConfigFileNames   []string
	MaxFileSize       int64
	Registry          *languages.Registry
}

// Classifier is immutable and safe for concurrent use
type Classifier struct {
	ignoredNames map[string]bool
	ignoredExts  map[string]bool
	configNames  map[string]bool
	maxFileSize  int64
	registry     *languages.Registry
}

// New builds a classifier from opts
func New(opts Options) *Classifier {
	if opts.IgnoredNames == nil {
		opts.IgnoredNames = DefaultIgnoredNames
	}
	if opts.IgnoredExtensions == nil {
		opts.IgnoredExtensions = DefaultIgnoredExtensions
	}
	if opts.ConfigFileNames == nil {
		opts.ConfigFileNames = DefaultConfigFileNames
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = types.DefaultMaxFileSize
	}
	if opts.Registry == nil {
		opts.Registry = languages.Default()
	}

	return &Classifier{
		ignoredNames: toSet(opts.IgnoredNames),
		ignoredExts:  toSet(opts.IgnoredExtensions),
		configNames:  toSet(opts.ConfigFileNames),
		maxFileSize:  opts.MaxFileSize,
		registry:     opts.Registry,
	}
}

// Classify applies, in order: ignored name, ignored extension, size ceiling,
// registry lookup. The first rule that matches decides.
func (c *Classifier) Classify(cand Candidate) Decision {
	d := Decision{ConfigFile: c.isConfigFile(cand)}

	switch {
	case c.ignoredNames[cand.Stem()] || c.ignoredNames[cand.Name]:
		d.Outcome = SkipNonSource
	case c.ignoredExts[cand.Ext]:
		d.Outcome = SkipNonSource
	case cand.Size >= c.maxFileSize:
		d.Outcome = SkipTooLarge
	default:
		rule, ok := c.registry.Resolve(cand.Ext)
		if !ok {
			d.Outcome = SkipUnsupported
			break
		}
		d.Outcome = Scan
		d.Rule = rule
	}
	return d
}

// MaxFileSize returns the configured size ceiling
func (c *Classifier) MaxFileSize() int64 {
	return c.maxFileSize
}

func (c *Classifier) isConfigFile(cand Candidate) bool {
	return c.configNames[cand.Name] || enry.IsConfiguration(cand.Name)
}

// LanguageHint names the language of a file the registry does not support,
// for diagnostics. It returns "" when the language is unknown.
func LanguageHint(path string) string {
	if lang, safe := enry.GetLanguageByExtension(path); safe && lang != "" {
		return lang
	}
	if lang, safe := enry.GetLanguageByFilename(path); safe && lang != "" {
		return lang
	}
	return ""
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}
