package languages

import (
	"fmt"
	"regexp"
	"strings"
)

// Capture group names every rule pattern must declare.
const (
	DependencyGroup = "dependency"
	BlockGroup      = "block"
)

// Kind identifies a supported language. The set is closed: adding a language
// means adding a Kind and a Rule to the built-in table.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindC
	KindCPP
	KindGo
	KindJava
	KindPython
	KindJavaScriptManifest
)

var kindIDs = map[Kind]string{
	KindUnknown:            "unknown",
	KindC:                  "c",
	KindCPP:                "cpp",
	KindGo:                 "go",
	KindJava:               "java",
	KindPython:             "python",
	KindJavaScriptManifest: "javascript",
}

// String returns the stable identifier used in config files and tool arguments
func (k Kind) String() string {
	if id, ok := kindIDs[k]; ok {
		return id
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Patterns holds the compiled expressions of a rule in named slots.
// A direct rule sets Regular and optionally Strict; a grouped rule sets
// Container and Internal. Mixed shapes are rejected by NewRegistry.
type Patterns struct {
	Regular   *regexp.Regexp
	Strict    *regexp.Regexp
	Container *regexp.Regexp
	Internal  *regexp.Regexp
}

// Rule binds a language's file extensions to its import patterns.
// Rules are not modified after registration.
type Rule struct {
	Kind       Kind
	Name       string
	Extensions []string
	Patterns   Patterns
}

// Grouped reports whether the rule uses two-stage block extraction
func (r *Rule) Grouped() bool {
	return r.Patterns.Container != nil
}

// HasStrict reports whether strict mode changes this rule's results
func (r *Rule) HasStrict() bool {
	return !r.Grouped() && r.Patterns.Strict != nil
}

// Shape describes the rule's extraction strategy for listings
func (r *Rule) Shape() string {
	switch {
	case r.Grouped():
		return "grouped"
	case r.HasStrict():
		return "direct+strict"
	default:
		return "direct"
	}
}

func (r *Rule) validate() error {
	if r.Kind == KindUnknown {
		return fmt.Errorf("rule %q has no kind", r.Name)
	}
	if r.Name == "" {
		return fmt.Errorf("rule for kind %s has no name", r.Kind)
	}
	if len(r.Extensions) == 0 {
		return fmt.Errorf("rule %q has no extensions", r.Name)
	}
	for _, ext := range r.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("rule %q: extension %q must start with a dot", r.Name, ext)
		}
	}

	p := r.Patterns
	direct := p.Regular != nil || p.Strict != nil
	grouped := p.Container != nil || p.Internal != nil
	switch {
	case direct && grouped:
		return fmt.Errorf("rule %q mixes direct and grouped patterns", r.Name)
	case grouped:
		if p.Container == nil || p.Internal == nil {
			return fmt.Errorf("rule %q: grouped rules need both container and internal patterns", r.Name)
		}
		if err := requireGroup(p.Container, BlockGroup); err != nil {
			return fmt.Errorf("rule %q container: %w", r.Name, err)
		}
		if err := requireGroup(p.Internal, DependencyGroup); err != nil {
			return fmt.Errorf("rule %q internal: %w", r.Name, err)
		}
	case direct:
		if p.Regular == nil {
			return fmt.Errorf("rule %q: strict pattern without a regular pattern", r.Name)
		}
		if err := requireGroup(p.Regular, DependencyGroup); err != nil {
			return fmt.Errorf("rule %q regular: %w", r.Name, err)
		}
		if p.Strict != nil {
			if err := requireGroup(p.Strict, DependencyGroup); err != nil {
				return fmt.Errorf("rule %q strict: %w", r.Name, err)
			}
		}
	default:
		return fmt.Errorf("rule %q has no patterns", r.Name)
	}
	return nil
}

func requireGroup(re *regexp.Regexp, name string) error {
	if re.SubexpIndex(name) < 0 {
		return fmt.Errorf("pattern %q has no capture group named %q", re.String(), name)
	}
	return nil
}
