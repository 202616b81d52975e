package languages

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hbollon/go-edlib"

	dxerrors "github.com/standardbeagle/dextract/internal/errors"
)

// minSuggestionSimilarity is the Jaro-Winkler score below which Suggest gives up
const minSuggestionSimilarity = 0.7

// Registry resolves file extensions to language rules. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	rules  []*Rule
	byExt  map[string]*Rule
	byName map[string]*Rule
}

// NewRegistry validates rules and builds a registry. Rules keep their order.
// Every extension must belong to exactly one rule.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{
		rules:  make([]*Rule, 0, len(rules)),
		byExt:  make(map[string]*Rule),
		byName: make(map[string]*Rule),
	}

	for i := range rules {
		rule := rules[i]
		rule.Extensions = append([]string(nil), rule.Extensions...)
		if err := rule.validate(); err != nil {
			return nil, dxerrors.NewConfigError("languages", rule.Name, err)
		}

		for _, ext := range rule.Extensions {
			if prev, ok := r.byExt[ext]; ok {
				return nil, dxerrors.NewConfigError("languages", ext,
					fmt.Errorf("extension %s claimed by both %s and %s", ext, prev.Name, rule.Name))
			}
		}
		for _, key := range []string{strings.ToLower(rule.Name), rule.Kind.String()} {
			if prev, ok := r.byName[key]; ok && prev.Kind != rule.Kind {
				return nil, dxerrors.NewConfigError("languages", rule.Name,
					fmt.Errorf("name %q claimed by both %s and %s", key, prev.Name, rule.Name))
			}
		}

		p := &rule
		r.rules = append(r.rules, p)
		for _, ext := range p.Extensions {
			r.byExt[ext] = p
		}
		r.byName[strings.ToLower(p.Name)] = p
		r.byName[p.Kind.String()] = p
	}

	return r, nil
}

// Default returns the built-in registry, constructed on first use.
var Default = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(builtinRules()...)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in language table: %v", err))
	}
	return r
})

// Resolve returns the rule for a file extension such as ".py".
// Lookup is exact and case-sensitive.
func (r *Registry) Resolve(ext string) (*Rule, bool) {
	rule, ok := r.byExt[ext]
	return rule, ok
}

// Rules returns the registered rules in registration order
func (r *Registry) Rules() []*Rule {
	return append([]*Rule(nil), r.rules...)
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	return len(r.rules)
}

// Lookup finds a rule by language name ("C++") or kind identifier ("cpp"),
// ignoring case.
func (r *Registry) Lookup(name string) (*Rule, bool) {
	rule, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return rule, ok
}

// Suggest returns the known language name closest to name, or "" when
// nothing is similar enough.
func (r *Registry) Suggest(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	best := ""
	var bestScore float32
	for key := range r.byName {
		score, err := edlib.StringsSimilarity(name, key, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		// map order is random; break ties lexically so results are stable
		if score > bestScore || (score == bestScore && key < best) {
			best, bestScore = key, score
		}
	}
	if bestScore < minSuggestionSimilarity {
		return ""
	}
	return best
}

// Subset returns a registry restricted to the named languages. An empty
// list returns r itself.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	seen := make(map[Kind]bool, len(names))
	picked := make([]Rule, 0, len(names))
	for _, name := range names {
		rule, ok := r.Lookup(name)
		if !ok {
			err := fmt.Errorf("unknown language %q", name)
			if s := r.Suggest(name); s != "" {
				err = fmt.Errorf("unknown language %q (did you mean %q?)", name, s)
			}
			return nil, dxerrors.NewConfigError("languages", name, err)
		}
		if seen[rule.Kind] {
			continue
		}
		seen[rule.Kind] = true
		picked = append(picked, *rule)
	}
	return NewRegistry(picked...)
}

// Extensions returns every registered extension
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for _, rule := range r.rules {
		out = append(out, rule.Extensions...)
	}
	return out
}
