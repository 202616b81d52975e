// Package extract pulls dependency names out of file content using a
// language rule's patterns.
package extract

import (
	"fmt"
	"os"
	"regexp"

	dxerrors "github.com/standardbeagle/dextract/internal/errors"
	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/types"
)

// Extract returns the dependency names referenced by content.
//
// Direct rules apply the strict pattern when strict is set and the rule has
// one, otherwise the regular pattern. Grouped rules locate every container
// block and apply the internal pattern to each; strict has no effect on them.
// No match yields an empty set.
func Extract(content []byte, rule *languages.Rule, strict bool) types.DependencySet {
	deps := types.NewDependencySet()
	if len(content) == 0 || rule == nil {
		return deps
	}

	if rule.Grouped() {
		extractGrouped(content, rule, deps)
	} else {
		extractDirect(content, rule, strict, deps)
	}
	return deps
}

func extractDirect(content []byte, rule *languages.Rule, strict bool, deps types.DependencySet) {
	re := rule.Patterns.Regular
	if strict && rule.Patterns.Strict != nil {
		re = rule.Patterns.Strict
	}
	collect(re, content, deps)
}

func extractGrouped(content []byte, rule *languages.Rule, deps types.DependencySet) {
	container := rule.Patterns.Container
	blockIdx := container.SubexpIndex(languages.BlockGroup)
	for _, m := range container.FindAllSubmatch(content, -1) {
		if block := m[blockIdx]; len(block) > 0 {
			collect(rule.Patterns.Internal, block, deps)
		}
	}
}

// collect adds the dependency capture of every match of re in text
func collect(re *regexp.Regexp, text []byte, deps types.DependencySet) {
	idx := re.SubexpIndex(languages.DependencyGroup)
	for _, m := range re.FindAllSubmatch(text, -1) {
		deps.Add(string(m[idx]))
	}
}

// ReadFile reads a candidate's content. Read failures and binary content are
// reported as *errors.AccessError.
func ReadFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, dxerrors.NewAccessError(path, err)
	}
	if kind := binaryKind(content); kind != "" {
		return nil, dxerrors.NewAccessError(path, fmt.Errorf("%w (%s)", dxerrors.ErrBinaryContent, kind))
	}
	return content, nil
}
