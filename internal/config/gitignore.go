package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreMatcher applies the patterns of a root .gitignore. Each line is
// translated to doublestar globs once; the last matching line decides.
type GitignoreMatcher struct {
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string // as written, without modifiers
	Negate    bool
	Directory bool
	Anchored  bool // leading slash or a slash in the middle

	glob string
}

// NewGitignoreMatcher creates an empty matcher
func NewGitignoreMatcher() *GitignoreMatcher {
	return &GitignoreMatcher{}
}

// LoadGitignore reads rootPath/.gitignore. A missing file is not an error.
func (gm *GitignoreMatcher) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	return gm.Read(file)
}

// Read adds every pattern line from r
func (gm *GitignoreMatcher) Read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		gm.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern adds one .gitignore line; blanks and comments are ignored
func (gm *GitignoreMatcher) AddPattern(line string) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	p := GitignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasPrefix(line, `\`) {
		line = line[1:] // \# and \! escape a literal first character
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Anchored = true
		line = line[1:]
	} else if strings.Contains(line, "/") {
		p.Anchored = true
	}
	if line == "" || !doublestar.ValidatePattern(line) {
		return
	}

	p.Pattern = line
	if p.Anchored || strings.HasPrefix(line, "**/") {
		p.glob = line
	} else {
		p.glob = "**/" + line
	}
	gm.patterns = append(gm.patterns, p)
}

// Len returns the number of usable patterns
func (gm *GitignoreMatcher) Len() int {
	return len(gm.patterns)
}

// ShouldIgnore implements scan.Ignorer for slash-separated paths relative
// to the directory holding the .gitignore
func (gm *GitignoreMatcher) ShouldIgnore(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")

	ignored := false
	for _, p := range gm.patterns {
		if p.matches(path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (p GitignorePattern) matches(path string, isDir bool) bool {
	if (isDir || !p.Directory) && match(p.glob, path) {
		return true
	}
	// anything below a matched directory
	for i := strings.LastIndexByte(path, '/'); i > 0; i = strings.LastIndexByte(path[:i], '/') {
		if match(p.glob, path[:i]) {
			return true
		}
	}
	return false
}

// ExclusionPatterns returns the non-negated patterns as exclude globs
func (gm *GitignoreMatcher) ExclusionPatterns() []string {
	var out []string
	for _, p := range gm.patterns {
		if p.Negate {
			continue
		}
		if p.Directory {
			out = append(out, p.glob+"/**")
			continue
		}
		out = append(out, p.glob)
	}
	return out
}

func match(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}
