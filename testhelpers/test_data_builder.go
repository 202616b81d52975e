// Package testhelpers provides shared fixtures for dextract tests
package testhelpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ProjectBuilder lays out a throwaway source tree under t.TempDir().
//
//	root := testhelpers.NewProject(t).
//		AddFile("a.py", "import os\n").
//		AddSizedFile("big.go", 6_000_000).
//		Build()
type ProjectBuilder struct {
	t    testing.TB
	root string
}

// NewProject creates a builder rooted in a fresh temporary directory
func NewProject(t testing.TB) *ProjectBuilder {
	t.Helper()
	return &ProjectBuilder{
		t:    t,
		root: t.TempDir(),
	}
}

// Root returns the project directory
func (b *ProjectBuilder) Root() string {
	return b.root
}

// AddFile writes content to a slash-separated path relative to the root
func (b *ProjectBuilder) AddFile(rel, content string) *ProjectBuilder {
	b.t.Helper()
	b.write(rel, []byte(content))
	return b
}

// AddSizedFile writes a file of exactly size bytes of filler text
func (b *ProjectBuilder) AddSizedFile(rel string, size int) *ProjectBuilder {
	b.t.Helper()
	b.write(rel, []byte(strings.Repeat("x", size)))
	return b
}

// AddBinaryFile writes raw bytes
func (b *ProjectBuilder) AddBinaryFile(rel string, content []byte) *ProjectBuilder {
	b.t.Helper()
	b.write(rel, content)
	return b
}

// AddDir creates an empty directory
func (b *ProjectBuilder) AddDir(rel string) *ProjectBuilder {
	b.t.Helper()
	if err := os.MkdirAll(b.Path(rel), 0755); err != nil {
		b.t.Fatalf("mkdir %s: %v", rel, err)
	}
	return b
}

// AddSymlink creates a link at rel pointing to target (absolute, or relative to the link)
func (b *ProjectBuilder) AddSymlink(rel, target string) *ProjectBuilder {
	b.t.Helper()
	link := b.Path(rel)
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		b.t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.Symlink(target, link); err != nil {
		b.t.Skipf("symlinks unsupported here: %v", err)
	}
	return b
}

// Remove deletes a file or directory
func (b *ProjectBuilder) Remove(rel string) *ProjectBuilder {
	b.t.Helper()
	if err := os.RemoveAll(b.Path(rel)); err != nil {
		b.t.Fatalf("remove %s: %v", rel, err)
	}
	return b
}

// Path returns the absolute path of rel
func (b *ProjectBuilder) Path(rel string) string {
	return filepath.Join(b.root, filepath.FromSlash(rel))
}

// Build returns the project root
func (b *ProjectBuilder) Build() string {
	return b.root
}

// SampleProject lays out the canonical mixed-language fixture:
// a.py, b.cpp and README.
func SampleProject(t testing.TB) *ProjectBuilder {
	t.Helper()
	return NewProject(t).
		AddFile("a.py", "import os\nimport numpy\n").
		AddFile("b.cpp", "#include <vector>\n#include \"local.h\"\n").
		AddFile("README", "sample project\n")
}

func (b *ProjectBuilder) write(rel string, content []byte) {
	b.t.Helper()
	p := b.Path(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		b.t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(p, content, 0644); err != nil {
		b.t.Fatalf("write %s: %v", rel, err)
	}
}
