package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestBuildArtifactDetector_JavaScript(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{
  "name": "web",
  "scripts": {"build": "tsc --outDir lib", "bundle": "esbuild src/index.ts --outDir=./bundle"},
  "build": {"outDir": "dist"},
  "dependencies": {"react": "^18.0.0"}
}`)
	writeFile(t, dir, "tsconfig.json", `{"compilerOptions": {"outDir": "./out/"}}`)

	got := NewBuildArtifactDetector(dir).DetectOutputDirectories()
	assert.ElementsMatch(t, []string{"**/lib/**", "**/bundle/**", "**/dist/**", "**/out/**"}, got)
}

func TestBuildArtifactDetector_Rust(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", `
[package]
name = "tool"

[build]
target-dir = "cargo-out"

[profile.release]
target-dir = "release-out"
`)

	got := NewBuildArtifactDetector(dir).DetectOutputDirectories()
	assert.ElementsMatch(t, []string{"**/cargo-out/**", "**/release-out/**"}, got)
}

func TestBuildArtifactDetector_Python(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", `
[tool.hatch.build]
directory = "wheelhouse"
`)

	assert.Equal(t, []string{"**/wheelhouse/**"}, NewBuildArtifactDetector(dir).DetectOutputDirectories())
}

func TestBuildArtifactDetector_IgnoresBrokenAndEscapingDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{not json`)
	writeFile(t, dir, "tsconfig.json", `{"compilerOptions": {"outDir": "../elsewhere"}}`)
	writeFile(t, dir, "Cargo.toml", `[build
target-dir = "x"`)

	assert.Empty(t, NewBuildArtifactDetector(dir).DetectOutputDirectories())
}

func TestBuildArtifactDetector_NoBuildFiles(t *testing.T) {
	assert.Empty(t, NewBuildArtifactDetector(t.TempDir()).DetectOutputDirectories())
}

func TestOutputGlob(t *testing.T) {
	tests := map[string]string{
		"dist":      "**/dist/**",
		"./dist/":   "**/dist/**",
		"a/b":       "**/a/b/**",
		"":          "",
		".":         "",
		"..":        "",
		"../x":      "",
		"/abs/path": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, outputGlob(in), "input %q", in)
	}
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, DeduplicatePatterns([]string{"a", "b", "a", "c", "b"}))
}
