// Build output detection from package.json, tsconfig.json, Cargo.toml and
// pyproject.toml. Generated code there would otherwise be scanned for
// dependencies alongside the real sources.
package config

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds build output directories under a project root
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a detector for projectRoot
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns exclude globs such as "**/dist/**" for
// every output directory the build files name
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, bad.detectJavaScriptOutputs()...)
	dirs = append(dirs, bad.detectRustOutputs()...)
	dirs = append(dirs, bad.detectPythonOutputs()...)

	patterns := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if p := outputGlob(d); p != "" {
			patterns = append(patterns, p)
		}
	}
	return DeduplicatePatterns(patterns)
}

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
	Build   struct {
		OutDir string `json:"outDir"`
	} `json:"build"`
}

type tsconfigJSON struct {
	CompilerOptions struct {
		OutDir string `json:"outDir"`
	} `json:"compilerOptions"`
}

func (bad *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	var dirs []string

	var pkg packageJSON
	if bad.readJSON("package.json", &pkg) {
		for _, script := range pkg.Scripts {
			dirs = append(dirs, outDirFlags(script)...)
		}
		dirs = append(dirs, pkg.Build.OutDir)
	}

	var ts tsconfigJSON
	if bad.readJSON("tsconfig.json", &ts) {
		dirs = append(dirs, ts.CompilerOptions.OutDir)
	}

	return dirs
}

// outDirFlags pulls "--outDir dist" style arguments out of a script line
func outDirFlags(script string) []string {
	var dirs []string
	parts := strings.Fields(script)
	for i, part := range parts {
		switch {
		case (part == "--outDir" || part == "-outDir" || part == "--out-dir") && i+1 < len(parts):
			dirs = append(dirs, strings.Trim(parts[i+1], `"'`))
		case strings.HasPrefix(part, "--outDir="):
			dirs = append(dirs, strings.Trim(strings.TrimPrefix(part, "--outDir="), `"'`))
		}
	}
	return dirs
}

type cargoTOML struct {
	Build struct {
		TargetDir string `toml:"target-dir"`
	} `toml:"build"`
	Profile map[string]struct {
		TargetDir string `toml:"target-dir"`
	} `toml:"profile"`
}

func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	var cargo cargoTOML
	if !bad.readTOML("Cargo.toml", &cargo) {
		return nil
	}

	dirs := []string{cargo.Build.TargetDir}
	for _, profile := range cargo.Profile {
		dirs = append(dirs, profile.TargetDir)
	}
	return dirs
}

type pyprojectTOML struct {
	Tool struct {
		Poetry struct {
			Build struct {
				TargetDir string `toml:"target-dir"`
			} `toml:"build"`
		} `toml:"poetry"`
		Hatch struct {
			Build struct {
				Directory string `toml:"directory"`
			} `toml:"build"`
		} `toml:"hatch"`
	} `toml:"tool"`
}

func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	var py pyprojectTOML
	if !bad.readTOML("pyproject.toml", &py) {
		return nil
	}
	return []string{py.Tool.Poetry.Build.TargetDir, py.Tool.Hatch.Build.Directory}
}

func (bad *BuildArtifactDetector) readJSON(name string, v interface{}) bool {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (bad *BuildArtifactDetector) readTOML(name string, v interface{}) bool {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
	if err != nil {
		return false
	}
	return toml.Unmarshal(data, v) == nil
}

// outputGlob turns "./dist/" into "**/dist/**". Paths leaving the project
// are dropped.
func outputGlob(dir string) string {
	dir = strings.TrimSpace(filepath.ToSlash(dir))
	if dir == "" {
		return ""
	}
	dir = path.Clean(strings.TrimPrefix(dir, "./"))
	if dir == "." || dir == "/" || strings.HasPrefix(dir, "../") || dir == ".." || path.IsAbs(dir) {
		return ""
	}
	return "**/" + dir + "/**"
}

// DeduplicatePatterns removes duplicate patterns, keeping first occurrences
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
