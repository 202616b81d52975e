package config

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/standardbeagle/dextract/internal/classify"
	"github.com/standardbeagle/dextract/internal/debug"
	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/scan"
	"github.com/standardbeagle/dextract/internal/types"
)

// FileName is the project and global configuration file name
const FileName = ".dextract.kdl"

type Config struct {
	Version   int
	Project   Project
	Scan      Scan
	Languages []string // empty means every built-in language

	IgnoredNames      []string
	IgnoredExtensions []string
	ConfigFileNames   []string

	Include []string
	Exclude []string
}

type Project struct {
	Root string
	Name string
}

type Scan struct {
	MaxFileSize          int64
	Strict               bool
	Verbose              bool
	Workers              int // 0 = auto-detect (NumCPU)
	FollowSymlinks       bool
	RespectGitignore     bool // Apply the root .gitignore as an extra exclusion layer
	DetectBuildArtifacts bool // Exclude output dirs named in package.json, Cargo.toml, ...
	Manifests            bool // Scan package.json instead of ignoring .json files
	WatchDebounceMs      int
}

// Default returns the built-in configuration rooted at the working directory
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return defaultRooted(cwd)
}

func defaultRooted(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Scan: Scan{
			MaxFileSize:     types.DefaultMaxFileSize,
			WatchDebounceMs: 300,
		},
		IgnoredNames:      slices.Clone(classify.DefaultIgnoredNames),
		IgnoredExtensions: slices.Clone(classify.DefaultIgnoredExtensions),
		ConfigFileNames:   slices.Clone(classify.DefaultConfigFileNames),
		Include:           []string{},
		Exclude:           slices.Clone(scan.DefaultExclude),
	}
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot reads ~/.dextract.kdl and the project file, the latter either
// at path or in rootDir. Project settings win; exclusions from both are kept.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			debug.LogConfig("loaded global config from %s\n", filepath.Join(homeDir, FileName))
			baseConfig = globalCfg
		}
	}

	var projectConfig *Config
	var err error
	if path != "" && filepath.Base(path) != FileName {
		projectConfig, err = LoadKDLFile(path, searchDir)
	} else if path != "" && filepath.Dir(path) != "." {
		projectConfig, err = LoadKDL(filepath.Dir(path))
	} else {
		projectConfig, err = LoadKDL(searchDir)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case baseConfig != nil && projectConfig != nil:
		return mergeConfigs(baseConfig, projectConfig), nil
	case projectConfig != nil:
		return projectConfig, nil
	case baseConfig != nil:
		baseConfig.Project.Root = absOr(searchDir)
		return baseConfig, nil
	}

	if rootDir != "" {
		return defaultRooted(absOr(rootDir)), nil
	}
	return Default(), nil
}

// mergeConfigs overlays project on base. Exclusions are unioned and a
// project without include patterns inherits the global ones.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		merged.Exclude = DeduplicatePatterns(append(slices.Clone(base.Exclude), project.Exclude...))
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// ScanOptions turns the configuration into scanner options for root, the
// path actually being scanned. Gitignore and build-artifact detection read
// files under root when it is a directory.
func (c *Config) ScanOptions(root string) (scan.Options, error) {
	registry, err := languages.Default().Subset(c.Languages...)
	if err != nil {
		return scan.Options{}, err
	}

	ignoredExts := c.IgnoredExtensions
	if c.Scan.Manifests {
		if ignoredExts == nil {
			ignoredExts = classify.DefaultIgnoredExtensions
		}
		ignoredExts = classify.WithoutExtension(ignoredExts, ".json")
	}

	opts := scan.Options{
		MaxFileSize:       c.Scan.MaxFileSize,
		Strict:            c.Scan.Strict,
		Verbose:           c.Scan.Verbose,
		Workers:           c.Scan.Workers,
		Registry:          registry,
		IgnoredNames:      c.IgnoredNames,
		IgnoredExtensions: ignoredExts,
		ConfigFileNames:   c.ConfigFileNames,
		Include:           c.Include,
		Exclude:           c.Exclude,
		FollowSymlinks:    c.Scan.FollowSymlinks,
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return opts, nil
	}

	if c.Scan.DetectBuildArtifacts {
		if detected := NewBuildArtifactDetector(root).DetectOutputDirectories(); len(detected) > 0 {
			debug.LogConfig("build artifact exclusions: %v\n", detected)
			opts.Exclude = DeduplicatePatterns(append(slices.Clone(c.excludeOrDefault()), detected...))
		}
	}

	if c.Scan.RespectGitignore {
		matcher := NewGitignoreMatcher()
		if err := matcher.LoadGitignore(root); err != nil {
			return scan.Options{}, err
		}
		if matcher.Len() > 0 {
			opts.Ignore = matcher
		}
	}

	return opts, nil
}

func (c *Config) excludeOrDefault() []string {
	if c.Exclude == nil {
		return scan.DefaultExclude
	}
	return c.Exclude
}

func absOr(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
