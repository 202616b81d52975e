package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/dextract/internal/types"
)

func TestMergeConfigs_ExclusionsMerge(t *testing.T) {
	base := &Config{Exclude: []string{"**/node_modules/**", "**/vendor/**"}}
	project := &Config{Exclude: []string{"**/dist/**"}}

	merged := mergeConfigs(base, project)
	assert.Equal(t, []string{"**/node_modules/**", "**/vendor/**", "**/dist/**"}, merged.Exclude)
}

func TestMergeConfigs_ExclusionsDeduplication(t *testing.T) {
	base := &Config{Exclude: []string{"**/.git/**", "**/vendor/**"}}
	project := &Config{Exclude: []string{"**/.git/**", "**/dist/**"}}

	merged := mergeConfigs(base, project)
	assert.Equal(t, []string{"**/.git/**", "**/vendor/**", "**/dist/**"}, merged.Exclude)
}

func TestMergeConfigs_InclusionsProjectOverride(t *testing.T) {
	base := &Config{Include: []string{"*.go"}}
	project := &Config{Include: []string{"*.py"}}

	assert.Equal(t, []string{"*.py"}, mergeConfigs(base, project).Include)
}

func TestMergeConfigs_InclusionsUseBaseIfProjectEmpty(t *testing.T) {
	base := &Config{Include: []string{"*.go"}}
	project := &Config{Include: []string{}}

	assert.Equal(t, []string{"*.go"}, mergeConfigs(base, project).Include)
}

func TestMergeConfigs_ProjectSettingsTakePrecedence(t *testing.T) {
	base := &Config{Scan: Scan{MaxFileSize: 1_000, Strict: true, Workers: 8}}
	project := &Config{
		Project: Project{Name: "mine"},
		Scan:    Scan{MaxFileSize: 2_000, Workers: 2},
	}

	merged := mergeConfigs(base, project)
	assert.Equal(t, "mine", merged.Project.Name)
	assert.Equal(t, int64(2_000), merged.Scan.MaxFileSize)
	assert.Equal(t, 2, merged.Scan.Workers)
	assert.False(t, merged.Scan.Strict)
}

func TestMergeConfigs_DoesNotMutateInputs(t *testing.T) {
	baseExclude := make([]string, 1, 4)
	baseExclude[0] = "**/a/**"
	base := &Config{Exclude: baseExclude}
	project := &Config{Exclude: []string{"**/b/**"}}

	mergeConfigs(base, project)
	assert.Equal(t, []string{"**/a/**"}, base.Exclude)
	assert.Equal(t, "", baseExclude[:2][1])
}

func TestLoadWithRoot_MergesGlobalAndProjectConfigs(t *testing.T) {
	tmpHome := t.TempDir()
	tmpProject := t.TempDir()

	globalConfig := `
exclude {
    "**/node_modules/**"
    "**/vendor/**"
}

include {
    "**/*.go"
}

scan {
    max_file_size "1MB"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpHome, FileName), []byte(globalConfig), 0o644))

	projectConfig := `
project {
    root "."
    name "test-project"
}

exclude {
    "**/dist/**"
}

scan {
    max_file_size "3MB"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpProject, FileName), []byte(projectConfig), 0o644))

	t.Setenv("HOME", tmpHome)

	cfg, err := LoadWithRoot("", tmpProject)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Contains(t, cfg.Exclude, "**/node_modules/**", "Should include global exclusion")
	assert.Contains(t, cfg.Exclude, "**/vendor/**", "Should include global exclusion")
	assert.Contains(t, cfg.Exclude, "**/dist/**", "Should include project exclusion")
	assert.Equal(t, []string{"**/*.go"}, cfg.Include, "Project without includes inherits global ones")
	assert.Equal(t, int64(3_000_000), cfg.Scan.MaxFileSize, "Project max file size should override global")
	assert.Equal(t, "test-project", cfg.Project.Name)
	assert.Equal(t, tmpProject, cfg.Project.Root)
}

func TestLoadWithRoot_ProjectConfigOnly(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpProject := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpProject, FileName), []byte(`languages "python"`), 0o644))

	cfg, err := LoadWithRoot("", tmpProject)
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, cfg.Languages)
	assert.Equal(t, tmpProject, cfg.Project.Root)
}

func TestLoadWithRoot_GlobalConfigOnly(t *testing.T) {
	tmpHome := t.TempDir()
	tmpProject := t.TempDir()
	t.Setenv("HOME", tmpHome)

	require.NoError(t, os.WriteFile(filepath.Join(tmpHome, FileName), []byte("scan {\n    strict true\n}\n"), 0o644))

	cfg, err := LoadWithRoot("", tmpProject)
	require.NoError(t, err)
	assert.True(t, cfg.Scan.Strict)
	assert.Equal(t, tmpProject, cfg.Project.Root, "global config should be re-rooted at the project")
}

func TestLoadWithRoot_DefaultConfigFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpProject := t.TempDir()

	cfg, err := LoadWithRoot("", tmpProject)
	require.NoError(t, err)
	assert.Equal(t, tmpProject, cfg.Project.Root)
	assert.Equal(t, types.DefaultMaxFileSize, cfg.Scan.MaxFileSize)
	assert.Equal(t, []string{"**/.git/**"}, cfg.Exclude)
}

func TestLoadWithRoot_ExplicitPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpProject := t.TempDir()
	custom := filepath.Join(tmpProject, "ci.kdl")
	require.NoError(t, os.WriteFile(custom, []byte("scan {\n    workers 1\n}\n"), 0o644))

	cfg, err := LoadWithRoot(custom, tmpProject)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Scan.Workers)
}

func TestLoadWithRoot_BrokenProjectConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpProject := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpProject, FileName), []byte("scan {"), 0o644))

	_, err := LoadWithRoot("", tmpProject)
	assert.Error(t, err)
}
