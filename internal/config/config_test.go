package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/dextract/internal/classify"
	"github.com/standardbeagle/dextract/internal/scan"
	"github.com/standardbeagle/dextract/internal/types"
	"github.com/standardbeagle/dextract/testhelpers"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.Project.Root)
	assert.Equal(t, types.DefaultMaxFileSize, cfg.Scan.MaxFileSize)
	assert.Equal(t, scan.DefaultExclude, cfg.Exclude)

	// tables are copies
	cfg.IgnoredNames[0] = "changed"
	assert.NotEqual(t, "changed", classify.DefaultIgnoredNames[0])
}

func TestScanOptions_Basic(t *testing.T) {
	cfg := defaultRooted("/unused")
	cfg.Scan.Strict = true
	cfg.Scan.Workers = 2
	cfg.Languages = []string{"go"}

	opts, err := cfg.ScanOptions(t.TempDir())
	require.NoError(t, err)

	assert.True(t, opts.Strict)
	assert.Equal(t, 2, opts.Workers)
	require.NotNil(t, opts.Registry)
	assert.Equal(t, 1, opts.Registry.Len())
	assert.Nil(t, opts.Ignore, "gitignore is off by default")
	assert.Contains(t, opts.IgnoredExtensions, ".json")
}

func TestScanOptions_UnknownLanguage(t *testing.T) {
	cfg := defaultRooted("/unused")
	cfg.Languages = []string{"cobol"}

	_, err := cfg.ScanOptions(t.TempDir())
	assert.Error(t, err)
}

func TestScanOptions_Manifests(t *testing.T) {
	cfg := defaultRooted("/unused")
	cfg.Scan.Manifests = true

	opts, err := cfg.ScanOptions(t.TempDir())
	require.NoError(t, err)
	assert.NotContains(t, opts.IgnoredExtensions, ".json")
	assert.Contains(t, opts.IgnoredExtensions, ".png")
}

func TestScanOptions_SingleFileRootSkipsDetection(t *testing.T) {
	p := testhelpers.NewProject(t).
		AddFile(".gitignore", "*.py\n").
		AddFile("a.py", "import os\n")

	cfg := defaultRooted(p.Root())
	cfg.Scan.RespectGitignore = true

	opts, err := cfg.ScanOptions(p.Path("a.py"))
	require.NoError(t, err)
	assert.Nil(t, opts.Ignore)
}

func TestScanOptions_EndToEnd(t *testing.T) {
	p := testhelpers.NewProject(t).
		AddFile(".gitignore", "generated/\n").
		AddFile("tsconfig.json", `{"compilerOptions": {"outDir": "lib"}}`).
		AddFile("package.json", `{"dependencies": {"express": "^4.0.0"}}`).
		AddFile("src/main.py", "import requests\n").
		AddFile("generated/stub.py", "import grpc\n").
		AddFile("lib/index.cpp", "#include <vector>\n")

	cfg := defaultRooted(p.Root())
	cfg.Scan.RespectGitignore = true
	cfg.Scan.DetectBuildArtifacts = true
	cfg.Scan.Manifests = true

	opts, err := cfg.ScanOptions(p.Root())
	require.NoError(t, err)
	assert.Contains(t, opts.Exclude, "**/.git/**")
	assert.Contains(t, opts.Exclude, "**/lib/**")
	require.NotNil(t, opts.Ignore)

	result, err := scan.New(opts).Scan(context.Background(), p.Root())
	require.NoError(t, err)

	assert.Equal(t, []string{"express", "requests"}, result.Dependencies.Sorted())
}
