package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dxerrors "github.com/standardbeagle/dextract/internal/errors"
	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/types"
)

func TestClassify(t *testing.T) {
	c := New(Options{})
	big := types.DefaultMaxFileSize

	tests := []struct {
		name     string
		path     string
		size     int64
		want     Outcome
		wantKind languages.Kind
	}{
		{"python source", "src/a.py", 100, Scan, languages.KindPython},
		{"cpp source", "b.cpp", 10, Scan, languages.KindCPP},
		{"go source", "cmd/main.go", 10, Scan, languages.KindGo},
		{"readme", "README", 10, SkipNonSource, 0},
		{"readme with extension", "docs/README.md", 10, SkipNonSource, 0},
		{"dotfile", ".gitignore", 10, SkipNonSource, 0},
		{"ignored extension", "config.yaml", 10, SkipNonSource, 0},
		{"manifest ignored by default", "package.json", 10, SkipNonSource, 0},
		{"ignored name beats size", "Makefile.yaml", big * 2, SkipNonSource, 0},
		{"ignored extension beats size", "huge.csv", big * 2, SkipNonSource, 0},
		{"too large", "gen.go", big + 1, SkipTooLarge, 0},
		{"size equal to ceiling", "gen.py", big, SkipTooLarge, 0},
		{"just under ceiling", "ok.py", big - 1, Scan, languages.KindPython},
		{"size beats unsupported", "huge.rs", big, SkipTooLarge, 0},
		{"unsupported", "lib.rs", 10, SkipUnsupported, 0},
		{"no extension", "bin/tool", 10, SkipUnsupported, 0},
		{"extension is case sensitive", "SCRIPT.PY", 10, SkipUnsupported, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Classify(NewCandidate(tt.path, tt.size))
			assert.Equal(t, tt.want, d.Outcome, "outcome %s", d.Outcome)
			if tt.want == Scan {
				require.NotNil(t, d.Rule)
				assert.Equal(t, tt.wantKind, d.Rule.Kind)
			} else {
				assert.Nil(t, d.Rule)
			}
		})
	}
}

func TestClassifyCustomTables(t *testing.T) {
	c := New(Options{
		IgnoredNames:      []string{"vendor_stub"},
		IgnoredExtensions: WithoutExtension(DefaultIgnoredExtensions, ".json"),
		MaxFileSize:       1000,
	})

	d := c.Classify(NewCandidate("package.json", 500))
	require.Equal(t, Scan, d.Outcome)
	assert.Equal(t, languages.KindJavaScriptManifest, d.Rule.Kind)

	assert.Equal(t, SkipNonSource, c.Classify(NewCandidate("vendor_stub.go", 1)).Outcome)
	// README is not in the custom name table
	assert.Equal(t, SkipUnsupported, c.Classify(NewCandidate("README", 1)).Outcome)
	assert.Equal(t, SkipTooLarge, c.Classify(NewCandidate("a.go", 1000)).Outcome)
	assert.Equal(t, int64(1000), c.MaxFileSize())
}

func TestClassifyRestrictedRegistry(t *testing.T) {
	reg, err := languages.Default().Subset("python")
	require.NoError(t, err)
	c := New(Options{Registry: reg})

	assert.Equal(t, Scan, c.Classify(NewCandidate("a.py", 1)).Outcome)
	assert.Equal(t, SkipUnsupported, c.Classify(NewCandidate("a.go", 1)).Outcome)
}

func TestCandidate(t *testing.T) {
	cand := NewCandidate("/repo/build/Makefile.yaml", 42)
	assert.Equal(t, "Makefile.yaml", cand.Name)
	assert.Equal(t, ".yaml", cand.Ext)
	assert.Equal(t, "Makefile", cand.Stem())

	dot := NewCandidate("/repo/.gitignore", 1)
	assert.Equal(t, ".gitignore", dot.Ext)
	assert.Equal(t, "", dot.Stem())
}

func TestConfigFileFlag(t *testing.T) {
	c := New(Options{})

	assert.True(t, c.Classify(NewCandidate("Dockerfile", 1)).ConfigFile)
	assert.True(t, c.Classify(NewCandidate(".editorconfig", 1)).ConfigFile)
	assert.False(t, c.Classify(NewCandidate("main.go", 1)).ConfigFile)

	// informational only
	d := c.Classify(NewCandidate("docker-compose.yml", 1))
	assert.True(t, d.ConfigFile)
	assert.Equal(t, SkipNonSource, d.Outcome)
}

func TestOutcomeErr(t *testing.T) {
	assert.NoError(t, Scan.Err("a.go"))

	tests := map[Outcome]dxerrors.ErrorType{
		SkipNonSource:   dxerrors.ErrorTypeNonSource,
		SkipTooLarge:    dxerrors.ErrorTypeSizeLimit,
		SkipUnsupported: dxerrors.ErrorTypeUnsupportedLanguage,
	}
	for outcome, wantType := range tests {
		err := outcome.Err("x")
		var skip *dxerrors.SkipError
		require.True(t, errors.As(err, &skip), outcome.String())
		assert.Equal(t, wantType, skip.Type)
	}
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

func TestLanguageHint(t *testing.T) {
	assert.Equal(t, "Swift", LanguageHint("App.swift"))
	assert.Equal(t, "", LanguageHint("data.zzzunknown"))
}

func TestWithoutExtension(t *testing.T) {
	got := WithoutExtension([]string{".a", ".json", ".b"}, ".json")
	assert.Equal(t, []string{".a", ".b"}, got)
	assert.Contains(t, DefaultIgnoredExtensions, ".json")
}
