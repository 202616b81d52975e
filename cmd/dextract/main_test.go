package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/dextract/internal/config"
	"github.com/standardbeagle/dextract/internal/debug"
	"github.com/standardbeagle/dextract/internal/display"
	"github.com/standardbeagle/dextract/internal/version"
	"github.com/standardbeagle/dextract/testhelpers"
)

// runCLI runs the app in-process and returns stdout, stderr and the error
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"dextract"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestScanCommand(t *testing.T) {
	p := testhelpers.SampleProject(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default action", []string{p.Root()}, "local.h\nnumpy\nos\nvector\n"},
		{"scan subcommand", []string{"scan", p.Root()}, "local.h\nnumpy\nos\nvector\n"},
		{"strict keeps quoted names", []string{"scan", "--strict", p.Root()}, "local.h\nnumpy\nos\nvector\n"},
		{"language filter", []string{"scan", "-l", "python", p.Root()}, "numpy\nos\n"},
		{"single file", []string{"scan", p.Path("b.cpp")}, "local.h\nvector\n"},
		{"root flag", []string{"--root", p.Root(), "scan"}, "local.h\nnumpy\nos\nvector\n"},
		{"exclude", []string{"--exclude", "*.cpp", "scan", p.Root()}, "numpy\nos\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestScanCommandJSONStats(t *testing.T) {
	p := testhelpers.SampleProject(t).AddSizedFile("big.py", 2_000)

	out, _, err := runCLI(t, "scan", "--format", "json", "--stats", "--max-file-size", "1KB", p.Root())
	require.NoError(t, err)

	var report display.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"local.h", "numpy", "os", "vector"}, report.Dependencies)
	require.NotNil(t, report.Stats)
	assert.Equal(t, int64(4), report.Stats.Total)
	assert.Equal(t, int64(1), report.Stats.TooLarge)
	assert.Equal(t, int64(1000), report.Stats.MaxFileSize)
	assert.InDelta(t, 66.67, report.Stats.CoveragePercent, 0.01)
}

func TestScanCommandYAML(t *testing.T) {
	p := testhelpers.SampleProject(t)

	out, _, err := runCLI(t, "scan", "-f", "yaml", p.Root())
	require.NoError(t, err)
	assert.Contains(t, out, "dependencies:\n")
	assert.Contains(t, out, "- numpy\n")
}

func TestScanCommandVerbose(t *testing.T) {
	p := testhelpers.SampleProject(t)

	out, narration, err := runCLI(t, "scan", "-v", p.Root())
	require.NoError(t, err)

	assert.Contains(t, narration, "Reading a.py")
	assert.Contains(t, narration, "The file 'README' is not a source file.")
	assert.Contains(t, out, "Scan coverage: 100.0%")
	assert.Contains(t, out, "Dependencies found: 4")
}

func TestScanCommandErrors(t *testing.T) {
	p := testhelpers.SampleProject(t)

	t.Run("missing path exits 2", func(t *testing.T) {
		_, _, err := runCLI(t, "scan", filepath.Join(p.Root(), "nope"))
		require.Error(t, err)

		var exitErr cli.ExitCoder
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, exitInputPath, exitErr.ExitCode())
		assert.Contains(t, err.Error(), "not a file or a directory")
	})

	t.Run("unknown language", func(t *testing.T) {
		_, _, err := runCLI(t, "scan", "--lang", "pyhton", p.Root())
		assert.ErrorContains(t, err, "did you mean")
	})

	t.Run("bad size", func(t *testing.T) {
		_, _, err := runCLI(t, "scan", "--max-file-size", "lots", p.Root())
		assert.ErrorContains(t, err, "max-file-size")
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := runCLI(t, "scan", "--format", "xml", p.Root())
		assert.ErrorContains(t, err, "unknown output format")
	})
}

func TestScanCommandStrictDropsPathIncludes(t *testing.T) {
	p := testhelpers.SampleProject(t).
		AddFile("c.cpp", "#include \"./util.h\"\n#include \"/usr/include/stdio.h\"\n#include <map>\n")

	out, _, err := runCLI(t, "scan", p.Root())
	require.NoError(t, err)
	assert.Equal(t, "./util.h\n/usr/include/stdio.h\nlocal.h\nmap\nnumpy\nos\nvector\n", out)

	out, _, err = runCLI(t, "scan", "--strict", p.Root())
	require.NoError(t, err)
	assert.Equal(t, "local.h\nmap\nnumpy\nos\nvector\n", out)
}

func TestScanCommandReportsUnreadableFiles(t *testing.T) {
	p := testhelpers.SampleProject(t).
		AddBinaryFile("blob.c", []byte{0x7F, 'E', 'L', 'F', 0, 0, 0, 0})

	out, narration, err := runCLI(t, "scan", p.Root())
	require.NoError(t, err)
	assert.Equal(t, "local.h\nnumpy\nos\nvector\n", out)
	assert.Contains(t, narration, "1 files could not be read (rerun with --verbose for details)")

	_, narration, err = runCLI(t, "scan", "--verbose", p.Root())
	require.NoError(t, err)
	assert.Contains(t, narration, "The file 'blob.c' could not be accessed")
	assert.NotContains(t, narration, "could not be read (rerun")
}

func TestScanCommandUsesProjectConfig(t *testing.T) {
	p := testhelpers.SampleProject(t).
		AddFile("c.cpp", "#include \"./util.h\"\n").
		AddFile(config.FileName, "scan {\n    strict true\n}\nlanguages \"cpp\"\n")

	out, _, err := runCLI(t, "scan", p.Root())
	require.NoError(t, err)
	assert.Equal(t, "local.h\nvector\n", out)
}

func TestLanguagesCommand(t *testing.T) {
	out, _, err := runCLI(t, "languages", "--json")
	require.NoError(t, err)

	var langs []struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Extensions []string `json:"extensions"`
		Strategy   string   `json:"strategy"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &langs))
	assert.Len(t, langs, 6)

	out, _, err = runCLI(t, "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Python")
	assert.Contains(t, out, "grouped")
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)

	out, _, err := runCLI(t, "config", "init", "-o", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created")
	require.FileExists(t, cfgPath)

	_, _, err = runCLI(t, "config", "init", "-o", cfgPath)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = runCLI(t, "config", "init", "-o", cfgPath, "--force")
	require.NoError(t, err)

	out, _, err = runCLI(t, "--root", dir, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	out, _, err = runCLI(t, "--root", dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_file_size \"5MB\"")

	require.NoError(t, os.WriteFile(cfgPath, []byte("languages \"klingon\"\n"), 0644))
	_, _, err = runCLI(t, "--root", dir, "config", "validate")
	assert.ErrorContains(t, err, "unknown language")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
}

func TestStartDebugLog(t *testing.T) {
	closeLog, err := startDebugLog(false, io.Discard)
	require.NoError(t, err)
	closeLog()

	debug.SetMCPMode(true)
	t.Cleanup(func() { debug.SetMCPMode(false) })

	var stderr bytes.Buffer
	closeLog, err = startDebugLog(true, &stderr)
	require.NoError(t, err)

	logPath := strings.TrimSpace(strings.TrimPrefix(stderr.String(), "dextract: debug log at "))
	t.Cleanup(func() { os.Remove(logPath) })
	assert.True(t, debug.IsDebugEnabled())
	closeLog()
	assert.False(t, debug.IsDebugEnabled())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG:MCP] debug log opened, version "+version.Version)
}
