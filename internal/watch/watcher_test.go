package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/dextract/internal/extract"
	"github.com/standardbeagle/dextract/internal/scan"
	"github.com/standardbeagle/dextract/testhelpers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type rescan struct {
	deps    []string
	changed bool
}

func startWatcher(t *testing.T, root string, opts scan.Options) (*Watcher, <-chan rescan) {
	t.Helper()

	scanner := scan.New(opts)
	initial, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)

	results := make(chan rescan, 16)
	w, err := New(scanner, Options{
		Debounce: 20 * time.Millisecond,
		OnResult: func(r *scan.Result, changed bool) {
			results <- rescan{deps: r.Dependencies.Sorted(), changed: changed}
		},
	})
	require.NoError(t, err)

	w.Seed(initial)
	require.NoError(t, w.Start(context.Background(), root))
	t.Cleanup(func() { _ = w.Stop() })

	return w, results
}

func waitFor(t *testing.T, results <-chan rescan, pred func(rescan) bool) rescan {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-results:
			if pred(r) {
				return r
			}
		case <-deadline:
			t.Fatal("timed out waiting for rescan")
			return rescan{}
		}
	}
}

func TestWatcherRescansOnNewFile(t *testing.T) {
	p := testhelpers.NewProject(t).AddFile("a.py", "import os\n")

	w, results := startWatcher(t, p.Root(), scan.Options{Cache: extract.NewCache(0)})

	p.AddFile("b.py", "import numpy\n")

	r := waitFor(t, results, func(r rescan) bool { return len(r.deps) == 2 })
	assert.Equal(t, []string{"numpy", "os"}, r.deps)
	assert.True(t, r.changed)

	stats := w.GetStats()
	assert.True(t, stats.IsActive)
	assert.GreaterOrEqual(t, stats.Rescans, int64(1))
	assert.GreaterOrEqual(t, stats.EventsProcessed, int64(1))
}

func TestWatcherReportsUnchangedDependencies(t *testing.T) {
	p := testhelpers.NewProject(t).AddFile("a.py", "import os\n")

	_, results := startWatcher(t, p.Root(), scan.Options{})

	p.AddFile("a.py", "import os\n# comment\n")

	r := waitFor(t, results, func(rescan) bool { return true })
	assert.Equal(t, []string{"os"}, r.deps)
	assert.False(t, r.changed)
}

func TestWatcherRemovedFile(t *testing.T) {
	p := testhelpers.NewProject(t).
		AddFile("a.py", "import os\n").
		AddFile("b.py", "import sys\n")

	_, results := startWatcher(t, p.Root(), scan.Options{})

	p.Remove("b.py")

	r := waitFor(t, results, func(r rescan) bool { return len(r.deps) == 1 })
	assert.Equal(t, []string{"os"}, r.deps)
	assert.True(t, r.changed)
}

func TestWatcherNewDirectory(t *testing.T) {
	p := testhelpers.NewProject(t).AddFile("a.py", "import os\n")

	_, results := startWatcher(t, p.Root(), scan.Options{})

	p.AddFile("pkg/sub/c.go", "package sub\n\nimport \"fmt\"\n")

	r := waitFor(t, results, func(r rescan) bool { return len(r.deps) == 2 })
	assert.Equal(t, []string{"fmt", "os"}, r.deps)
}

func TestWatcherIgnoresExcludedPaths(t *testing.T) {
	p := testhelpers.NewProject(t).
		AddFile("a.py", "import os\n").
		AddDir("vendor")

	w, err := New(scan.New(scan.Options{Exclude: []string{"vendor/**"}}), Options{})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	require.NoError(t, w.Start(context.Background(), p.Root()))

	assert.True(t, w.excluded(p.Path("vendor/x.py"), false))
	assert.True(t, w.excluded(p.Path("vendor"), true))
	assert.False(t, w.excluded(p.Path("a.py"), false))
	assert.True(t, w.excluded("/somewhere/else.py", false))
}

func TestWatcherStopWithoutEvents(t *testing.T) {
	p := testhelpers.NewProject(t).AddFile("a.py", "import os\n")

	w, err := New(scan.New(scan.Options{}), Options{})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), p.Root()))
	require.NoError(t, w.Stop())
	assert.False(t, w.GetStats().IsActive)
}

func TestNewRejectsNilScanner(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "create", EventCreate.String())
	assert.Equal(t, "write", EventWrite.String())
	assert.Equal(t, "remove", EventRemove.String())
	assert.Equal(t, "rename", EventRename.String())
	assert.Equal(t, "unknown", EventType(9).String())
}
