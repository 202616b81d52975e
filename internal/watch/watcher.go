// Package watch reruns a dependency scan whenever files under the scanned
// root change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/dextract/internal/debug"
	"github.com/standardbeagle/dextract/internal/scan"
)

// DefaultDebounce is used when Options.Debounce is zero
const DefaultDebounce = 300 * time.Millisecond

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Options configures a Watcher
type Options struct {
	Debounce time.Duration

	// OnResult receives every completed rescan. changed reports whether the
	// dependency set differs from the previous scan.
	OnResult func(result *scan.Result, changed bool)
	// OnError receives rescan failures other than cancellation
	OnError func(err error)
	// OnBatch is called with the debounced paths before each rescan
	OnBatch func(events map[string]EventType)
}

// Watcher monitors a directory tree and rescans it after changes settle
type Watcher struct {
	watcher *fsnotify.Watcher
	scanner *scan.Scanner
	opts    Options
	root    string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	events chan event

	lastDigest uint64
	haveDigest bool

	statsMu sync.RWMutex
	stats   Stats
}

type event struct {
	path string
	typ  EventType
}

// Stats contains statistics about watching so far
type Stats struct {
	EventsProcessed int64
	Rescans         int64
	ErrorCount      int64
	LastEventTime   time.Time
	IsActive        bool
}

// New creates a watcher that rescans with scanner
func New(scanner *scan.Scanner, opts Options) (*Watcher, error) {
	if scanner == nil {
		return nil, errors.New("watch: nil scanner")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: fsw,
		scanner: scanner,
		opts:    opts,
		events:  make(chan event, 64),
	}, nil
}

// Start performs no scan itself; it registers watches below root and
// begins delivering rescans. Stop or cancelling ctx ends it.
func (w *Watcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	w.root = abs

	if !info.IsDir() {
		// a single file is watched through its directory
		if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", abs, err)
		}
	} else {
		debug.LogWatch("Starting file watcher for directory: %s\n", abs)
		if err := w.addWatches(abs); err != nil {
			return fmt.Errorf("failed to add watches starting from %s: %w", abs, err)
		}
	}

	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.processEvents()
	go w.debounce()

	w.setActive(true)
	return nil
}

// Stop ends watching and waits for an in-flight rescan to return
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.watcher.Close()
	w.wg.Wait()
	w.setActive(false)
	debug.LogWatch("File watcher stopped\n")
	return err
}

// Seed records the result of an initial scan so the first rescan can
// report whether anything changed. Call it before Start.
func (w *Watcher) Seed(result *scan.Result) {
	w.lastDigest = digest(result)
	w.haveDigest = true
}

// addWatches adds a watch to every non-excluded directory below root
func (w *Watcher) addWatches(root string) error {
	visitedDirs := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visitedDirs[realPath] {
			return filepath.SkipDir
		}
		visitedDirs[realPath] = true

		if path != root && w.excluded(path, true) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			debug.LogWatch("failed to add watch for %s: %v\n", path, err)
		}
		return nil
	})
}

// excluded applies the scanner's exclude globs and ignorer
func (w *Watcher) excluded(path string, isDir bool) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return true
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}

	opts := w.scanner.Options()
	for _, pattern := range opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if isDir {
			if ok, _ := doublestar.Match(pattern, rel+"/"); ok {
				return true
			}
		}
	}
	return opts.Ignore != nil && opts.Ignore.ShouldIgnore(rel, isDir)
}

// relevant reports whether a change at path can affect the result
func (w *Watcher) relevant(path string) bool {
	info, err := os.Stat(w.root)
	if err == nil && !info.IsDir() {
		return path == w.root
	}
	return !w.excluded(path, false)
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.LogWatch("File watcher error: %v\n", err)
			w.incrementStats(0, 0, 1)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	debug.LogWatch("received event %v for path %s\n", ev.Op, path)

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if ev.Op&fsnotify.Create != 0 && !w.excluded(path, true) {
			if err := w.addWatches(path); err != nil {
				debug.LogWatch("failed to watch new directory %s: %v\n", path, err)
			}
			// files may have landed before the watch existed
			w.queue(path, EventCreate)
		}
		return
	}

	if !w.relevant(path) {
		return
	}

	var typ EventType
	switch {
	case ev.Op&fsnotify.Create != 0:
		typ = EventCreate
	case ev.Op&fsnotify.Write != 0:
		typ = EventWrite
	case ev.Op&fsnotify.Remove != 0:
		typ = EventRemove
	case ev.Op&fsnotify.Rename != 0:
		typ = EventRename
	default:
		return
	}
	w.queue(path, typ)
}

func (w *Watcher) queue(path string, typ EventType) {
	select {
	case w.events <- event{path: path, typ: typ}:
	case <-w.ctx.Done():
	}
}

// debounce batches events until none arrive for the debounce interval,
// then rescans. Rescans never overlap.
func (w *Watcher) debounce() {
	defer w.wg.Done()

	pending := make(map[string]EventType)
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case ev := <-w.events:
			pending[ev.path] = ev.typ
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			batch := pending
			pending = make(map[string]EventType)
			w.flush(batch)
		}
	}
}

func (w *Watcher) flush(batch map[string]EventType) {
	if len(batch) == 0 {
		return
	}
	debug.LogWatch("Processing %d debounced file events\n", len(batch))
	w.incrementStats(int64(len(batch)), 0, 0)

	if w.opts.OnBatch != nil {
		w.opts.OnBatch(batch)
	}

	result, err := w.scanner.Scan(w.ctx, w.root)
	if err != nil {
		if w.ctx.Err() != nil {
			return
		}
		w.incrementStats(0, 0, 1)
		if w.opts.OnError != nil {
			w.opts.OnError(err)
		}
		return
	}
	w.incrementStats(0, 1, 0)

	d := digest(result)
	changed := !w.haveDigest || d != w.lastDigest
	w.lastDigest, w.haveDigest = d, true

	if w.opts.OnResult != nil {
		w.opts.OnResult(result, changed)
	}
}

// digest fingerprints the sorted dependency list
func digest(result *scan.Result) uint64 {
	h := xxhash.New()
	for _, dep := range result.Dependencies.Sorted() {
		_, _ = h.WriteString(dep)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func (w *Watcher) incrementStats(events, rescans, errs int64) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	w.stats.EventsProcessed += events
	w.stats.Rescans += rescans
	w.stats.ErrorCount += errs
	if events > 0 {
		w.stats.LastEventTime = time.Now()
	}
}

func (w *Watcher) setActive(active bool) {
	w.statsMu.Lock()
	w.stats.IsActive = active
	w.statsMu.Unlock()
}

// GetStats returns current watch statistics
func (w *Watcher) GetStats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return w.stats
}
