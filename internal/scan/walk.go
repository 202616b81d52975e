package scan

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/dextract/internal/classify"
	"github.com/standardbeagle/dextract/internal/debug"
	dxerrors "github.com/standardbeagle/dextract/internal/errors"
)

// walker enumerates candidate files below a directory. It runs on a single
// goroutine; emit hands candidates to the worker pool.
type walker struct {
	ctx     context.Context
	opts    *Options
	visited map[string]bool
	emit    func(classify.Candidate) error
	errs    []error
}

func newWalker(ctx context.Context, opts *Options, emit func(classify.Candidate) error) *walker {
	return &walker{
		ctx:     ctx,
		opts:    opts,
		visited: make(map[string]bool),
		emit:    emit,
	}
}

// walk visits dir, whose path relative to the scan root is relBase ("" for the root)
func (w *walker) walk(dir, relBase string) error {
	return filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if ctxErr := w.ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			debug.LogScan("walk error for %s: %v\n", p, err)
			w.errs = append(w.errs, dxerrors.NewAccessError(p, err))
			return nil
		}

		rel := relBase
		if r, relErr := filepath.Rel(dir, p); relErr == nil && r != "." {
			rel = path.Join(relBase, filepath.ToSlash(r))
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
			if p != dir && w.excluded(rel, true) {
				debug.LogScan("pruning %s\n", rel)
				return filepath.SkipDir
			}
			if w.seen(p) {
				debug.LogScan("cycle detected, skipping already visited %s\n", p)
				return filepath.SkipDir
			}
			return nil

		case mode&os.ModeSymlink != 0:
			return w.symlink(p, rel)

		case mode.IsRegular():
			if w.excluded(rel, false) {
				return nil
			}
			return w.emit(classify.NewCandidate(p, info.Size()))

		default:
			debug.LogScan("skipping special file %s (%s)\n", p, mode.Type())
			return nil
		}
	})
}

// symlink resolves a link found during the walk. Links to files are scanned;
// links to directories are followed only with FollowSymlinks.
func (w *walker) symlink(p, rel string) error {
	target, err := os.Stat(p)
	if err != nil {
		debug.LogScan("dangling symlink %s: %v\n", p, err)
		w.errs = append(w.errs, dxerrors.NewAccessError(p, err))
		return nil
	}

	switch {
	case target.IsDir():
		if !w.opts.FollowSymlinks || w.excluded(rel, true) {
			return nil
		}
		// filepath.Walk does not descend into a symlinked root
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			w.errs = append(w.errs, dxerrors.NewAccessError(p, err))
			return nil
		}
		return w.walk(resolved, rel)
	case target.Mode().IsRegular():
		if w.excluded(rel, false) {
			return nil
		}
		return w.emit(classify.NewCandidate(p, target.Size()))
	default:
		return nil
	}
}

// seen records the real path of a directory and reports whether it was
// already visited.
func (w *walker) seen(dir string) bool {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if w.visited[resolved] {
		return true
	}
	w.visited[resolved] = true
	return false
}

// excluded applies exclude globs, the ignorer and, for files, include globs
func (w *walker) excluded(rel string, isDir bool) bool {
	if rel == "" {
		return false
	}

	candidates := []string{rel}
	if isDir {
		candidates = append(candidates, rel+"/")
	}
	for _, pattern := range w.opts.Exclude {
		for _, c := range candidates {
			if match(pattern, c) {
				return true
			}
		}
	}

	if w.opts.Ignore != nil && w.opts.Ignore.ShouldIgnore(rel, isDir) {
		return true
	}

	if isDir || len(w.opts.Include) == 0 {
		return false
	}
	for _, pattern := range w.opts.Include {
		if match(pattern, rel) {
			return false
		}
	}
	return true
}

func match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
