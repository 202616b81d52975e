// Package scan walks a file or directory tree and aggregates the dependencies
// of every recognised source file.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/dextract/internal/classify"
	"github.com/standardbeagle/dextract/internal/debug"
	dxerrors "github.com/standardbeagle/dextract/internal/errors"
	"github.com/standardbeagle/dextract/internal/extract"
	"github.com/standardbeagle/dextract/internal/types"
)

// Scanner runs dependency scans. It holds no state between calls and may be
// used concurrently.
type Scanner struct {
	opts       Options
	classifier *classify.Classifier
}

// New creates a scanner. Unset options take their defaults.
func New(opts Options) *Scanner {
	opts = opts.withDefaults()
	return &Scanner{
		opts: opts,
		classifier: classify.New(classify.Options{
			IgnoredNames:      opts.IgnoredNames,
			IgnoredExtensions: opts.IgnoredExtensions,
			ConfigFileNames:   opts.ConfigFileNames,
			MaxFileSize:       opts.MaxFileSize,
			Registry:          opts.Registry,
		}),
	}
}

// Options returns the effective options
func (s *Scanner) Options() Options {
	return s.opts
}

// partial is one worker's share of the result, merged after the pool drains
type partial struct {
	deps  types.DependencySet
	stats Stats
	errs  []error
}

// Scan extracts the dependencies of root, which may be a single file or a
// directory. A root that does not exist or is a special file yields an
// *errors.InputPathError and no result. Unreadable files are counted and
// collected in Result.Errors without stopping the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, dxerrors.NewInputPathError(root, err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil, dxerrors.NewSpecialFileError(root, info.Mode())
	}

	debug.LogScan("scanning %s (workers=%d, strict=%v, max=%d)\n", root, s.opts.Workers, s.opts.Strict, s.opts.MaxFileSize)

	g, gctx := errgroup.WithContext(ctx)
	candidates := make(chan classify.Candidate, s.opts.Workers*4)

	w := newWalker(gctx, &s.opts, func(c classify.Candidate) error {
		select {
		case candidates <- c:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	g.Go(func() error {
		defer close(candidates)
		if !info.IsDir() {
			return w.emit(classify.NewCandidate(root, info.Size()))
		}
		dir := root
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			dir = resolved
		}
		return w.walk(dir, "")
	})

	parts := make([]*partial, s.opts.Workers)
	for i := range parts {
		part := &partial{deps: types.NewDependencySet()}
		parts[i] = part
		g.Go(func() error {
			for c := range candidates {
				if err := gctx.Err(); err != nil {
					return err
				}
				s.process(c, part)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	// errgroup cancels gctx only on failure, so check the parent too
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	result := &Result{
		Root:         root,
		Dependencies: types.NewDependencySet(),
		MaxFileSize:  s.opts.MaxFileSize,
		Errors:       w.errs,
	}
	for _, part := range parts {
		result.Dependencies.Merge(part.deps)
		result.Stats.Add(part.stats)
		result.Errors = append(result.Errors, part.errs...)
	}
	result.Duration = time.Since(start)

	debug.LogScan("scan of %s done: %d deps, %d/%d scanned, %.1f%% coverage\n",
		root, result.Dependencies.Len(), result.Stats.Scanned, result.Stats.Total, result.Stats.CoveragePercent())
	return result, nil
}

// process classifies one candidate and, when admitted, extracts from it
func (s *Scanner) process(c classify.Candidate, out *partial) {
	out.stats.Total++

	d := s.classifier.Classify(c)
	switch d.Outcome {
	case classify.Scan:
		s.observe(func(o Observer) { o.Reading(c.Path) })
		content, err := extract.ReadFile(c.Path)
		if err != nil {
			out.stats.AccessErrors++
			out.errs = append(out.errs, err)
			s.observe(func(o Observer) { o.Failed(c.Path, err) })
			return
		}
		deps := s.opts.Cache.Extract(content, d.Rule, s.opts.Strict)
		out.deps.Merge(deps)
		out.stats.Scanned++
		s.observe(func(o Observer) { o.Scanned(c.Path, deps) })
		return
	case classify.SkipNonSource:
		out.stats.NonSource++
	case classify.SkipTooLarge:
		out.stats.TooLarge++
	case classify.SkipUnsupported:
		out.stats.Unsupported++
	}
	s.observe(func(o Observer) { o.Skipped(c, d) })
}

func (s *Scanner) observe(fn func(Observer)) {
	if s.opts.Verbose && s.opts.Observer != nil {
		fn(s.opts.Observer)
	}
}
