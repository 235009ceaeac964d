// Package walker discovers working copies beneath a set of root directories.
package walker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"

	"updaterepos/internal/vcs"
)

// DefaultMaxDepth bounds the walk when no depth is configured.
const DefaultMaxDepth = 8

// ErrNotDirectory is wrapped in the discovery error for a root that is not a
// directory.
var ErrNotDirectory = errors.New("not a directory")

type Options struct {
	// Markers drives detection, usually vcs.Registry.Markers().
	Markers []vcs.Marker

	// MaxDepth is the deepest directory level inspected below a root (the
	// root itself is depth 0). Negative means unlimited.
	MaxDepth int

	// Nested keeps descending into working copies to find checkouts nested
	// inside them. Marker directories are never entered.
	Nested bool

	// FollowSymlinks descends into symlinked directories. Visited real paths
	// are tracked either way, so cycles terminate.
	FollowSymlinks bool

	// Include restricts emitted repositories; Exclude prunes directories.
	// See matchPattern for the syntax.
	Include []string
	Exclude []string
}

// Walk returns the lazy discovery sequence for roots. Each element is either a
// repository or a discovery error (an *fs.PathError) for a directory that
// could not be read; errors never stop the walk.
//
// Roots are walked in the given order, entries depth-first in lexical order,
// so discovery order is deterministic. The sequence performs a fresh
// traversal each time it is ranged over.
func Walk(roots []string, opts Options) iter.Seq2[vcs.Repository, error] {
	return func(yield func(vcs.Repository, error) bool) {
		w := &walk{
			opts:    opts,
			visited: make(map[string]struct{}),
			yield:   yield,
		}
		for _, root := range roots {
			if !w.walkRoot(root) {
				return
			}
		}
	}
}

// CheckRoots returns an error when none of roots is a readable directory.
func CheckRoots(roots []string) error {
	if len(roots) == 0 {
		return errors.New("no root directories given")
	}
	var errs []error
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f, err := os.Open(abs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_, err = f.ReadDir(1)
		_ = f.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, &fs.PathError{Op: "readdir", Path: abs, Err: err})
			continue
		}
		return nil
	}
	return fmt.Errorf("no readable root directory: %w", errors.Join(errs...))
}

type walk struct {
	opts    Options
	visited map[string]struct{}
	yield   func(vcs.Repository, error) bool
}

func (w *walk) emitErr(op, p string, err error) bool {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return w.yield(vcs.Repository{}, pe)
	}
	return w.yield(vcs.Repository{}, &fs.PathError{Op: op, Path: p, Err: err})
}

func (w *walk) walkRoot(root string) bool {
	abs, err := filepath.Abs(root)
	if err != nil {
		return w.emitErr("abs", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return w.emitErr("stat", abs, err)
	}
	if !info.IsDir() {
		return w.emitErr("stat", abs, ErrNotDirectory)
	}
	return w.visit(abs, abs, ".", 0)
}

func (w *walk) visit(root, dir, rel string, depth int) bool {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return w.emitErr("evalsymlinks", dir, err)
	}
	if _, seen := w.visited[real]; seen {
		return true
	}
	w.visited[real] = struct{}{}

	if kind, ok := vcs.Detect(dir, w.opts.Markers); ok {
		if w.included(rel, filepath.Base(dir)) {
			if !w.yield(vcs.Repository{Path: dir, Kind: kind, Root: root}, nil) {
				return false
			}
		}
		if !w.opts.Nested {
			return true
		}
	}

	if w.opts.MaxDepth >= 0 && depth >= w.opts.MaxDepth {
		return true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return w.emitErr("readdir", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if vcs.IsMarkerName(name, w.opts.Markers) {
			continue
		}
		child := filepath.Join(dir, name)
		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			if !w.opts.FollowSymlinks {
				continue
			}
			info, err := os.Stat(child)
			if err != nil {
				if !w.emitErr("stat", child, err) {
					return false
				}
				continue
			}
			isDir = info.IsDir()
		}
		if !isDir {
			continue
		}
		childRel := path.Join(rel, name)
		if matchesAnyPattern(w.opts.Exclude, childRel, name) {
			continue
		}
		if !w.visit(root, child, childRel, depth+1) {
			return false
		}
	}
	return true
}

func (w *walk) included(rel, name string) bool {
	if len(w.opts.Include) == 0 {
		return true
	}
	return matchesAnyPattern(w.opts.Include, rel, name)
}
