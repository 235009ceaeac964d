package engine

import (
	"context"
	"errors"
	"iter"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"updaterepos/internal/runner"
	"updaterepos/internal/vcs"
)

// fakeAdapter classifies by keyword so tests can script outcomes through the
// fake executor's stdout.
type fakeAdapter struct {
	kind vcs.Kind
}

func (a fakeAdapter) Kind() vcs.Kind { return a.kind }

func (a fakeAdapter) Markers() []vcs.Marker {
	return []vcs.Marker{{Name: "." + string(a.kind), Type: vcs.MarkerDir, Kind: a.kind, Precedence: vcs.PrecedenceGit}}
}

func (a fakeAdapter) BuildOperation(repoPath string) vcs.Operation {
	if filepath.Base(repoPath) == "panic-build" {
		panic("adapter exploded")
	}
	return vcs.Operation{Dir: repoPath, Program: "fake-" + string(a.kind), Args: []string{"pull"}}
}

func (a fakeAdapter) Classify(exitCode int, stdout, stderr string) vcs.Status {
	switch {
	case strings.Contains(stdout, "updated"):
		return vcs.StatusUpdated
	case strings.Contains(stdout, "current"):
		return vcs.StatusAlreadyCurrent
	case strings.Contains(stdout, "attention"):
		return vcs.StatusNeedsAttention
	case exitCode != 0:
		return vcs.StatusFailed
	default:
		return vcs.StatusUnknown
	}
}

func testRegistry() *vcs.Registry {
	return vcs.NewRegistry(fakeAdapter{kind: vcs.KindGit})
}

// fakeExecutor scripts results by the repository's base name.
type fakeExecutor struct {
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32

	mu    sync.Mutex
	calls []string
}

func (f *fakeExecutor) Execute(ctx context.Context, op vcs.Operation) runner.Result {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	name := filepath.Base(op.Dir)
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}

	res := runner.Result{RunID: "exec-" + name, ExitCode: 0, Duration: time.Millisecond}
	switch {
	case strings.HasPrefix(name, "slow"):
		<-ctx.Done()
		res.ExitCode = -1
		if errors.Is(context.Cause(ctx), runner.ErrTimeout) {
			res.TimedOut = true
		} else {
			res.Canceled = true
		}
	case strings.HasPrefix(name, "panic-exec"):
		panic("executor exploded")
	case strings.HasPrefix(name, "missing"):
		res.ExitCode = -1
		res.Err = exec.ErrNotFound
	case strings.HasPrefix(name, "attention"):
		res.ExitCode = 1
		res.Stdout = []byte("attention: local changes")
	case strings.HasPrefix(name, "current"):
		res.Stdout = []byte("current")
	case strings.HasPrefix(name, "broken"):
		res.ExitCode = 128
		res.Stderr = []byte("fatal: remote hung up")
	case strings.HasPrefix(name, "liar"):
		res.ExitCode = 3
		res.Stdout = []byte("updated")
	case strings.HasPrefix(name, "noisy"):
		res.Stdout = []byte("updated")
		res.Truncated = true
	case strings.HasPrefix(name, "weird"):
		res.Stdout = []byte("???")
	default:
		res.Stdout = []byte("updated")
	}
	return res
}

func (f *fakeExecutor) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func repo(name string) vcs.Repository {
	return vcs.Repository{Path: "/src/" + name, Kind: vcs.KindGit, Root: "/src"}
}

func seqOf(repos ...vcs.Repository) iter.Seq[vcs.Repository] {
	return func(yield func(vcs.Repository) bool) {
		for _, r := range repos {
			if !yield(r) {
				return
			}
		}
	}
}
