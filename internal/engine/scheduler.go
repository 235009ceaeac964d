package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"updaterepos/internal/outcome"
	"updaterepos/internal/runner"
	"updaterepos/internal/vcs"
)

// Executor runs one update operation. runner.Runner is the production
// implementation.
type Executor interface {
	Execute(ctx context.Context, op vcs.Operation) runner.Result
}

type Scheduler struct {
	registry     *vcs.Registry
	executor     Executor
	concurrency  int
	timeout      time.Duration
	allowKinds   []vcs.Kind
	denyKinds    []vcs.Kind
	excerptLines int
}

type SchedulerOption func(*Scheduler)

// WithKindFilter restricts which kinds are updated. An empty allow list
// allows every kind. Filtered repositories are reported as skipped.
func WithKindFilter(allow, deny []vcs.Kind) SchedulerOption {
	return func(s *Scheduler) {
		s.allowKinds = allow
		s.denyKinds = deny
	}
}

// WithExcerptLines sets how many output lines each diagnostic keeps (<= 0
// keeps all).
func WithExcerptLines(n int) SchedulerOption {
	return func(s *Scheduler) { s.excerptLines = n }
}

func NewScheduler(reg *vcs.Registry, exec Executor, concurrency int, perRepoTimeout time.Duration, opts ...SchedulerOption) (*Scheduler, error) {
	if reg == nil {
		return nil, errors.New("registry is nil")
	}
	if exec == nil {
		return nil, errors.New("executor is nil")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	if perRepoTimeout <= 0 {
		return nil, fmt.Errorf("per-repository timeout must be > 0, got %s", perRepoTimeout)
	}
	s := &Scheduler{
		registry:     reg,
		executor:     exec,
		concurrency:  concurrency,
		timeout:      perRepoTimeout,
		excerptLines: outcome.DefaultExcerptLines,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type task struct {
	index int
	repo  vcs.Repository
}

// Run streams one Outcome per repository in repos.
//
// Channel semantics:
//   - Exactly one Outcome is sent per repository yielded by repos, whatever
//     happens to its update (failure, timeout, panic, cancellation).
//   - Outcomes arrive in completion order; Index carries discovery order.
//   - After ctx is canceled, running updates are terminated and reported as
//     cancelled, and repositories not yet handed to a worker as skipped.
//   - The channel is closed once every worker has exited. Callers must drain
//     it.
func (s *Scheduler) Run(ctx context.Context, repos iter.Seq[vcs.Repository]) <-chan outcome.Outcome {
	results := make(chan outcome.Outcome)
	tasks := make(chan task)

	var g errgroup.Group
	for range s.concurrency {
		g.Go(func() error {
			for t := range tasks {
				results <- s.execute(ctx, t)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(tasks)
		index := 0
		for repo := range repos {
			t := task{index: index, repo: repo}
			index++

			if reason, ok := s.accepts(repo.Kind); !ok {
				results <- skipped(t, reason)
				continue
			}
			if ctx.Err() != nil {
				results <- skipped(t, "run cancelled before the update was dispatched")
				continue
			}
			select {
			case tasks <- t:
			case <-ctx.Done():
				results <- skipped(t, "run cancelled before the update was dispatched")
			}
		}
		return nil
	})

	go func() {
		_ = g.Wait()
		close(results)
	}()
	return results
}

func (s *Scheduler) accepts(k vcs.Kind) (string, bool) {
	if slices.Contains(s.denyKinds, k) {
		return fmt.Sprintf("%s excluded by kind filter", k), false
	}
	if len(s.allowKinds) > 0 && !slices.Contains(s.allowKinds, k) {
		return fmt.Sprintf("%s not in kind filter", k), false
	}
	return "", true
}

func skipped(t task, reason string) outcome.Outcome {
	return outcome.Outcome{
		Index:      t.index,
		Repo:       t.repo,
		Status:     vcs.StatusSkipped,
		Diagnostic: reason,
		ExitCode:   -1,
	}
}

// execute turns one task into an Outcome. Nothing escapes it: panics from an
// adapter or executor become failed outcomes.
func (s *Scheduler) execute(ctx context.Context, t task) (out outcome.Outcome) {
	start := time.Now()
	out = outcome.Outcome{Index: t.index, Repo: t.repo, ExitCode: -1}
	defer func() {
		if r := recover(); r != nil {
			out.Status = vcs.StatusFailed
			out.Diagnostic = fmt.Sprintf("internal error: %v", r)
		}
		if out.Duration == 0 {
			out.Duration = time.Since(start)
		}
	}()

	if ctx.Err() != nil {
		out.Status = vcs.StatusCancelled
		out.Diagnostic = "run cancelled before the update started"
		return out
	}

	adapter, ok := s.registry.Lookup(t.repo.Kind)
	if !ok {
		out.Status = vcs.StatusUnknown
		out.Diagnostic = fmt.Sprintf("no adapter for %s working copy", t.repo.Kind)
		return out
	}

	op := adapter.BuildOperation(t.repo.Path)
	out.Command = op.CommandLine()

	opCtx, cancel := context.WithTimeoutCause(ctx, s.timeout, runner.ErrTimeout)
	defer cancel()
	res := s.executor.Execute(opCtx, op)

	out.RunID = res.RunID
	out.ExitCode = res.ExitCode
	out.Duration = res.Duration
	out.Diagnostic = outcome.Excerpt(res.Stdout, res.Stderr, s.excerptLines)
	if res.Truncated {
		out.Diagnostic = strings.TrimPrefix(out.Diagnostic+"\n"+truncatedNote, "\n")
	}

	switch {
	case res.Canceled:
		out.Status = vcs.StatusCancelled
		out.Diagnostic = joinDiagnostic("update terminated: run cancelled", out.Diagnostic)
	case res.TimedOut:
		out.Status = vcs.StatusTimedOut
		out.Diagnostic = joinDiagnostic(fmt.Sprintf("update terminated after %s", s.timeout), out.Diagnostic)
	case res.Err != nil:
		out.Status = vcs.StatusFailed
		out.Diagnostic = joinDiagnostic(res.Err.Error(), out.Diagnostic)
	default:
		out.Status = classify(adapter, op, res)
	}
	return out
}

// classify asks the adapter and guards the result: an empty status becomes
// unknown, and a success status for an exit code the operation does not
// accept is never trusted.
func classify(adapter vcs.Adapter, op vcs.Operation, res runner.Result) vcs.Status {
	st := adapter.Classify(res.ExitCode, string(res.Stdout), string(res.Stderr))
	if st == "" {
		return vcs.StatusUnknown
	}
	if (st == vcs.StatusUpdated || st == vcs.StatusAlreadyCurrent) && !op.Succeeded(res.ExitCode) {
		return vcs.StatusUnknown
	}
	return st
}

// truncatedNote ends a diagnostic whose command printed more than the runner
// keeps.
const truncatedNote = "(output truncated)"

func joinDiagnostic(head, body string) string {
	if body == "" {
		return head
	}
	return head + "\n" + body
}
