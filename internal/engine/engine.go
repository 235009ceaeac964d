// Package engine runs an update: discovery, scheduling, aggregation and
// reporting, and maps the result to a process exit code.
package engine

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"

	"updaterepos/internal/config"
	"updaterepos/internal/outcome"
	"updaterepos/internal/output"
	"updaterepos/internal/runner"
	"updaterepos/internal/vcs"
	"updaterepos/internal/walker"
)

type Engine struct {
	registry *vcs.Registry
	executor Executor

	// Stdout receives console and emitted output, Stderr progress and
	// fatal errors. Nil means the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewEngine returns an engine using reg (vcs.Default() when nil) and exec.
// When exec is nil every run builds a runner.Runner from its config.
func NewEngine(reg *vcs.Registry, exec Executor) *Engine {
	if reg == nil {
		reg = vcs.Default()
	}
	return &Engine{registry: reg, executor: exec}
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

func (e *Engine) setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		cs := output.NewConsoleSink(e.stdout(), cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus, cfg.Runtime.Verbose)
		if err := outMgr.AddSink(cs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(e.stdout(), emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// prepare resolves everything a run needs before touching any repository.
// An error here is fatal.
func (e *Engine) prepare(cfg *config.Config) (*vcs.Registry, walker.Options, error) {
	reg, err := e.registry.WithExtraArgs(cfg.KindExtraArgs())
	if err != nil {
		return nil, walker.Options{}, fmt.Errorf("configuring adapters: %w", err)
	}
	if err := walker.ValidatePatterns(cfg.Discovery.Include); err != nil {
		return nil, walker.Options{}, fmt.Errorf("invalid --include: %w", err)
	}
	if err := walker.ValidatePatterns(cfg.Discovery.Exclude); err != nil {
		return nil, walker.Options{}, fmt.Errorf("invalid --exclude: %w", err)
	}
	if err := walker.CheckRoots(cfg.Discovery.Roots); err != nil {
		return nil, walker.Options{}, err
	}
	opts := walker.Options{
		Markers:        reg.Markers(),
		MaxDepth:       cfg.Discovery.MaxDepth,
		Nested:         cfg.Discovery.Nested,
		FollowSymlinks: cfg.Discovery.FollowSymlinks,
		Include:        cfg.Discovery.Include,
		Exclude:        cfg.Discovery.Exclude,
	}
	return reg, opts, nil
}

func (e *Engine) executorFor(cfg *config.Config) Executor {
	if e.executor != nil {
		return e.executor
	}
	return runner.New(cfg.Runtime.RepoTimeout, cfg.Runtime.GracePeriod)
}

// repositories splits the walker's sequence: repositories flow on, discovery
// errors go to onErr.
func repositories(seq iter.Seq2[vcs.Repository, error], onErr func(error)) iter.Seq[vcs.Repository] {
	return func(yield func(vcs.Repository) bool) {
		for repo, err := range seq {
			if err != nil {
				onErr(err)
				continue
			}
			if !yield(repo) {
				return
			}
		}
	}
}

// Run updates every repository found under cfg's roots and returns the exit
// code. cfg must already be validated.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	if cfg.Update.DryRun {
		return e.List(ctx, cfg)
	}

	reg, opts, err := e.prepare(cfg)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error: %v\n", err)
		return exitCodeForRun(true, outcome.Summary{}, nil)
	}

	excerptLines := outcome.DefaultExcerptLines
	if cfg.Runtime.Verbose {
		excerptLines = 0
	}
	sched, err := NewScheduler(reg, e.executorFor(cfg), cfg.Runtime.Concurrency, cfg.Runtime.RepoTimeout,
		WithKindFilter(cfg.AllowedKinds(), cfg.DeniedKinds()),
		WithExcerptLines(excerptLines),
	)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error: %v\n", err)
		return exitCodeForRun(true, outcome.Summary{}, nil)
	}

	outMgr, err := e.setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, outcome.Summary{}, nil)
	}
	defer func() {
		if err := outMgr.Close(); err != nil {
			fmt.Fprintf(e.stderr(), "Error closing output: %v\n", err)
		}
	}()

	if cfg.Runtime.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.RunTimeout)
		defer cancel()
	}

	runID := uuid.New().String()
	agg := NewAggregator(runID, cfg.Discovery.Roots)
	if !cfg.Output.NoConsole {
		fmt.Fprintf(e.stderr(), "Updating repositories under %s (%d workers)...\n", strings.Join(cfg.Discovery.Roots, ", "), cfg.Runtime.Concurrency)
	}
	_ = outMgr.Write(output.Event{Type: output.EventRunStarted, RunID: runID, Roots: cfg.Discovery.Roots})

	repos := repositories(walker.Walk(cfg.Discovery.Roots, opts), func(err error) {
		de := outcome.NewDiscoveryError(err)
		agg.AddDiscoveryError(de)
		_ = outMgr.Write(de)
	})

	results := sched.Run(ctx, repos)
	sum, err := Collect(agg, results, func(o outcome.Outcome) {
		_ = outMgr.Write(o)
	})
	fatal := err != nil
	if fatal {
		fmt.Fprintf(e.stderr(), "Error: %v\n", err)
	}
	if ctx.Err() != nil {
		agg.MarkCancelled()
		sum = agg.Snapshot()
	}

	code := exitCodeForRun(fatal, sum, cfg.FailOnStatuses())
	_ = outMgr.Write(sum)
	_ = outMgr.Write(output.RunFinished(runID, code))
	return code
}

// List prints the repositories an update would touch, one "kind<TAB>path" per
// line, in discovery order. Nothing is executed.
func (e *Engine) List(ctx context.Context, cfg *config.Config) int {
	_, opts, err := e.prepare(cfg)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error: %v\n", err)
		return exitCodeForRun(true, outcome.Summary{}, nil)
	}

	allow, deny := cfg.AllowedKinds(), cfg.DeniedKinds()
	sum := outcome.Summary{Counts: map[vcs.Status]int{}}
	out := e.stdout()
	for repo, err := range walker.Walk(cfg.Discovery.Roots, opts) {
		if ctx.Err() != nil {
			sum.Cancelled = true
			break
		}
		if err != nil {
			de := outcome.NewDiscoveryError(err)
			sum.DiscoveryErrors = append(sum.DiscoveryErrors, de)
			fmt.Fprintf(e.stderr(), "error: %s\n", de.Error())
			continue
		}
		if slices.Contains(deny, repo.Kind) || (len(allow) > 0 && !slices.Contains(allow, repo.Kind)) {
			continue
		}
		sum.Total++
		fmt.Fprintf(out, "%s\t%s\n", repo.Kind, repo.Path)
	}
	if !cfg.Output.NoConsole {
		fmt.Fprintf(e.stderr(), "Found %d repositories.\n", sum.Total)
	}
	return exitCodeForRun(false, sum, nil)
}
