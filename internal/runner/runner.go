// Package runner executes update operations as external processes with a
// timeout, cooperative termination and capped output capture.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"updaterepos/internal/vcs"
)

// Default values for runner configuration.
const (
	DefaultTimeout     = 5 * time.Minute
	DefaultGracePeriod = 5 * time.Second
	DefaultMaxOutput   = 256 << 10 // 256 KB per stream
)

// ErrTimeout is the context cause recorded when an operation exceeds its
// timeout. Callers imposing their own deadline should use it as the cause
// (context.WithTimeoutCause) so the result reports TimedOut.
var ErrTimeout = errors.New("operation timed out")

type Runner struct {
	// Timeout bounds each operation. Zero means no per-operation limit.
	Timeout time.Duration
	// GracePeriod is how long a process may take to exit after the
	// termination signal before it is killed.
	GracePeriod time.Duration
	// MaxOutput caps the bytes captured per stream.
	MaxOutput int
}

func New(timeout, gracePeriod time.Duration) *Runner {
	return &Runner{Timeout: timeout, GracePeriod: gracePeriod, MaxOutput: DefaultMaxOutput}
}

// Execute runs op and waits for it. It never returns early while the process
// is alive: on timeout or cancellation the process group receives a
// termination signal and, after GracePeriod, a kill.
func (r *Runner) Execute(ctx context.Context, op vcs.Operation) Result {
	start := time.Now()
	res := Result{RunID: uuid.New().String(), ExitCode: -1}
	if op.Program == "" {
		res.Err = errors.New("empty program")
		return res
	}
	if ctx.Err() != nil {
		if errors.Is(context.Cause(ctx), ErrTimeout) {
			res.TimedOut = true
		} else {
			res.Canceled = true
		}
		return res
	}

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	grace := r.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if r.Timeout > 0 {
		runCtx, cancel = context.WithTimeoutCause(ctx, r.Timeout, ErrTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, op.Program, op.Args...)
	cmd.Dir = op.Dir
	if len(op.Env) > 0 {
		cmd.Env = append(os.Environ(), op.Env...)
	}
	stdout := &capturedOutput{max: maxOutput}
	stderr := &capturedOutput{max: maxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)

	var (
		mu        sync.Mutex
		killTimer *time.Timer
	)
	cmd.Cancel = func() error {
		err := terminate(cmd)
		mu.Lock()
		killTimer = time.AfterFunc(grace, func() { _ = kill(cmd) })
		mu.Unlock()
		return err
	}
	// Bounds the wait for pipes held open by children after the process
	// itself has gone.
	cmd.WaitDelay = grace

	runErr := cmd.Run()
	res.Duration = time.Since(start)
	mu.Lock()
	if killTimer != nil {
		killTimer.Stop()
	}
	mu.Unlock()

	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	res.Truncated = stdout.dropped || stderr.dropped
	res.TimedOut, res.Canceled = interrupted(runCtx, runErr)

	if runErr == nil {
		res.ExitCode = 0
		return res
	}
	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil:
		// The process exited on its own but left its output pipes open.
		res.ExitCode = cmd.ProcessState.ExitCode()
	case res.TimedOut || res.Canceled:
	default:
		res.Err = fmt.Errorf("executing %s: %w", op.Program, runErr)
	}
	return res
}

// interrupted reports whether the context ended the command. A command that
// exited cleanly is never interrupted, even if the deadline passed while its
// output was being collected. The timeout may come from r.Timeout or from a
// deadline the caller set with ErrTimeout as its cause; anything else ending
// the context is a cancellation.
func interrupted(ctx context.Context, runErr error) (timedOut, canceled bool) {
	if runErr == nil || ctx.Err() == nil {
		return false, false
	}
	if errors.Is(context.Cause(ctx), ErrTimeout) {
		return true, false
	}
	return false, true
}
