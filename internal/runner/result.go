package runner

import "time"

// Result holds the output of one external update command.
type Result struct {
	RunID     string        // unique identifier for this execution
	ExitCode  int           // process exit code; -1 when killed or never started
	Stdout    []byte        // captured stdout (may be truncated)
	Stderr    []byte        // captured stderr (may be truncated)
	Truncated bool          // true if output exceeded the size cap
	Duration  time.Duration // wall clock time from start to reap
	TimedOut  bool          // the per-operation timeout fired
	Canceled  bool          // the caller's context was canceled
	// Err is set when the command could not be run at all (binary missing,
	// bad working directory). A non-zero exit is not an Err.
	Err error
}
