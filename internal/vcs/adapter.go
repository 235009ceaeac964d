package vcs

// Adapter knows how to update one kind of working copy and how to interpret
// the result of that update.
//
// Implementations must be safe for concurrent use: the scheduler calls
// BuildOperation and Classify from several workers at once.
type Adapter interface {
	Kind() Kind

	// Markers lists the directory entries identifying a working copy root.
	Markers() []Marker

	// BuildOperation describes the update command for the working copy at
	// repoPath. It must not execute anything.
	BuildOperation(repoPath string) Operation

	// Classify maps a finished process to an outcome status. It must
	// distinguish "nothing to do", "needs manual intervention" and hard
	// failures, and return StatusUnknown when the output is not recognized.
	Classify(exitCode int, stdout, stderr string) Status
}

// Configurable is implemented by adapters that accept extra command
// arguments from the config file.
type Configurable interface {
	Adapter

	// WithExtraArgs returns an adapter that appends args to every update
	// command.
	WithExtraArgs(args []string) Adapter
}
