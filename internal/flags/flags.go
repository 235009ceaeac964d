package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// config file layer. Keeping these as constants avoids drift between Cobra
// flag wiring and code that needs to know whether a flag was set explicitly
// (config file values never override explicit flags).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, 4, "...")
//	arg := "--" + flags.FlagConcurrency
const (
	// Discovery
	FlagMaxDepth       = "max-depth"
	FlagNested         = "nested"
	FlagFollowSymlinks = "follow-symlinks"
	FlagInclude        = "include"
	FlagExclude        = "exclude"

	// Update
	FlagKinds        = "kinds"
	FlagExcludeKinds = "exclude-kinds"
	FlagFailOn       = "fail-on"
	FlagDryRun       = "dry-run"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"
	FlagColor               = "color"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagRepoTimeout = "repo-timeout"
	FlagGracePeriod = "grace-period"
	FlagRunTimeout  = "run-timeout"
	FlagConfig      = "config"
	FlagVerbose     = "verbose"
)
