package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"updaterepos/internal/config"
	"updaterepos/internal/engine"
	"updaterepos/internal/flags"
)

var cfg = config.New()

var updateCmd = &cobra.Command{
	Use:   "update [ROOT...]",
	Short: "Update every working copy found under the given roots",
	Long: `Update every version-controlled working copy found under ROOT (default: the
current directory).

Each repository is updated with its own tool, without prompting:
	git   git pull --ff-only
	hg    hg pull --update
	svn   svn update --non-interactive
	bzr   bzr pull

Every repository ends with exactly one status:
	updated          new changes were applied
	already-current  nothing to do
	needs-attention  local changes, divergence or conflicts; fix by hand
	failed           the update command failed
	timed-out        the update exceeded --repo-timeout and was terminated
	cancelled        the run was interrupted while the update ran
	skipped          not attempted (kind filter, or interrupted before it started)
	unknown          unsupported VCS or unrecognised output

Configuration file:
	Defaults for unset flags are read from --config, or from
	$XDG_CONFIG_HOME/update-repos/config.yaml when it exists. Positional roots
	replace the file's roots. The file may also add per-kind arguments:

	adapters:
	  git:
	    args: [--prune]

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON summary or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown report
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line with a "type" field
	(run.started, repo.finished, discovery.error, run.summary, run.finished).

Exit codes:
	0 = every repository is fine
	1 = some repository needs attention (only when needs-attention is in --fail-on)
	2 = partial failure (a --fail-on status, unreadable directories, or interrupted run)
	3 = fatal error (invalid configuration, no readable root)

Examples:
	update-repos update ~/src --concurrency 8
	update-repos update --kinds git --fail-on failed,timed-out,needs-attention
	update-repos update ~/src --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := runUpdate(ctx, cmd, args, cfg)
		stop()
		os.Exit(code)
	},
}

func runUpdate(ctx context.Context, cmd *cobra.Command, args []string, c *config.Config) int {
	if err := loadConfig(cmd, args, c); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return engine.ExitFatal
	}
	eng := engine.NewEngine(nil, nil)
	eng.Stdout, eng.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
	return eng.Run(ctx, c)
}

// loadConfig merges positional roots, the config file and flags into c, then
// validates it. Explicit flags always win over file values.
func loadConfig(cmd *cobra.Command, args []string, c *config.Config) error {
	if len(args) > 0 {
		c.Discovery.Roots = append([]string(nil), args...)
	}

	path := c.Runtime.ConfigFile
	explicit := path != ""
	if !explicit {
		path = config.DefaultFilePath()
	}
	f, err := config.LoadFile(path, explicit)
	if err != nil {
		return err
	}
	if err := f.Apply(c, cmd.Flags().Changed); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	applyColorMode(c.Output.Color)
	return nil
}

func addDiscoveryFlags(cmd *cobra.Command, c *config.Config) {
	cmd.Flags().IntVar(&c.Discovery.MaxDepth, flags.FlagMaxDepth, config.DefaultMaxDepth, "Deepest directory level searched below a root (-1 = unlimited)")
	cmd.Flags().BoolVar(&c.Discovery.Nested, flags.FlagNested, false, "Keep searching inside working copies for nested checkouts")
	cmd.Flags().BoolVar(&c.Discovery.FollowSymlinks, flags.FlagFollowSymlinks, false, "Descend into symlinked directories (cycles are detected)")
	cmd.Flags().StringSliceVar(&c.Discovery.Include, flags.FlagInclude, nil, "Only update repositories matching pattern(s) (repeatable; comma-separated accepted). Go path.Match style; if pattern contains '/', matches the path relative to the root, else the directory name")
	cmd.Flags().StringSliceVar(&c.Discovery.Exclude, flags.FlagExclude, nil, "Skip directories matching pattern(s) and everything below them. Same matching rules as --include")
	cmd.Flags().StringSliceVar(&c.Update.Kinds, flags.FlagKinds, nil, "Only update these kinds: git|hg|svn|bzr (repeatable; comma-separated accepted)")
	cmd.Flags().StringSliceVar(&c.Update.ExcludeKinds, flags.FlagExcludeKinds, nil, "Never update these kinds (repeatable; comma-separated accepted)")
	cmd.Flags().StringVar(&c.Runtime.ConfigFile, flags.FlagConfig, "", "YAML config file (default: $XDG_CONFIG_HOME/update-repos/config.yaml if present)")
	cmd.Flags().BoolVar(&c.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
	cmd.Flags().StringVar(&c.Output.Color, flags.FlagColor, "auto", "Colorize output: auto|always|never (NO_COLOR is honoured in auto mode)")
}

func init() {
	rootCmd.AddCommand(updateCmd)

	// MAINTAINER NOTE: If you add/change/remove flags here, keep the config
	// file keys in internal/config/file.go in sync.

	// Discovery
	addDiscoveryFlags(updateCmd, cfg)

	// Update
	updateCmd.Flags().StringSliceVar(&cfg.Update.FailOn, flags.FlagFailOn, append([]string(nil), config.DefaultFailOn...), "Statuses that make the exit code non-zero (repeatable; comma-separated accepted)")
	updateCmd.Flags().BoolVar(&cfg.Update.DryRun, flags.FlagDryRun, false, "List the repositories that would be updated and exit")

	// Output
	updateCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	updateCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Only print repositories with these statuses (comma-separated)")
	updateCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	updateCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	updateCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	updateCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")

	// Runtime
	updateCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, config.DefaultConcurrency(), "Concurrent updates (default: number of CPUs)")
	updateCmd.Flags().DurationVar(&cfg.Runtime.RepoTimeout, flags.FlagRepoTimeout, config.DefaultRepoTimeout, "Time limit for each repository's update")
	updateCmd.Flags().DurationVar(&cfg.Runtime.GracePeriod, flags.FlagGracePeriod, config.DefaultGracePeriod, "How long a terminated update may take to exit before it is killed")
	updateCmd.Flags().DurationVar(&cfg.Runtime.RunTimeout, flags.FlagRunTimeout, 0, "Cancel the whole run after this long (0 = no limit)")
}
