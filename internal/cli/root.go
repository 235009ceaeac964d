package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"updaterepos/internal/engine"
	"updaterepos/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "update-repos",
	Short: "Find version-controlled working copies and bring them up to date",
	Long: `update-repos walks directory trees, finds git, Mercurial, Subversion and
Bazaar working copies, and updates each one with its own VCS tool, several at
a time. One broken repository never stops the others.

Examples:
	# Update every working copy below the current directory
	update-repos update

	# Update two trees with 8 workers and a 2 minute limit per repository
	update-repos update ~/src ~/work --concurrency 8 --repo-timeout 2m

	# Show what would be updated
	update-repos list ~/src

	# List supported version control systems
	update-repos kinds

Output:
	By default, commands write human-readable output to stdout and progress to stderr.
	update supports structured output via --console-format, --emit and --out (see update --help).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose output (prints every update command and full diagnostics)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// Execute runs the CLI. Commands exit the process themselves with the run's
// exit code; usage errors exit with the fatal code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(engine.ExitFatal)
	}
}
