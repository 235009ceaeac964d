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
)

var listCmd = &cobra.Command{
	Use:   "list [ROOT...]",
	Short: "List the working copies found under the given roots",
	Long: `List the version-controlled working copies found under ROOT (default: the
current directory) without updating anything.

Output:
	One line per repository, in discovery order:
	  {KIND}<TAB>{PATH}

	Kinds outside --kinds / --exclude-kinds are left out. Working copies of
	systems without an adapter (CVS, darcs, Fossil, Pijul) are listed as unknown.

Exit codes:
	0 = listing complete
	2 = some directories could not be read
	3 = fatal error (invalid configuration, no readable root)

Examples:
	update-repos list ~/src
	update-repos list ~/src --kinds hg,svn --max-depth 3
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := runList(ctx, cmd, args, cfg)
		stop()
		os.Exit(code)
	},
}

func runList(ctx context.Context, cmd *cobra.Command, args []string, c *config.Config) int {
	if err := loadConfig(cmd, args, c); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return engine.ExitFatal
	}
	eng := engine.NewEngine(nil, nil)
	eng.Stdout, eng.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
	return eng.List(ctx, c)
}

func init() {
	rootCmd.AddCommand(listCmd)
	addDiscoveryFlags(listCmd, cfg)
}
