package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"updaterepos/internal/vcs"
)

var kindsQuiet bool

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List supported version control systems",
	Long: `List the version control systems this build can update, in detection
precedence order, with the markers that identify a working copy and the
command used to update it.

When a directory carries markers of several systems, the first one listed wins.

Examples:
  update-repos kinds
  update-repos kinds -q
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printKinds(cmd.OutOrStdout(), vcs.Default(), kindsQuiet)
		return nil
	},
}

func printKinds(w io.Writer, reg *vcs.Registry, quiet bool) {
	bold := color.New(color.Bold)
	for _, a := range reg.List() {
		if quiet {
			fmt.Fprintln(w, a.Kind())
			continue
		}
		bold.Fprintf(w, "%s\n", a.Kind())
		fmt.Fprintf(w, "  markers: %s\n", markerList(a.Markers()))
		fmt.Fprintf(w, "  command: %s\n", a.BuildOperation(".").CommandLine())
		fmt.Fprintln(w)
	}
	if quiet {
		return
	}
	bold.Fprintf(w, "%s\n", vcs.KindUnknown)
	fmt.Fprintf(w, "  markers: %s\n", markerList(vcs.UnsupportedMarkers))
	fmt.Fprintln(w, "  command: none (reported, never updated)")
}

func markerList(markers []vcs.Marker) string {
	parts := make([]string, 0, len(markers))
	for _, m := range markers {
		name := m.Name
		switch m.Type {
		case vcs.MarkerDir:
			name += "/"
		case vcs.MarkerAny:
			name += " (dir or file)"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}

func init() {
	rootCmd.AddCommand(kindsCmd)
	kindsCmd.Flags().BoolVarP(&kindsQuiet, "quiet", "q", false, "Only print kind names")
}
