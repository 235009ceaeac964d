package cli

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// applyColorMode sets the process-wide color switch used by every sink.
func applyColorMode(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" || !term.IsTerminal(int(os.Stdout.Fd()))
	}
}
