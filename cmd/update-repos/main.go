package main

import (
	"updaterepos/internal/cli"
	_ "updaterepos/internal/vcs/adapters"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
