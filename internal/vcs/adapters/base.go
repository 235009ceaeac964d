// Package adapters contains the built-in VCS adapters. Importing it (usually
// blank, from main) registers them with vcs.Default.
package adapters

import (
	"slices"

	"updaterepos/internal/vcs"
)

// command holds what every adapter needs to build its operation.
type command struct {
	program   string
	args      []string
	extraArgs []string
}

func (c command) operation(repoPath string) vcs.Operation {
	args := append(slices.Clone(c.args), c.extraArgs...)
	return vcs.Operation{
		Dir:     repoPath,
		Program: c.program,
		Args:    args,
		Env:     slices.Clone(vcs.NonInteractiveEnv),
	}
}

func (c command) withExtraArgs(extra []string) command {
	c.extraArgs = append(slices.Clone(c.extraArgs), extra...)
	return c
}

func init() {
	vcs.Register(NewGit())
	vcs.Register(NewHg())
	vcs.Register(NewSvn())
	vcs.Register(NewBzr())
}
