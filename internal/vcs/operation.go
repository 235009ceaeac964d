package vcs

import (
	"slices"
	"strings"
)

// Operation describes one external update command. It is plain data: building
// an Operation never runs anything.
type Operation struct {
	// Dir is the working directory (the repository path).
	Dir     string
	Program string
	Args    []string
	// Env holds KEY=VALUE pairs added on top of the inherited environment.
	Env []string
	// SuccessCodes lists exit codes considered successful. Empty means {0}.
	SuccessCodes []int
}

// Succeeded reports whether exitCode is one of the operation's success codes.
func (op Operation) Succeeded(exitCode int) bool {
	if len(op.SuccessCodes) == 0 {
		return exitCode == 0
	}
	return slices.Contains(op.SuccessCodes, exitCode)
}

// CommandLine renders the operation for logs. It does not quote arguments.
func (op Operation) CommandLine() string {
	parts := append([]string{op.Program}, op.Args...)
	return strings.Join(parts, " ")
}

// WithArgs returns a copy of op with extra arguments appended.
func (op Operation) WithArgs(extra ...string) Operation {
	if len(extra) == 0 {
		return op
	}
	out := op
	out.Args = append(slices.Clone(op.Args), extra...)
	return out
}

// NonInteractiveEnv is added to every update so that VCS output stays parseable
// and no credential prompt can block a worker.
var NonInteractiveEnv = []string{
	"LC_ALL=C",
	"LANG=C",
	"GIT_TERMINAL_PROMPT=0",
	"GIT_MERGE_AUTOEDIT=no",
	"HGPLAIN=1",
}
