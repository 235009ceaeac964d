package vcs

import "strings"

// Output joins stdout and stderr for pattern matching. Most VCS tools split
// progress and results across both streams inconsistently.
func Output(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}

// ContainsAny reports whether text contains one of needles.
func ContainsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
