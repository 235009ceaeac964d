package walker

import (
	"path"
	"strings"
)

// matchesAnyPattern reports whether one of patterns matches a directory.
func matchesAnyPattern(patterns []string, relPath, name string) bool {
	for _, p := range patterns {
		if matchPattern(p, relPath, name) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, relPath, name string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	// Patterns with a '/' are anchored at the discovery root and match the
	// slash separated relative path; others match the directory name only, so
	// "node_modules" or "*.bak" prune at any depth.
	if strings.Contains(pattern, "/") {
		matched, _ := path.Match(strings.Trim(pattern, "/"), relPath)
		return matched
	}
	matched, _ := path.Match(pattern, name)
	return matched
}

// ValidatePatterns checks pattern syntax up front so that a typo is a
// configuration error instead of a silent non-match.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := path.Match(strings.Trim(strings.TrimSpace(p), "/"), ""); err != nil {
			return &PatternError{Pattern: p, Err: err}
		}
	}
	return nil
}

type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "invalid pattern " + `"` + e.Pattern + `": ` + e.Err.Error()
}

func (e *PatternError) Unwrap() error { return e.Err }
