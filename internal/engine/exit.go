package engine

import (
	"slices"

	"updaterepos/internal/outcome"
	"updaterepos/internal/vcs"
)

// Exit code contract:
// 0 = every repository fine
// 1 = repositories need attention (only when needs-attention is in fail-on)
// 2 = partial failure (a fail-on status, discovery errors, or cancellation)
// 3 = fatal error (the run did not start)
const (
	ExitOK             = 0
	ExitNeedsAttention = 1
	ExitPartial        = 2
	ExitFatal          = 3
)

func exitCodeForRun(fatal bool, s outcome.Summary, failOn []vcs.Status) int {
	if fatal {
		return ExitFatal
	}
	if s.Cancelled || len(s.DiscoveryErrors) > 0 {
		return ExitPartial
	}
	attention := false
	for _, st := range failOn {
		if s.Count(st) == 0 {
			continue
		}
		if st != vcs.StatusNeedsAttention {
			return ExitPartial
		}
		attention = true
	}
	if attention && slices.Contains(failOn, vcs.StatusNeedsAttention) {
		return ExitNeedsAttention
	}
	return ExitOK
}
