package vcs

import (
	"fmt"
	"strings"
)

// Kind identifies which version control system owns a working copy.
type Kind string

const (
	KindGit     Kind = "git"
	KindHg      Kind = "hg"
	KindSvn     Kind = "svn"
	KindBzr     Kind = "bzr"
	KindUnknown Kind = "unknown"
)

// ParseKind normalizes a user supplied kind name. A few common aliases are
// accepted (mercurial, subversion, bazaar).
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "git":
		return KindGit, nil
	case "hg", "mercurial":
		return KindHg, nil
	case "svn", "subversion":
		return KindSvn, nil
	case "bzr", "bazaar", "brz", "breezy":
		return KindBzr, nil
	case "unknown":
		return KindUnknown, nil
	default:
		return "", fmt.Errorf("unknown VCS kind %q", raw)
	}
}

type Status string

const (
	StatusUpdated        Status = "updated"
	StatusAlreadyCurrent Status = "already-current"
	StatusNeedsAttention Status = "needs-attention"
	StatusFailed         Status = "failed"
	StatusTimedOut       Status = "timed-out"
	StatusCancelled      Status = "cancelled"
	StatusSkipped        Status = "skipped"
	StatusUnknown        Status = "unknown"
)

// Statuses lists every outcome status in reporting order.
var Statuses = []Status{
	StatusUpdated,
	StatusAlreadyCurrent,
	StatusNeedsAttention,
	StatusFailed,
	StatusTimedOut,
	StatusCancelled,
	StatusSkipped,
	StatusUnknown,
}

// ParseStatus accepts the canonical status names and a few spellings
// (timed_out, already_current, up-to-date).
func ParseStatus(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "_", "-")
	switch v {
	case "up-to-date", "current":
		return StatusAlreadyCurrent, nil
	case "timeout":
		return StatusTimedOut, nil
	case "canceled":
		return StatusCancelled, nil
	}
	for _, s := range Statuses {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Repository is a working copy found during discovery.
type Repository struct {
	// Path is the absolute path of the working copy root.
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
	// Root is the discovery root the repository was found under.
	Root string `json:"root,omitempty"`
}
