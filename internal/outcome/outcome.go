// Package outcome defines the records produced by an update run.
package outcome

import (
	"encoding/json"
	"errors"
	"io/fs"
	"sort"
	"strings"
	"time"

	"updaterepos/internal/vcs"
)

// Outcome is the result of attempting to update one repository. Exactly one
// Outcome exists per discovered repository.
type Outcome struct {
	// Index is the repository's position in discovery order.
	Index  int            `json:"index"`
	Repo   vcs.Repository `json:"repo"`
	Status vcs.Status     `json:"status"`
	// Diagnostic is an excerpt of the command output, or the reason the
	// command did not run.
	Diagnostic string        `json:"diagnostic,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Duration   time.Duration `json:"-"`
	Command    string        `json:"command,omitempty"`
	RunID      string        `json:"run_id,omitempty"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	type alias Outcome
	return json.Marshal(struct {
		alias
		DurationMS int64 `json:"duration_ms"`
	}{alias(o), o.Duration.Milliseconds()})
}

// OK reports whether the repository ended up current with its remote.
func (o Outcome) OK() bool {
	return o.Status == vcs.StatusUpdated || o.Status == vcs.StatusAlreadyCurrent
}

// DiscoveryError records a directory that could not be inspected. It is not a
// repository and has no Outcome.
type DiscoveryError struct {
	Path    string `json:"path"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

func NewDiscoveryError(err error) DiscoveryError {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return DiscoveryError{Path: pe.Path, Op: pe.Op, Message: pe.Err.Error()}
	}
	return DiscoveryError{Message: err.Error()}
}

func (e DiscoveryError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Summary is the aggregate of one run.
type Summary struct {
	RunID           string             `json:"run_id,omitempty"`
	Roots           []string           `json:"roots,omitempty"`
	Counts          map[vcs.Status]int `json:"counts"`
	Total           int                `json:"total"`
	Outcomes        []Outcome          `json:"outcomes"`
	DiscoveryErrors []DiscoveryError   `json:"discovery_errors,omitempty"`
	Cancelled       bool               `json:"cancelled,omitempty"`
	Duration        time.Duration      `json:"-"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	return json.Marshal(struct {
		alias
		DurationMS int64 `json:"duration_ms"`
	}{alias(s), s.Duration.Milliseconds()})
}

func (s Summary) Count(st vcs.Status) int {
	return s.Counts[st]
}

// Has reports whether any outcome has one of statuses.
func (s Summary) Has(statuses ...vcs.Status) bool {
	for _, st := range statuses {
		if s.Counts[st] > 0 {
			return true
		}
	}
	return false
}

// CountsLine renders non-zero counts in vcs.Statuses order, e.g.
// "1 updated, 3 already-current".
func (s Summary) CountsLine() string {
	var parts []string
	for _, st := range vcs.Statuses {
		if n := s.Counts[st]; n > 0 {
			parts = append(parts, itoa(n)+" "+string(st))
		}
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, ", ")
}

// SortByIndex orders outcomes by discovery index.
func SortByIndex(outcomes []Outcome) {
	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })
}
