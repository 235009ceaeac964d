package output

import (
	"updaterepos/internal/outcome"
	"updaterepos/internal/vcs"
)

// Event types emitted in NDJSON mode.
const (
	EventRunStarted     = "run.started"
	EventRepoFinished   = "repo.finished"
	EventDiscoveryError = "discovery.error"
	EventRunSummary     = "run.summary"
	EventRunFinished    = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - repo.finished (one per repository, in completion order)
// - discovery.error
// - run.summary
// - run.finished
//
// JSON mode instead writes the final outcome.Summary as one object.
type Event struct {
	Type     string                  `json:"type"`
	RunID    string                  `json:"run_id,omitempty"`
	Roots    []string                `json:"roots,omitempty"`
	Outcome  *outcome.Outcome        `json:"outcome,omitempty"`
	Error    *outcome.DiscoveryError `json:"error,omitempty"`
	Counts   map[vcs.Status]int      `json:"counts,omitempty"`
	Total    int                     `json:"total,omitempty"`
	ExitCode *int                    `json:"exit_code,omitempty"`
}

// RunFinished builds the closing event.
func RunFinished(runID string, exitCode int) Event {
	return Event{Type: EventRunFinished, RunID: runID, ExitCode: &exitCode}
}

// eventFor converts the values written by the engine into stream events.
func eventFor(v any) (Event, bool) {
	switch t := v.(type) {
	case Event:
		return t, true
	case outcome.Outcome:
		return Event{Type: EventRepoFinished, Outcome: &t}, true
	case outcome.DiscoveryError:
		return Event{Type: EventDiscoveryError, Error: &t}, true
	case outcome.Summary:
		return Event{Type: EventRunSummary, RunID: t.RunID, Counts: t.Counts, Total: t.Total}, true
	default:
		return Event{}, false
	}
}
