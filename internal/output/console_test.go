package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"updaterepos/internal/outcome"
	"updaterepos/internal/vcs"
)

func init() {
	color.NoColor = true
}

func testOutcome(index int, path string, st vcs.Status, diag string) outcome.Outcome {
	return outcome.Outcome{
		Index:      index,
		Repo:       vcs.Repository{Path: path, Kind: vcs.KindGit, Root: "/src"},
		Status:     st,
		Diagnostic: diag,
		Command:    "git pull --ff-only",
		Duration:   1500 * time.Millisecond,
	}
}

func TestConsoleSink_Filtering(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		filterStatuses []string
		input          outcome.Outcome
		shouldWrite    bool
	}{
		{
			name:        "text - no filter - updated",
			format:      "text",
			input:       testOutcome(0, "/src/a", vcs.StatusUpdated, ""),
			shouldWrite: true,
		},
		{
			name:           "text - filter failed - input updated",
			format:         "text",
			filterStatuses: []string{"failed"},
			input:          testOutcome(0, "/src/a", vcs.StatusUpdated, ""),
			shouldWrite:    false,
		},
		{
			name:           "text - filter failed - input failed",
			format:         "text",
			filterStatuses: []string{"failed"},
			input:          testOutcome(0, "/src/a", vcs.StatusFailed, "fatal: boom"),
			shouldWrite:    true,
		},
		{
			name:           "text - filter failed,needs-attention - input needs-attention",
			format:         "text",
			filterStatuses: []string{"failed", "needs-attention"},
			input:          testOutcome(0, "/src/a", vcs.StatusNeedsAttention, ""),
			shouldWrite:    true,
		},
		{
			name:           "json - filter failed - input updated",
			format:         "json",
			filterStatuses: []string{"failed"},
			input:          testOutcome(0, "/src/a", vcs.StatusUpdated, ""),
			shouldWrite:    false,
		},
		{
			name:           "ndjson - filter skipped - input skipped",
			format:         "ndjson",
			filterStatuses: []string{"skipped"},
			input:          testOutcome(0, "/src/a", vcs.StatusSkipped, ""),
			shouldWrite:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewConsoleSink(&buf, tt.format, tt.filterStatuses, false)
			if err := sink.Write(tt.input); err != nil {
				t.Fatalf("Write error: %v", err)
			}
			if tt.format == "json" {
				if err := sink.Close(); err != nil {
					t.Fatalf("Close error: %v", err)
				}
				var sum outcome.Summary
				if err := json.Unmarshal(buf.Bytes(), &sum); err != nil {
					t.Fatalf("invalid json: %v\n%s", err, buf.String())
				}
				if got := len(sum.Outcomes) == 1; got != tt.shouldWrite {
					t.Fatalf("outcomes written = %v, want %v", got, tt.shouldWrite)
				}
				return
			}
			if got := buf.Len() > 0; got != tt.shouldWrite {
				t.Fatalf("written = %v, want %v (output %q)", got, tt.shouldWrite, buf.String())
			}
		})
	}
}

func TestConsoleSink_TextOutcome(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil, false)

	_ = sink.Write(testOutcome(0, "/src/a", vcs.StatusUpdated, "Fast-forward\n 1 file changed"))
	_ = sink.Write(testOutcome(1, "/src/b", vcs.StatusFailed, "fatal: unable to access remote"))

	out := buf.String()
	if !strings.Contains(out, "updated         /src/a (git, 1.5s)") {
		t.Fatalf("missing updated line:\n%s", out)
	}
	if strings.Contains(out, "Fast-forward") {
		t.Fatalf("diagnostics for successful outcomes only with verbose:\n%s", out)
	}
	if !strings.Contains(out, "    fatal: unable to access remote") {
		t.Fatalf("missing failed diagnostic:\n%s", out)
	}
	if strings.Contains(out, "$ git pull") {
		t.Fatalf("command line only with verbose:\n%s", out)
	}
}

func TestConsoleSink_TextVerbose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", nil, true)

	_ = sink.Write(testOutcome(0, "/src/a", vcs.StatusUpdated, "Fast-forward"))

	out := buf.String()
	if !strings.Contains(out, "    $ git pull --ff-only") || !strings.Contains(out, "    Fast-forward") {
		t.Fatalf("verbose output missing command or diagnostic:\n%s", out)
	}
}

func TestConsoleSink_TextSummaryAndErrors(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "text", []string{"failed"}, false)

	_ = sink.Write(outcome.DiscoveryError{Path: "/src/locked", Op: "open", Message: "permission denied"})
	_ = sink.Write(outcome.Summary{
		Counts:          map[vcs.Status]int{vcs.StatusUpdated: 1, vcs.StatusAlreadyCurrent: 1},
		Total:           2,
		DiscoveryErrors: []outcome.DiscoveryError{{Path: "/src/locked"}},
		Duration:        2 * time.Second,
	})
	_ = sink.Write(Event{Type: EventRunStarted})

	out := buf.String()
	for _, want := range []string{
		"/src/locked: permission denied",
		"2 repositories: 1 updated, 1 already-current (2s)",
		"1 directory could not be read",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "run.started") {
		t.Fatalf("events are not printed in text mode:\n%s", out)
	}
}

func TestConsoleSink_JSONPrefersFinalSummary(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, "json", nil, false)

	_ = sink.Write(testOutcome(1, "/src/b", vcs.StatusUpdated, ""))
	_ = sink.Write(testOutcome(0, "/src/a", vcs.StatusFailed, ""))
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var sum struct {
		Total    int `json:"total"`
		Outcomes []struct {
			Index  int    `json:"index"`
			Status string `json:"status"`
		} `json:"outcomes"`
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(buf.Bytes(), &sum); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if sum.Total != 2 || sum.Outcomes[0].Index != 0 || sum.Counts["failed"] != 1 {
		t.Fatalf("unexpected rebuilt summary: %+v", sum)
	}

	buf.Reset()
	sink = NewConsoleSink(&buf, "json", nil, false)
	_ = sink.Write(testOutcome(0, "/src/a", vcs.StatusUpdated, ""))
	_ = sink.Write(outcome.Summary{RunID: "run-1", Counts: map[vcs.Status]int{vcs.StatusUpdated: 1}, Total: 1, Outcomes: []outcome.Outcome{testOutcome(0, "/src/a", vcs.StatusUpdated, "")}})
	_ = sink.Close()
	if !strings.Contains(buf.String(), `"run_id": "run-1"`) {
		t.Fatalf("final summary should be written as-is:\n%s", buf.String())
	}
}

func TestConsoleSink_UnsupportedFormat(t *testing.T) {
	sink := NewConsoleSink(&bytes.Buffer{}, "yaml", nil, false)
	if err := sink.Write(testOutcome(0, "/src/a", vcs.StatusUpdated, "")); err == nil {
		t.Fatalf("want error for unsupported format")
	}
}
