package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"updaterepos/internal/outcome"
	"updaterepos/internal/vcs"
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	verbose         bool
	mu              sync.Mutex
	collected       collector // For JSON output
	allowedStatuses map[vcs.Status]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string, verbose bool) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer:  w,
		format:  format,
		verbose: verbose,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[vcs.Status]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[vcs.Status(strings.ToLower(strings.TrimSpace(st)))] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	// Apply filtering if configured
	if len(s.allowedStatuses) > 0 {
		if o, ok := v.(outcome.Outcome); ok && !s.allowedStatuses[o.Status] {
			return nil
		}
	}

	switch s.format {
	case "json":
		s.collected.add(v)
		return nil
	case "ndjson":
		e, ok := eventFor(v)
		if !ok {
			return nil
		}
		if err := json.NewEncoder(s.writer).Encode(e); err != nil {
			return err
		}
		return flushLine(s.writer)
	case "text":
		if err := s.writeText(v); err != nil {
			return err
		}
		return flushLine(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(v any) error {
	switch t := v.(type) {
	case outcome.Outcome:
		return s.writeOutcome(t)
	case outcome.DiscoveryError:
		_, err := fmt.Fprintf(s.writer, "%s %s\n", statusColor("error").Sprintf("%-15s", "error"), t.Error())
		return err
	case outcome.Summary:
		return s.writeSummary(t)
	default:
		// Ignore events in text mode.
		return nil
	}
}

func (s *ConsoleSink) writeOutcome(o outcome.Outcome) error {
	label := statusColor(string(o.Status)).Sprintf("%-15s", o.Status)
	if _, err := fmt.Fprintf(s.writer, "%s %s (%s, %s)\n", label, o.Repo.Path, o.Repo.Kind, formatDuration(o.Duration)); err != nil {
		return err
	}
	if s.verbose && o.Command != "" {
		if _, err := fmt.Fprintf(s.writer, "    $ %s\n", o.Command); err != nil {
			return err
		}
	}
	if o.Diagnostic == "" || (o.OK() && !s.verbose) {
		return nil
	}
	for _, line := range strings.Split(o.Diagnostic, "\n") {
		if _, err := fmt.Fprintf(s.writer, "    %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConsoleSink) writeSummary(sum outcome.Summary) error {
	noun := "repositories"
	if sum.Total == 1 {
		noun = "repository"
	}
	line := fmt.Sprintf("%d %s: %s (%s)", sum.Total, noun, sum.CountsLine(), formatDuration(sum.Duration))
	if _, err := fmt.Fprintf(s.writer, "\n%s\n", color.New(color.Bold).Sprint(line)); err != nil {
		return err
	}
	if n := len(sum.DiscoveryErrors); n > 0 {
		if _, err := fmt.Fprintf(s.writer, "%s\n", statusColor("error").Sprintf("%d director%s could not be read", n, plural(n, "y", "ies"))); err != nil {
			return err
		}
	}
	if sum.Cancelled {
		if _, err := fmt.Fprintln(s.writer, statusColor(string(vcs.StatusCancelled)).Sprint("run cancelled")); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.collected.final()); err != nil {
			return err
		}
		return flushLine(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}

var statusColors = map[string]*color.Color{
	string(vcs.StatusUpdated):        color.New(color.FgGreen, color.Bold),
	string(vcs.StatusAlreadyCurrent): color.New(color.FgGreen),
	string(vcs.StatusNeedsAttention): color.New(color.FgYellow, color.Bold),
	string(vcs.StatusFailed):         color.New(color.FgRed, color.Bold),
	string(vcs.StatusTimedOut):       color.New(color.FgRed),
	string(vcs.StatusCancelled):      color.New(color.FgMagenta),
	string(vcs.StatusSkipped):        color.New(color.Faint),
	string(vcs.StatusUnknown):        color.New(color.FgCyan),
	"error":                          color.New(color.FgRed),
}

func statusColor(status string) *color.Color {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return color.New(color.Reset)
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
