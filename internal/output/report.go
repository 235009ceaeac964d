package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"updaterepos/internal/outcome"
	"updaterepos/internal/vcs"
)

// ReportSink writes a Markdown run report on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	collected    collector
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := createWithDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := v.(Event); ok {
		if e.Type == EventRunFinished && e.ExitCode != nil {
			s.exitCode = *e.ExitCode
			s.haveExitCode = true
		}
		return nil
	}
	s.collected.add(v)
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.file.WriteString(s.render(s.collected.final()))
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (s *ReportSink) render(sum outcome.Summary) string {
	var b strings.Builder
	b.WriteString("# Repository Update Report\n\n")

	if sum.RunID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", sum.RunID)
	}
	if len(sum.Roots) > 0 {
		fmt.Fprintf(&b, "- Roots: %s\n", codeList(sum.Roots))
	}
	fmt.Fprintf(&b, "- Repositories: %d\n", sum.Total)
	fmt.Fprintf(&b, "- Duration: %s\n", formatDuration(sum.Duration))
	if s.haveExitCode {
		fmt.Fprintf(&b, "- Exit code: %d\n", s.exitCode)
	}
	if sum.Cancelled {
		b.WriteString("- **Run cancelled before completion.**\n")
	}

	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Status | Count |\n|---|---:|\n")
	for _, st := range vcs.Statuses {
		if n := sum.Counts[st]; n > 0 {
			fmt.Fprintf(&b, "| %s | %d |\n", st, n)
		}
	}

	var attention []outcome.Outcome
	for _, o := range sum.Outcomes {
		if !o.OK() {
			attention = append(attention, o)
		}
	}
	if len(attention) > 0 {
		b.WriteString("\n## Needs a look\n\n")
		for _, o := range attention {
			fmt.Fprintf(&b, "### `%s` (%s, %s)\n\n", o.Repo.Path, o.Repo.Kind, o.Status)
			if o.Command != "" {
				fmt.Fprintf(&b, "Command: `%s` (exit %d)\n\n", o.Command, o.ExitCode)
			}
			if o.Diagnostic != "" {
				b.WriteString("```\n")
				b.WriteString(o.Diagnostic)
				b.WriteString("\n```\n\n")
			}
		}
	}

	if len(sum.DiscoveryErrors) > 0 {
		b.WriteString("\n## Discovery errors\n\n")
		for _, e := range sum.DiscoveryErrors {
			fmt.Fprintf(&b, "- `%s`: %s\n", e.Path, e.Message)
		}
	}

	b.WriteString("\n## All repositories\n\n")
	if len(sum.Outcomes) == 0 {
		b.WriteString("No repositories found.\n")
		return b.String()
	}
	b.WriteString("| # | Repository | Kind | Status | Duration |\n|---:|---|---|---|---:|\n")
	for _, o := range sum.Outcomes {
		fmt.Fprintf(&b, "| %d | `%s` | %s | %s | %s |\n", o.Index+1, o.Repo.Path, o.Repo.Kind, o.Status, formatDuration(o.Duration))
	}
	return b.String()
}

func codeList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "`" + it + "`"
	}
	return strings.Join(quoted, ", ")
}
