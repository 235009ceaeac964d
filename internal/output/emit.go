package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// EmitSink writes additional structured outputs.
//
// Formats:
//   - json: aggregates outcomes and writes the run summary as one JSON object on Close
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	writer    io.Writer
	format    string // "json" | "ndjson"
	mu        sync.Mutex
	collected collector
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	default:
		return fmt.Errorf("unsupported emit format: %s", s.format)
	}
}

func (s *EmitSink) Close() error {
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
	return nil
}
