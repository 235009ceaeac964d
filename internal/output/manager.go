package output

import (
	"errors"
	"fmt"
)

// Sink defines a destination for run records: outcome.Outcome,
// outcome.DiscoveryError, outcome.Summary and Event values.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans every run record out to the configured sinks in the order
// they were added: console first, then the event stream, the results file
// and the report. A failing sink does not stop the others from seeing the
// record, and a closed Manager rejects further records.
type Manager struct {
	sinks  []Sink
	closed bool
}

var errManagerNil = errors.New("output manager is nil")

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(s Sink) error {
	switch {
	case m == nil:
		return errManagerNil
	case s == nil:
		return errors.New("sink must not be nil")
	case m.closed:
		return errors.New("output manager is closed")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Write delivers one record to every sink and joins their errors.
func (m *Manager) Write(v any) error {
	if m == nil {
		return errManagerNil
	}
	if m.closed {
		return fmt.Errorf("recording %T: output manager is closed", v)
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("recording %T: %w", v, err)
	}
	return nil
}

// Close closes every sink once. Later calls are no-ops.
func (m *Manager) Close() error {
	if m == nil {
		return errManagerNil
	}
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("closing outputs: %w", err)
	}
	return nil
}
