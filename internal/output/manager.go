package output

import (
	"errors"
	"fmt"
)

// Sink defines a destination for audit output.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans findings and events out to every sink.
type Manager struct {
	sinks []Sink
	// onError receives sink write failures from Report, which has no error return.
	onError func(error)
}

func NewManager() *Manager {
	return &Manager{}
}

// OnError registers a callback for write failures swallowed by Report.
func (m *Manager) OnError(fn func(error)) {
	if m != nil {
		m.onError = fn
	}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

// Report writes a finding. A broken stdout must not change what the audit does,
// so failures only reach the OnError callback.
func (m *Manager) Report(f Finding) {
	if err := m.Write(f); err != nil && m != nil && m.onError != nil {
		m.onError(err)
	}
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
