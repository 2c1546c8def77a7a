package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

const (
	FormatText   = "text"
	FormatNDJSON = "ndjson"
)

// ConsoleSink prints the audit report.
//
// Formats:
//   - text: one human-readable line per Finding; lifecycle events are ignored
//   - ndjson: every Event (and each Finding wrapped as a "finding" Event) as one JSON object per line
type ConsoleSink struct {
	writer   io.Writer
	format   string
	colorize bool
	mu       sync.Mutex
	palette  map[Level]*color.Color
}

// NewConsoleSink builds a console sink. A nil writer means color.Output
// (stdout, with Windows console support).
func NewConsoleSink(w io.Writer, format string, colorize bool) (*ConsoleSink, error) {
	if w == nil {
		w = color.Output
	}
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatNDJSON {
		return nil, fmt.Errorf("unsupported console format: %s", format)
	}

	s := &ConsoleSink{
		writer:   w,
		format:   format,
		colorize: colorize,
		palette: map[Level]*color.Color{
			LevelFixed: color.New(color.FgGreen),
			LevelWarn:  color.New(color.FgYellow),
			LevelError: color.New(color.FgRed, color.Bold),
		},
	}
	for _, c := range s.palette {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s, nil
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case FormatNDJSON:
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
		case Finding:
			if err := encoder.Encode(eventFromFinding(t)); err != nil {
				return err
			}
		default:
			return nil
		}
		return flushIfPossible(s.writer)
	default:
		f, ok := v.(Finding)
		if !ok {
			return nil
		}
		if c, ok := s.palette[f.Level]; ok {
			if _, err := c.Fprintln(s.writer, f.Message); err != nil {
				return err
			}
		} else if _, err := fmt.Fprintln(s.writer, f.Message); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return flushIfPossible(s.writer)
}

// flusher matches buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
