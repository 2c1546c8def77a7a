package output

// Level classifies a console finding.
type Level string

const (
	LevelInfo  Level = "info"
	LevelFixed Level = "fixed"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Finding is one line of the audit report.
type Finding struct {
	Check   string `json:"check"`
	Level   Level  `json:"level"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Event is a lifecycle record for NDJSON streaming output.
//
// Types emitted during a run:
// - run.started
// - check.started
// - finding
// - check.finished
// - run.finished
type Event struct {
	Type  string `json:"type"`
	Repo  string `json:"repo,omitempty"`
	Check string `json:"check,omitempty"`
	*Finding
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
	Checks   int    `json:"checks,omitempty"`
	Aborted  bool   `json:"aborted,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

func eventFromFinding(f Finding) Event {
	return Event{Type: "finding", Check: f.Check, Finding: &f}
}
