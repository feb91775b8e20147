// Package models defines the run and audit records shared by the engines,
// the dispatcher and the history store.
package models

import (
	"strings"
	"time"
)

// RunStatus represents the current state of a recorded run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
	RunStatusErrored RunStatus = "errored"
)

// RunRequest is one unit of work submitted to an engine: a whole suite, or a
// single case when Case is set, against one browser target.
type RunRequest struct {
	ID       string `json:"id"`
	BatchID  string `json:"batch_id"`
	Suite    string `json:"suite"`
	Case     string `json:"case,omitempty"`
	File     string `json:"file"`
	Target   string `json:"target"`
	Headless bool   `json:"headless"`
}

// Label is a short human readable name for logs and reports.
func (r RunRequest) Label() string {
	parts := []string{r.Suite}
	if r.Case != "" {
		parts = append(parts, r.Case)
	}
	return strings.Join(parts, " > ") + " [" + r.Target + "]"
}

// Run is the recorded history of one dispatched request.
type Run struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	Suite     string    `json:"suite"`
	Case      string    `json:"case,omitempty"`
	Target    string    `json:"target"`
	File      string    `json:"file"`
	Engine    string    `json:"engine"`
	Status    RunStatus `json:"status"`
	ExitCode  int       `json:"exit_code"`
	Stdout    string    `json:"stdout"`
	Stderr    string    `json:"stderr"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Duration is zero for a run that has not finished.
func (r Run) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// PDREntry represents a Process Decision Record for audit.
type PDREntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	Subject    string    `json:"subject,omitempty"` // suite, batch or project the record is about
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
