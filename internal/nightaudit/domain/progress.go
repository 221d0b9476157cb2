package domain

import (
	"context"
	"time"
)

// ErrorKind is the machine-readable reason a run failed.
type ErrorKind string

const (
	ErrorKindPersistence ErrorKind = "persistence"
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindConflict    ErrorKind = "conflict"
	ErrorKindReport      ErrorKind = "report"
	ErrorKindPanic       ErrorKind = "panic"
	// ErrorKindInterrupted marks runs whose process died before finishing.
	ErrorKindInterrupted ErrorKind = "interrupted"
)

const InterruptedMessage = "run did not finish before its process stopped"

const (
	TriggerManual = "manual"
	TriggerAuto   = "auto"
)

// ProgressRecord is what pollers see while a run executes. Only the pipeline
// owning the run writes to it.
type ProgressRecord struct {
	ID          string     `json:"id"`
	Percent     int        `json:"percent"`
	CurrentStep int        `json:"current_step"`
	Steps       []string   `json:"steps"`
	Messages    []string   `json:"messages"`
	IsCompleted bool       `json:"is_completed"`
	IsSuccess   bool       `json:"is_success"`
	ReportPath  string     `json:"report_path,omitempty"`
	ErrorKind   ErrorKind  `json:"error_kind,omitempty"`
	Error       string     `json:"error,omitempty"`
	OperatorID  string     `json:"operator_id,omitempty"`
	Trigger     string     `json:"trigger,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Clone returns a copy that shares no slices with r. Steps and Messages are
// never nil in the copy so they encode as [] rather than null.
func (r ProgressRecord) Clone() ProgressRecord {
	out := r
	out.Steps = append(make([]string, 0, len(r.Steps)), r.Steps...)
	out.Messages = append(make([]string, 0, len(r.Messages)), r.Messages...)
	if r.FinishedAt != nil {
		finished := *r.FinishedAt
		out.FinishedAt = &finished
	}
	return out
}

// ProgressStore keeps progress records. Update applies mutate under a
// per-record lock so readers always observe a whole mutation or none of it.
type ProgressStore interface {
	// Create stores seed under a freshly generated id and returns it.
	Create(ctx context.Context, seed ProgressRecord) (ProgressRecord, error)
	// Get returns false when id is unknown or expired.
	Get(ctx context.Context, id string) (ProgressRecord, bool, error)
	Update(ctx context.Context, id string, mutate func(*ProgressRecord)) error
}
