// Package job defines the lifecycle of one asynchronous generation job.
// A record is created queued, moves to running when the engine starts,
// and reaches exactly one terminal state. All writes to a record are
// made by the single orchestrator goroutine that owns the job; readers
// always observe a full snapshot.
package job

import (
	"time"

	"github.com/menuforge/v1/internal/domain/plan"
)

// Status is the observable state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Record is one job's stored state.
type Record struct {
	ID              string         `json:"id"`
	Status          Status         `json:"status"`
	Progress        string         `json:"progress"`
	ProgressPercent int            `json:"progress_percentage"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Result          *plan.Document `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Clone returns a copy safe to hand to concurrent readers. The result
// document is shared: it is immutable once attached.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}
