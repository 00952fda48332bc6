// Package inbound defines the interfaces for inbound ports
// (primary/driving adapters): the use cases the application exposes to
// HTTP handlers and other callers.
package inbound

import (
	"context"
	"time"

	"github.com/menuforge/v1/internal/domain/job"
)

// PlannerService is the primary port for weekly plan generation. Start
// is asynchronous: it validates the request, allocates a job record and
// returns immediately; callers poll JobStatus until a terminal state.
type PlannerService interface {
	// StartWeeklyPlan validates the request and launches a generation
	// job. Invalid requests are rejected synchronously and never enter
	// the async pipeline.
	StartWeeklyPlan(ctx context.Context, cmd StartPlanCommand) (string, error)

	// JobStatus returns a snapshot of the job record, or
	// job.ErrNotFound for unknown or reaped ids.
	JobStatus(ctx context.Context, jobID string) (*job.Record, error)

	// CancelJob releases the job and signals cooperative cancellation.
	// Idempotent: cancelling twice is equivalent to cancelling once.
	CancelJob(ctx context.Context, jobID string) error
}

// StartPlanCommand carries one generation request.
type StartPlanCommand struct {
	StartDate time.Time
	EndDate   time.Time
	ClientIDs []int64
}

// TaskService is the task-queue flavored entry point the delegation UI
// uses. A generate_weekly_menu task wraps the same planner job; the
// finished plan surfaces at the task's metadata under "result".
type TaskService interface {
	CreateTask(ctx context.Context, cmd CreateTaskCommand) (*TaskDTO, error)
	GetTask(ctx context.Context, taskID string) (*TaskDTO, error)
	ListTasks(ctx context.Context) ([]*TaskDTO, error)
}

// CreateTaskCommand carries a task creation request.
type CreateTaskCommand struct {
	Type     string
	Title    string
	Priority string
	Metadata TaskMetadata
}

// TaskMetadata is the typed part of a task's metadata payload.
type TaskMetadata struct {
	StartDate string  `json:"fecha_inicio"`
	ClientIDs []int64 `json:"clientes"`
}

// TaskDTO is the wire representation of a task.
type TaskDTO struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Status    string                 `json:"status"`
	Priority  string                 `json:"priority"`
	Progress  int                    `json:"progress"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}
