// Package tasks provides the task-queue flavored entry point used by
// the delegation UI. A generate_weekly_menu task wraps a planner job;
// task reads lazily sync from the job record, and the finished plan is
// copied into the task metadata before the job record is released.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuforge/v1/internal/domain/job"
	"github.com/menuforge/v1/internal/ports/inbound"
)

// TypeGenerateWeeklyMenu is the only task type the service executes.
const TypeGenerateWeeklyMenu = "generate_weekly_menu"

// weekSpan is the number of days a weekly task plans from its start
// date; the delegation UI sends only fecha_inicio.
const weekSpan = 7

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrUnsupportedType = errors.New("unsupported task type")
	ErrInvalidMetadata = errors.New("invalid task metadata")
)

type taskState struct {
	dto   inbound.TaskDTO
	jobID string
	done  bool
}

// Service implements inbound.TaskService on top of the planner.
// Finished tasks are retained for ttl after their last update, then
// pruned, mirroring the job store's reap policy.
type Service struct {
	planner inbound.PlannerService
	ttl     time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	tasks map[string]*taskState
	order []string
}

// NewService creates a task service retaining finished tasks for ttl.
func NewService(planner inbound.PlannerService, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		planner: planner,
		ttl:     ttl,
		logger:  logger,
		tasks:   make(map[string]*taskState),
	}
}

var _ inbound.TaskService = (*Service)(nil)

// CreateTask accepts a generate_weekly_menu task and starts the backing
// planner job. Invalid metadata rejects synchronously, like the direct
// entry point.
func (s *Service) CreateTask(ctx context.Context, cmd inbound.CreateTaskCommand) (*inbound.TaskDTO, error) {
	if cmd.Type != TypeGenerateWeeklyMenu {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, cmd.Type)
	}

	start, err := time.Parse("2006-01-02", cmd.Metadata.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha_inicio %q", ErrInvalidMetadata, cmd.Metadata.StartDate)
	}
	end := start.AddDate(0, 0, weekSpan-1)

	jobID, err := s.planner.StartWeeklyPlan(ctx, inbound.StartPlanCommand{
		StartDate: start,
		EndDate:   end,
		ClientIDs: cmd.Metadata.ClientIDs,
	})
	if err != nil {
		return nil, err
	}

	title := cmd.Title
	if title == "" {
		title = fmt.Sprintf("Menús semanales - Semana del %s (%d clientes)",
			cmd.Metadata.StartDate, len(cmd.Metadata.ClientIDs))
	}
	priority := cmd.Priority
	if priority == "" {
		priority = "medium"
	}

	now := time.Now()
	state := &taskState{
		jobID: jobID,
		dto: inbound.TaskDTO{
			ID:       uuid.New().String(),
			Type:     cmd.Type,
			Title:    title,
			Status:   "in_progress",
			Priority: priority,
			Metadata: map[string]interface{}{
				"fecha_inicio": cmd.Metadata.StartDate,
				"start_date":   cmd.Metadata.StartDate,
				"clientes":     cmd.Metadata.ClientIDs,
				"client_count": len(cmd.Metadata.ClientIDs),
				"job_id":       jobID,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.tasks[state.dto.ID] = state
	s.order = append(s.order, state.dto.ID)
	dto := snapshotDTO(state)
	s.mu.Unlock()

	s.logger.Info("Task created",
		zap.String("task_id", state.dto.ID),
		zap.String("job_id", jobID),
	)

	return dto, nil
}

// GetTask returns the task, synced against its backing job.
func (s *Service) GetTask(ctx context.Context, taskID string) (*inbound.TaskDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(time.Now())

	state, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	s.syncLocked(ctx, state)
	return snapshotDTO(state), nil
}

// ListTasks returns all tasks in creation order, each synced against
// its backing job.
func (s *Service) ListTasks(ctx context.Context) ([]*inbound.TaskDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(time.Now())

	out := make([]*inbound.TaskDTO, 0, len(s.order))
	for _, id := range s.order {
		state := s.tasks[id]
		s.syncLocked(ctx, state)
		out = append(out, snapshotDTO(state))
	}
	return out, nil
}

// snapshotDTO copies the task for a caller. The metadata map stays
// owned by the service and keeps changing until the task is done, so
// the caller gets its own copy.
func snapshotDTO(state *taskState) *inbound.TaskDTO {
	dto := state.dto
	meta := make(map[string]interface{}, len(state.dto.Metadata))
	for k, v := range state.dto.Metadata {
		meta[k] = v
	}
	dto.Metadata = meta
	return &dto
}

// pruneLocked drops finished tasks that outlived the retention window.
func (s *Service) pruneLocked(now time.Time) {
	kept := s.order[:0]
	for _, id := range s.order {
		state := s.tasks[id]
		if state.done && now.Sub(state.dto.UpdatedAt) > s.ttl {
			delete(s.tasks, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// syncLocked refreshes a live task from the job store. On completion
// the plan is copied into the task metadata and the job record is
// released so it does not outlive its usefulness.
func (s *Service) syncLocked(ctx context.Context, state *taskState) {
	if state.done {
		return
	}

	rec, err := s.planner.JobStatus(ctx, state.jobID)
	if err != nil {
		// Reaped or externally deleted before we copied the result.
		state.dto.Status = "failed"
		state.dto.Metadata["error"] = "job released before completion"
		state.dto.UpdatedAt = time.Now()
		state.done = true
		return
	}

	state.dto.Progress = rec.ProgressPercent
	state.dto.UpdatedAt = time.Now()

	switch rec.Status {
	case job.StatusCompleted:
		state.dto.Status = "completed"
		state.dto.Progress = 100
		state.dto.Metadata["result"] = rec.Result
		state.done = true
		if err := s.planner.CancelJob(ctx, state.jobID); err != nil {
			s.logger.Warn("Failed to release finished job",
				zap.String("job_id", state.jobID),
				zap.Error(err),
			)
		}
	case job.StatusError:
		state.dto.Status = "failed"
		state.dto.Metadata["error"] = rec.Error
		state.done = true
		if err := s.planner.CancelJob(ctx, state.jobID); err != nil {
			s.logger.Warn("Failed to release failed job",
				zap.String("job_id", state.jobID),
				zap.Error(err),
			)
		}
	default:
		state.dto.Status = "in_progress"
	}
}
