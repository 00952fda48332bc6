// Package planner implements the job orchestrator: it wraps one search
// invocation per client into a long-running, cancellable,
// progress-reporting job addressable by an opaque id.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuforge/v1/internal/application/solver"
	"github.com/menuforge/v1/internal/domain/job"
	"github.com/menuforge/v1/internal/domain/plan"
	"github.com/menuforge/v1/internal/infrastructure/monitoring"
	"github.com/menuforge/v1/internal/ports/inbound"
	"github.com/menuforge/v1/internal/ports/outbound"
)

// Service implements inbound.PlannerService. Each accepted request runs
// as one goroutine; the service only tracks the cancel function so a
// delete can signal cooperative cancellation.
type Service struct {
	catalog outbound.CatalogProvider
	jobs    outbound.JobRepository
	metrics *monitoring.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewService creates a planner service.
func NewService(
	catalog outbound.CatalogProvider,
	jobs outbound.JobRepository,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		catalog: catalog,
		jobs:    jobs,
		metrics: metrics,
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
	}
}

var _ inbound.PlannerService = (*Service)(nil)

// StartWeeklyPlan validates the request synchronously, allocates a job
// record in state queued and launches the search in the background. The
// returned id is immediately pollable.
func (s *Service) StartWeeklyPlan(ctx context.Context, cmd inbound.StartPlanCommand) (string, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching catalog snapshot: %w", err)
	}

	weeks, err := plan.BuildWeeks(snap, cmd.StartDate, cmd.EndDate, cmd.ClientIDs)
	if err != nil {
		return "", err
	}

	now := time.Now()
	rec := &job.Record{
		ID:        uuid.New().String(),
		Status:    job.StatusQueued,
		Progress:  "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("creating job record: %w", err)
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[rec.ID] = cancel
	s.mu.Unlock()

	s.metrics.JobsStarted.Inc()
	s.logger.Info("Generation job accepted",
		zap.String("job_id", rec.ID),
		zap.Int("clients", len(weeks)),
		zap.Time("start_date", cmd.StartDate),
		zap.Time("end_date", cmd.EndDate),
	)

	go s.execute(jobCtx, rec, weeks)
	return rec.ID, nil
}

// JobStatus returns a snapshot of the job record.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*job.Record, error) {
	return s.jobs.Get(ctx, jobID)
}

// CancelJob releases the record and signals the owning goroutine to
// stop at its next checkpoint. Idempotent by construction: a missing
// cancel function or record is not an error.
func (s *Service) CancelJob(ctx context.Context, jobID string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[jobID]
	if ok {
		delete(s.cancels, jobID)
	}
	s.mu.Unlock()

	if ok {
		cancel()
		s.metrics.JobsCancelled.Inc()
		s.logger.Info("Generation job cancelled", zap.String("job_id", jobID))
	}
	return s.jobs.Delete(ctx, jobID)
}

// execute runs the whole job: one search per client, in request order,
// with a progress write and a cancellation check at every client
// boundary. Per-client infeasibility continues to the next client; only
// an unexpected engine fault moves the job to error.
func (s *Service) execute(ctx context.Context, rec *job.Record, weeks []*plan.Week) {
	defer s.release(rec.ID)
	defer func() {
		if r := recover(); r != nil {
			s.fail(rec, fmt.Sprintf("engine fault: %v", r))
		}
	}()

	rec.Status = job.StatusRunning
	if !s.writeProgress(rec, 0, len(weeks)) {
		return
	}

	results := make([]*solver.Result, 0, len(weeks))
	for i, week := range weeks {
		if ctx.Err() != nil {
			s.logger.Info("Job stopped at client boundary",
				zap.String("job_id", rec.ID),
				zap.Int("clients_done", i),
			)
			return
		}

		started := time.Now()
		res, err := solver.Solve(ctx, week)
		if err != nil {
			// Only cancellation escapes the engine.
			return
		}
		s.metrics.SolveDuration.Observe(time.Since(started).Seconds())
		s.metrics.SolverBacktracks.Add(float64(res.Backtracks))
		s.metrics.SolverNodes.Add(float64(res.Nodes))
		if !res.Feasible {
			s.metrics.ClientsInfeasible.Inc()
			s.logger.Warn("Client week infeasible",
				zap.String("job_id", rec.ID),
				zap.Int64("client_id", week.Client.ID),
			)
		}
		results = append(results, res)

		if !s.writeProgress(rec, i+1, len(weeks)) {
			return
		}
	}

	rec.Status = job.StatusCompleted
	rec.Result = assembleDocument(weeks, results)
	rec.Progress = fmt.Sprintf("%d/%d clientes procesados", len(weeks), len(weeks))
	rec.ProgressPercent = 100
	rec.UpdatedAt = time.Now()
	if err := s.writeTerminal(rec); err != nil {
		// Deleted mid-flight: the caller gave up, nothing to keep.
		return
	}
	s.metrics.JobsCompleted.Inc()
	s.logger.Info("Generation job completed", zap.String("job_id", rec.ID))
}

// writeProgress persists a progress update. A false return means the
// record was deleted and the job must stop without resurrecting it.
// Any other store failure is tolerated: progress is advisory and a
// later write, including the terminal one, will catch up.
func (s *Service) writeProgress(rec *job.Record, done, total int) bool {
	rec.Progress = fmt.Sprintf("%d/%d clientes procesados", done, total)
	if total > 0 {
		rec.ProgressPercent = done * 100 / total
	}
	rec.UpdatedAt = time.Now()

	err := s.jobs.Update(context.Background(), rec)
	switch {
	case err == nil:
		return true
	case errors.Is(err, job.ErrNotFound):
		return false
	default:
		s.logger.Warn("Progress write failed",
			zap.String("job_id", rec.ID),
			zap.Error(err),
		)
		return true
	}
}

// writeTerminal persists a terminal record, retrying transient store
// failures so a finished job never lingers as running. job.ErrNotFound
// is final: the record was deleted and stays deleted.
func (s *Service) writeTerminal(rec *job.Record) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}
		err = s.jobs.Update(context.Background(), rec)
		if err == nil || errors.Is(err, job.ErrNotFound) {
			return err
		}
		s.logger.Warn("Terminal write failed",
			zap.String("job_id", rec.ID),
			zap.Error(err),
		)
	}
	return err
}

// fail moves the job to its terminal error state.
func (s *Service) fail(rec *job.Record, msg string) {
	rec.Status = job.StatusError
	rec.Error = msg
	rec.Result = nil
	rec.UpdatedAt = time.Now()
	if err := s.writeTerminal(rec); err != nil {
		return
	}
	s.metrics.JobsFailed.Inc()
	s.logger.Error("Generation job failed",
		zap.String("job_id", rec.ID),
		zap.String("reason", msg),
	)
}

// release drops the cancel registration once the goroutine exits.
func (s *Service) release(jobID string) {
	s.mu.Lock()
	if cancel, ok := s.cancels[jobID]; ok {
		delete(s.cancels, jobID)
		cancel()
	}
	s.mu.Unlock()
}
