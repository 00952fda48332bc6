// Package memory provides the in-memory job repository, the default
// store for job records.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/menuforge/v1/internal/domain/job"
	"github.com/menuforge/v1/internal/ports/outbound"
)

// JobRepository implements outbound.JobRepository with a lock-guarded
// map. Records are stored and returned as copies, so pollers always see
// an atomic snapshot while the single owning goroutine keeps writing.
type JobRepository struct {
	ttl   time.Duration
	mu    sync.RWMutex
	data  map[string]*job.Record
	done  chan struct{}
	close sync.Once
}

// NewJobRepository creates a repository whose terminal records expire
// after ttl. The reaper sweeps every interval until Close.
func NewJobRepository(ttl, interval time.Duration) *JobRepository {
	r := &JobRepository{
		ttl:  ttl,
		data: make(map[string]*job.Record),
		done: make(chan struct{}),
	}
	go r.reap(interval)
	return r
}

var _ outbound.JobRepository = (*JobRepository)(nil)

// Create stores a new record.
func (r *JobRepository) Create(ctx context.Context, rec *job.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[rec.ID]; exists {
		return job.ErrAlreadyExists
	}
	r.data[rec.ID] = rec.Clone()
	return nil
}

// Get returns a snapshot of the record.
func (r *JobRepository) Get(ctx context.Context, id string) (*job.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.data[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	return rec.Clone(), nil
}

// Update replaces the stored record. A deleted record stays deleted.
func (r *JobRepository) Update(ctx context.Context, rec *job.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[rec.ID]; !ok {
		return job.ErrNotFound
	}
	r.data[rec.ID] = rec.Clone()
	return nil
}

// Delete releases the record. Idempotent.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, id)
	return nil
}

// Close stops the reaper goroutine.
func (r *JobRepository) Close() {
	r.close.Do(func() { close(r.done) })
}

// reap removes terminal records older than the TTL so stale jobs never
// accumulate unboundedly.
func (r *JobRepository) reap(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.reapOnce(time.Now())
		}
	}
}

func (r *JobRepository) reapOnce(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.data {
		if rec.Status.Terminal() && now.Sub(rec.UpdatedAt) > r.ttl {
			delete(r.data, id)
		}
	}
}
