// Package redis provides a Redis-backed job repository for deployments
// where job records must survive a process restart.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/menuforge/v1/internal/domain/job"
	"github.com/menuforge/v1/internal/ports/outbound"
)

const keyPrefix = "menuforge:jobs:"

// runningExpiry bounds how long a non-terminal record can exist. It is
// refreshed on every progress write, so it only fires when the owning
// process died without a terminal write; pollers then get a 404 instead
// of an eternal "running".
const runningExpiry = 24 * time.Hour

// JobRepository implements outbound.JobRepository on Redis. Records are
// stored as JSON; the reap policy is Redis-native: terminal records get
// an expiry, live ones do not.
type JobRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJobRepository creates a Redis job repository. Terminal records
// expire after ttl.
func NewJobRepository(client *redis.Client, ttl time.Duration) *JobRepository {
	return &JobRepository{client: client, ttl: ttl}
}

var _ outbound.JobRepository = (*JobRepository)(nil)

// Create stores a new record.
func (r *JobRepository) Create(ctx context.Context, rec *job.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling job record: %w", err)
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+rec.ID, payload, runningExpiry).Result()
	if err != nil {
		return fmt.Errorf("storing job record: %w", err)
	}
	if !ok {
		return job.ErrAlreadyExists
	}
	return nil
}

// Get returns a snapshot of the record.
func (r *JobRepository) Get(ctx context.Context, id string) (*job.Record, error) {
	payload, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading job record: %w", err)
	}

	var rec job.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling job record: %w", err)
	}
	return &rec, nil
}

// Update replaces the stored record, keeping a deleted record deleted.
// SET XX makes the write-if-exists atomic, preserving the discipline
// that a cancellation delete wins over late worker updates.
func (r *JobRepository) Update(ctx context.Context, rec *job.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling job record: %w", err)
	}

	expiry := runningExpiry
	if rec.Status.Terminal() {
		expiry = r.ttl
	}

	ok, err := r.client.SetXX(ctx, keyPrefix+rec.ID, payload, expiry).Result()
	if err != nil {
		return fmt.Errorf("updating job record: %w", err)
	}
	if !ok {
		return job.ErrNotFound
	}
	return nil
}

// Delete releases the record. Idempotent.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting job record: %w", err)
	}
	return nil
}
