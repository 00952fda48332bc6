// Package outbound defines the interfaces for outbound ports
// (secondary/driven adapters): everything the application core needs
// from the outside world.
package outbound

import (
	"context"

	"github.com/menuforge/v1/internal/domain/catalog"
	"github.com/menuforge/v1/internal/domain/job"
)

// CatalogProvider supplies the read-only catalog snapshot a generation
// request operates on. The snapshot is fetched once per request; the
// solver's hot loop never touches the provider again.
type CatalogProvider interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// JobRepository stores job records for the lifetime of a job. Writes to
// a given record come from the single goroutine owning that job; Get
// may be called concurrently and must return an atomic snapshot.
type JobRepository interface {
	// Create stores a new record. Fails with job.ErrAlreadyExists on a
	// duplicate id.
	Create(ctx context.Context, rec *job.Record) error

	// Get returns a snapshot of the record, or job.ErrNotFound.
	Get(ctx context.Context, id string) (*job.Record, error)

	// Update replaces the stored record. Fails with job.ErrNotFound if
	// the record was deleted; the caller must not resurrect it.
	Update(ctx context.Context, rec *job.Record) error

	// Delete releases the record. Deleting an unknown id is not an
	// error.
	Delete(ctx context.Context, id string) error
}
