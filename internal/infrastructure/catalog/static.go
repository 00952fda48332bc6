// Package catalog provides catalog snapshot adapters. The static
// provider reads the whole catalog from a JSON file once at startup;
// the company master-data service that feeds it is an external
// collaborator.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	domain "github.com/menuforge/v1/internal/domain/catalog"
	"github.com/menuforge/v1/internal/ports/outbound"
)

// StaticProvider serves a snapshot loaded from disk. The snapshot is
// validated at load time and never mutated afterwards.
type StaticProvider struct {
	snapshot *domain.Snapshot
}

// NewStaticProvider loads and validates the catalog file.
func NewStaticProvider(path string) (*StaticProvider, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("validating catalog file %s: %w", path, err)
	}

	return &StaticProvider{snapshot: &snap}, nil
}

var _ outbound.CatalogProvider = (*StaticProvider)(nil)

// Snapshot returns the loaded catalog.
func (p *StaticProvider) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	return p.snapshot, nil
}

// FixedProvider wraps an in-memory snapshot; used by tests and demo
// seeding.
type FixedProvider struct {
	snapshot *domain.Snapshot
}

// NewFixedProvider creates a provider over the given snapshot.
func NewFixedProvider(snap *domain.Snapshot) *FixedProvider {
	return &FixedProvider{snapshot: snap}
}

var _ outbound.CatalogProvider = (*FixedProvider)(nil)

// Snapshot returns the wrapped catalog.
func (p *FixedProvider) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	return p.snapshot, nil
}
