// Package journal persists pipeline run history: one record per run and one
// per executed step, including failed runs. The journal is an audit trail;
// pipeline control flow never depends on it beyond surfacing write errors.
package journal

import (
	"context"

	"github.com/bitebase/deployctl/internal/core/domain"
)

// =============================================================================
// Journal Interface
// =============================================================================

// Journal defines the persistence interface for pipeline runs.
type Journal interface {
	// CreateRun inserts a new run in the running state.
	CreateRun(ctx context.Context, run *domain.RunRecord) error

	// RecordStep appends one step outcome to a run.
	RecordStep(ctx context.Context, runID string, step domain.StepResult) error

	// FinishRun stores the run's final status, endpoint and finish time.
	FinishRun(ctx context.Context, run *domain.RunRecord) error

	// GetRun loads one run with its steps.
	GetRun(ctx context.Context, id string) (*domain.RunRecord, error)

	// ListRuns returns the most recent runs, newest first, without steps.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Lifecycle
	Close() error
}
