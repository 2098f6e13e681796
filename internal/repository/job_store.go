package repository

import (
	"context"
	"errors"

	"github.com/supergrader/grader-api/internal/models"
)

// ErrJobNotFound indicates the requested job record does not exist.
var ErrJobNotFound = errors.New("job not found")

// ErrJobExists indicates a job record with the same id already exists.
var ErrJobExists = errors.New("job already exists")

// JobStore persists grading job records. Implementations must make Update
// safe against partial writes; a job is driven by a single pipeline instance,
// so no cross-writer contention is expected.
type JobStore interface {
	// Create stores a new record. Fails with ErrJobExists on duplicate ids.
	Create(ctx context.Context, record models.JobRecord) error
	// Get returns the record, or nil when absent.
	Get(ctx context.Context, jobID string) (*models.JobRecord, error)
	// Update replaces an existing record. Fails with ErrJobNotFound when absent.
	Update(ctx context.Context, record models.JobRecord) error
	// Delete removes a record, reporting whether it existed.
	Delete(ctx context.Context, jobID string) (bool, error)
	// List returns stored records; limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]models.JobRecord, error)
	// CleanupOlderThan removes records older than maxAgeSeconds and returns
	// how many were removed.
	CleanupOlderThan(ctx context.Context, maxAgeSeconds int) (int, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Close releases any resources held by the store.
	Close() error
}
