package repository

import (
	"context"

	"github.com/supergrader/grader-api/internal/models"
)

// CaveatStore persists caveats distilled from grader feedback. Unlike job
// records, caveats carry accumulated grading knowledge and never expire.
type CaveatStore interface {
	// Save stores a caveat, replacing any existing one with the same id.
	Save(ctx context.Context, caveat models.Caveat) error
	// Get returns the caveat, or nil when absent.
	Get(ctx context.Context, id string) (*models.Caveat, error)
	// Delete removes a caveat, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	// List returns all stored caveats.
	List(ctx context.Context) ([]models.Caveat, error)
	// Close releases any resources held by the store.
	Close() error
}
