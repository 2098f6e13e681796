package repository

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/models"
)

// MemoryJobStore keeps job records in process memory. Suitable for single
// node deployments and tests; records are cleaned up by age on demand.
type MemoryJobStore struct {
	mu      sync.RWMutex
	jobs    map[string]models.JobRecord
	created map[string]time.Time
	logger  zerolog.Logger
	now     func() time.Time
}

// NewMemoryJobStore constructs an empty in-memory store.
func NewMemoryJobStore(logger zerolog.Logger) *MemoryJobStore {
	return &MemoryJobStore{
		jobs:    make(map[string]models.JobRecord),
		created: make(map[string]time.Time),
		logger:  logger.With().Str("component", "memory_job_store").Logger(),
		now:     time.Now,
	}
}

// Create implements JobStore.
func (s *MemoryJobStore) Create(ctx context.Context, record models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[record.JobID]; exists {
		return ErrJobExists
	}

	s.jobs[record.JobID] = record
	s.created[record.JobID] = s.now()
	s.logger.Debug().Str("job_id", record.JobID).Msg("created job record")
	return nil
}

// Get implements JobStore.
func (s *MemoryJobStore) Get(ctx context.Context, jobID string) (*models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Update implements JobStore.
func (s *MemoryJobStore) Update(ctx context.Context, record models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[record.JobID]; !exists {
		return ErrJobNotFound
	}

	s.jobs[record.JobID] = record
	return nil
}

// Delete implements JobStore.
func (s *MemoryJobStore) Delete(ctx context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobID]; !exists {
		return false, nil
	}

	delete(s.jobs, jobID)
	delete(s.created, jobID)
	return true, nil
}

// List implements JobStore.
func (s *MemoryJobStore) List(ctx context.Context, limit int) ([]models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.JobRecord, 0, len(s.jobs))
	for _, record := range s.jobs {
		records = append(records, record)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// CleanupOlderThan implements JobStore.
func (s *MemoryJobStore) CleanupOlderThan(ctx context.Context, maxAgeSeconds int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-time.Duration(maxAgeSeconds) * time.Second)
	removed := 0
	for jobID, createdAt := range s.created {
		if createdAt.Before(cutoff) {
			delete(s.jobs, jobID)
			delete(s.created, jobID)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("cleaned up expired job records")
	}
	return removed, nil
}

// Count implements JobStore.
func (s *MemoryJobStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

// Close implements JobStore.
func (s *MemoryJobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]models.JobRecord)
	s.created = make(map[string]time.Time)
	return nil
}
