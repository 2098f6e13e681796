package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/models"
)

// MemoryCaveatStore keeps caveats in process memory.
type MemoryCaveatStore struct {
	mu      sync.RWMutex
	caveats map[string]models.Caveat
	logger  zerolog.Logger
}

// NewMemoryCaveatStore constructs an empty in-memory store.
func NewMemoryCaveatStore(logger zerolog.Logger) *MemoryCaveatStore {
	return &MemoryCaveatStore{
		caveats: make(map[string]models.Caveat),
		logger:  logger.With().Str("component", "memory_caveat_store").Logger(),
	}
}

// Save implements CaveatStore.
func (s *MemoryCaveatStore) Save(ctx context.Context, caveat models.Caveat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.caveats[caveat.ID] = caveat
	s.logger.Debug().Str("caveat_id", caveat.ID).Msg("saved caveat")
	return nil
}

// Get implements CaveatStore.
func (s *MemoryCaveatStore) Get(ctx context.Context, id string) (*models.Caveat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caveat, ok := s.caveats[id]
	if !ok {
		return nil, nil
	}
	return &caveat, nil
}

// Delete implements CaveatStore.
func (s *MemoryCaveatStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.caveats[id]; !exists {
		return false, nil
	}

	delete(s.caveats, id)
	return true, nil
}

// List implements CaveatStore.
func (s *MemoryCaveatStore) List(ctx context.Context) ([]models.Caveat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caveats := make([]models.Caveat, 0, len(s.caveats))
	for _, caveat := range s.caveats {
		caveats = append(caveats, caveat)
	}
	return caveats, nil
}

// Close implements CaveatStore.
func (s *MemoryCaveatStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caveats = make(map[string]models.Caveat)
	return nil
}
