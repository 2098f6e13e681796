package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/models"
)

const caveatHashKey = "caveats"

// RedisCaveatStore persists caveats in a single Redis hash keyed by caveat
// id. No TTL is set; caveats survive restarts and job cleanup.
type RedisCaveatStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisCaveatStore constructs a store on top of an established Redis client.
func NewRedisCaveatStore(client *redis.Client, logger zerolog.Logger) *RedisCaveatStore {
	return &RedisCaveatStore{
		client: client,
		logger: logger.With().Str("component", "redis_caveat_store").Logger(),
	}
}

// Save implements CaveatStore.
func (s *RedisCaveatStore) Save(ctx context.Context, caveat models.Caveat) error {
	payload, err := json.Marshal(caveat)
	if err != nil {
		return fmt.Errorf("marshal caveat: %w", err)
	}

	if err := s.client.HSet(ctx, caveatHashKey, caveat.ID, payload).Err(); err != nil {
		return fmt.Errorf("store caveat: %w", err)
	}

	s.logger.Debug().Str("caveat_id", caveat.ID).Msg("saved caveat")
	return nil
}

// Get implements CaveatStore.
func (s *RedisCaveatStore) Get(ctx context.Context, id string) (*models.Caveat, error) {
	payload, err := s.client.HGet(ctx, caveatHashKey, id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read caveat: %w", err)
	}

	var caveat models.Caveat
	if err := json.Unmarshal([]byte(payload), &caveat); err != nil {
		return nil, fmt.Errorf("decode caveat: %w", err)
	}
	return &caveat, nil
}

// Delete implements CaveatStore.
func (s *RedisCaveatStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.client.HDel(ctx, caveatHashKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("delete caveat: %w", err)
	}
	return removed > 0, nil
}

// List implements CaveatStore.
func (s *RedisCaveatStore) List(ctx context.Context) ([]models.Caveat, error) {
	entries, err := s.client.HGetAll(ctx, caveatHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list caveats: %w", err)
	}

	caveats := make([]models.Caveat, 0, len(entries))
	for id, payload := range entries {
		var caveat models.Caveat
		if err := json.Unmarshal([]byte(payload), &caveat); err != nil {
			s.logger.Warn().Err(err).Str("caveat_id", id).Msg("skipping undecodable caveat")
			continue
		}
		caveats = append(caveats, caveat)
	}
	return caveats, nil
}

// Close implements CaveatStore. The underlying client is shared and closed by
// the host process.
func (s *RedisCaveatStore) Close() error {
	return nil
}
