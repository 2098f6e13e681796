package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/models"
)

const createdKeySuffix = ":created"

// RedisJobStore persists job records in Redis with a TTL. Each job uses two
// keys: the record itself and a creation timestamp used for age-based
// cleanup.
type RedisJobStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRedisJobStore constructs a store on top of an established Redis client.
func NewRedisJobStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisJobStore {
	return &RedisJobStore{
		client:    client,
		keyPrefix: "job:",
		ttl:       ttl,
		logger:    logger.With().Str("component", "redis_job_store").Logger(),
		now:       time.Now,
	}
}

func (s *RedisJobStore) jobKey(jobID string) string {
	return s.keyPrefix + jobID
}

func (s *RedisJobStore) createdKey(jobID string) string {
	return s.keyPrefix + jobID + createdKeySuffix
}

// Create implements JobStore.
func (s *RedisJobStore) Create(ctx context.Context, record models.JobRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.jobKey(record.JobID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store job record: %w", err)
	}
	if !ok {
		return ErrJobExists
	}

	createdAt := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.client.Set(ctx, s.createdKey(record.JobID), createdAt, s.ttl).Err(); err != nil {
		return fmt.Errorf("store job creation time: %w", err)
	}

	s.logger.Debug().Str("job_id", record.JobID).Msg("created job record")
	return nil
}

// Get implements JobStore.
func (s *RedisJobStore) Get(ctx context.Context, jobID string) (*models.JobRecord, error) {
	payload, err := s.client.Get(ctx, s.jobKey(jobID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read job record: %w", err)
	}

	var record models.JobRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("decode job record: %w", err)
	}
	return &record, nil
}

// Update implements JobStore. The remaining TTL is preserved so updates do
// not extend a record's lifetime.
func (s *RedisJobStore) Update(ctx context.Context, record models.JobRecord) error {
	key := s.jobKey(record.JobID)

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read job ttl: %w", err)
	}
	if ttl < 0 {
		// Key missing (-2) or without expiry (-1); only the former is an error.
		exists, existsErr := s.client.Exists(ctx, key).Result()
		if existsErr != nil {
			return fmt.Errorf("check job record: %w", existsErr)
		}
		if exists == 0 {
			return ErrJobNotFound
		}
		ttl = s.ttl
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("update job record: %w", err)
	}
	return nil
}

// Delete implements JobStore.
func (s *RedisJobStore) Delete(ctx context.Context, jobID string) (bool, error) {
	removed, err := s.client.Del(ctx, s.jobKey(jobID), s.createdKey(jobID)).Result()
	if err != nil {
		return false, fmt.Errorf("delete job record: %w", err)
	}
	return removed > 0, nil
}

// List implements JobStore.
func (s *RedisJobStore) List(ctx context.Context, limit int) ([]models.JobRecord, error) {
	var records []models.JobRecord

	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, createdKeySuffix) {
			continue
		}

		payload, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read job record: %w", err)
		}

		var record models.JobRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("skipping undecodable job record")
			continue
		}

		records = append(records, record)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan job records: %w", err)
	}

	return records, nil
}

// CleanupOlderThan implements JobStore.
func (s *RedisJobStore) CleanupOlderThan(ctx context.Context, maxAgeSeconds int) (int, error) {
	cutoff := s.now().Unix() - int64(maxAgeSeconds)
	removed := 0

	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*"+createdKeySuffix, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		raw, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("read job creation time: %w", err)
		}

		createdAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}

		if createdAt < cutoff {
			jobID := strings.TrimSuffix(strings.TrimPrefix(key, s.keyPrefix), createdKeySuffix)
			deleted, err := s.Delete(ctx, jobID)
			if err != nil {
				return removed, err
			}
			if deleted {
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan job creation times: %w", err)
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("cleaned up expired job records")
	}
	return removed, nil
}

// Count implements JobStore.
func (s *RedisJobStore) Count(ctx context.Context) (int, error) {
	count := 0

	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if !strings.HasSuffix(iter.Val(), createdKeySuffix) {
			count++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan job records: %w", err)
	}

	return count, nil
}

// Close implements JobStore. The underlying client is shared and closed by
// the host process.
func (s *RedisJobStore) Close() error {
	return nil
}
