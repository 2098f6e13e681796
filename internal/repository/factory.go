package repository

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewJobStore selects a job store backend by name. The redis client may be
// nil for the memory backend.
func NewJobStore(backend string, client *redis.Client, ttl time.Duration, logger zerolog.Logger) (JobStore, error) {
	switch backend {
	case "memory":
		return NewMemoryJobStore(logger), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis job store requires a redis client")
		}
		return NewRedisJobStore(client, ttl, logger), nil
	default:
		return nil, fmt.Errorf("unknown job store backend %q", backend)
	}
}

// NewCaveatStore selects a caveat store backend by name. The redis client may
// be nil for the memory backend.
func NewCaveatStore(backend string, client *redis.Client, logger zerolog.Logger) (CaveatStore, error) {
	switch backend {
	case "memory":
		return NewMemoryCaveatStore(logger), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis caveat store requires a redis client")
		}
		return NewRedisCaveatStore(client, logger), nil
	default:
		return nil, fmt.Errorf("unknown caveat store backend %q", backend)
	}
}
