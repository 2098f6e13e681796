package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/supergrader/grader-api/pkg/llm"
)

// Retry policy defaults: exponential backoff from 4s capped at 30s, never
// waiting less than the 2s floor between attempts.
const (
	retryInitialInterval = 4 * time.Second
	retryMaxInterval     = 30 * time.Second
	retryFloor           = 2 * time.Second
)

// retryPolicy wraps a single LLM call with bounded retries. Only transient
// failures (timeouts, connection errors, rate limiting, server busy) are
// retried; anything else fails the call immediately.
type retryPolicy struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	floor           time.Duration
}

func newRetryPolicy(maxAttempts int) retryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return retryPolicy{
		maxAttempts:     maxAttempts,
		initialInterval: retryInitialInterval,
		maxInterval:     retryMaxInterval,
		floor:           retryFloor,
	}
}

// flooredBackOff raises every wait produced by the wrapped strategy to a
// fixed minimum.
type flooredBackOff struct {
	inner backoff.BackOff
	floor time.Duration
}

func (f *flooredBackOff) NextBackOff() time.Duration {
	next := f.inner.NextBackOff()
	if next == backoff.Stop {
		return backoff.Stop
	}
	if next < f.floor {
		return f.floor
	}
	return next
}

func (f *flooredBackOff) Reset() {
	f.inner.Reset()
}

func (p retryPolicy) strategy(ctx context.Context) backoff.BackOffContext {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = p.initialInterval
	exponential.MaxInterval = p.maxInterval
	exponential.MaxElapsedTime = 0

	floored := &flooredBackOff{inner: exponential, floor: p.floor}
	bounded := backoff.WithMaxRetries(floored, uint64(p.maxAttempts-1))
	return backoff.WithContext(bounded, ctx)
}

// execute runs op until it succeeds, fails permanently, or the attempt
// ceiling is exhausted. The returned error is the last one observed.
func (p retryPolicy) execute(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !llm.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.strategy(ctx))
}
