package service

import (
	"fmt"

	"github.com/supergrader/grader-api/internal/config"
	"github.com/supergrader/grader-api/internal/models"
)

// batchSize derives how many rubric items may be evaluated concurrently
// without blowing the configured per-minute request and token caps. Each
// item costs ParallelCalls requests, and the per-minute budgets are spread
// across an assumed number of batches processed per minute. A budget too
// small to fit even one item is an error rather than a silent overshoot.
func batchSize(totalItems int, cfg config.GradingConfig) (int, error) {
	parallel := cfg.ParallelCalls
	if parallel <= 0 {
		parallel = 1
	}
	pacing := cfg.BatchesPerMinute
	if pacing <= 0 {
		pacing = 1
	}
	avgTokens := cfg.AvgTokensPerRequest
	if avgTokens <= 0 {
		avgTokens = 1
	}

	size := cfg.TargetBatchSize
	if size <= 0 {
		size = totalItems
	}

	if cfg.RequestsPerMinute > 0 {
		maxByRequests := cfg.RequestsPerMinute / pacing / parallel
		if maxByRequests < size {
			size = maxByRequests
		}
	}

	if cfg.TokensPerMinute > 0 {
		maxByTokens := cfg.TokensPerMinute / pacing / (parallel * avgTokens)
		if maxByTokens < size {
			size = maxByTokens
		}
	}

	if size > totalItems {
		size = totalItems
	}
	if size < 1 {
		return 0, fmt.Errorf(
			"rate budget too small: %d parallel calls per item exceed the per-minute caps (requests=%d, tokens=%d, batches=%d)",
			parallel, cfg.RequestsPerMinute, cfg.TokensPerMinute, pacing,
		)
	}
	return size, nil
}

// splitBatches partitions rubric items into contiguous batches, preserving
// submission order with no item omitted or duplicated. Items fitting the
// target batch size yield a single batch.
func splitBatches(items []models.RubricItem, cfg config.GradingConfig) ([][]models.RubricItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	size, err := batchSize(len(items), cfg)
	if err != nil {
		return nil, err
	}
	batches := make([][]models.RubricItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches, nil
}
