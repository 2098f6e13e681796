package models

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus enumerates the lifecycle states of a grading job.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobRecord tracks one grading run for one submission. TotalItems is fixed at
// creation; Progress only ever grows.
type JobRecord struct {
	JobID          string    `json:"job_id"`
	Status         string    `json:"status"`
	Progress       float64   `json:"progress"`
	CompletedItems int       `json:"completed_items"`
	TotalItems     int       `json:"total_items"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobID derives the deterministic job identifier for a submission. Component
// ids are assumed not to contain underscores; ids that do cannot be split
// back apart unambiguously.
func JobID(courseID, assignmentID, submissionID string) string {
	return fmt.Sprintf("%s_%s_%s", courseID, assignmentID, submissionID)
}

// ValidJobID reports whether id looks like a derived job identifier: at least
// three non-empty underscore-delimited segments.
func ValidJobID(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}

	parts := strings.Split(id, "_")
	if len(parts) < 3 {
		return false
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return false
		}
	}
	return true
}
