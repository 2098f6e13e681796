package service

import (
	"fmt"
	"strings"

	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/models"
)

const maxTotalSourceBytes = 10 * 1024 * 1024

// ValidationError reports every violation found in a submission, not just the
// first one.
type ValidationError struct {
	Violations []string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// ValidateSubmission checks a grading request before any LLM calls are
// issued. It returns a *ValidationError describing every violation found, or
// nil when the request is acceptable.
func ValidateSubmission(req dto.SubmissionRequest) error {
	var violations []string

	if len(req.RubricItems) == 0 {
		violations = append(violations, "no rubric items provided")
	} else {
		violations = append(violations, validateRubricItems(req.RubricModels())...)
	}

	if len(req.SourceFiles) == 0 {
		violations = append(violations, "no source files provided")
	} else {
		violations = append(violations, validateSourceFiles(req.SourceFiles)...)
	}

	violations = append(violations, validateContext(req.AssignmentContext)...)

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func validateRubricItems(items []models.RubricItem) []string {
	var violations []string

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.ID] {
			violations = append(violations, fmt.Sprintf("duplicate rubric item id: %s", item.ID))
		}
		seen[item.ID] = true

		if strings.TrimSpace(item.Description) == "" {
			violations = append(violations, fmt.Sprintf("rubric item %s has empty description", item.ID))
		}

		switch item.Kind {
		case models.RubricKindBinary:
		case models.RubricKindChoice:
			violations = append(violations, validateChoiceOptions(item)...)
		default:
			violations = append(violations, fmt.Sprintf("rubric item %s has unknown kind %q", item.ID, item.Kind))
		}
	}

	return violations
}

func validateChoiceOptions(item models.RubricItem) []string {
	var violations []string

	if len(item.Options) < 2 {
		violations = append(violations, fmt.Sprintf("choice rubric item %s must have at least 2 options", item.ID))
	}

	seenKeys := make(map[string]bool, len(item.Options))
	for _, option := range item.Options {
		if strings.TrimSpace(option.Key) == "" {
			violations = append(violations, fmt.Sprintf("choice rubric item %s has empty option key", item.ID))
		} else if seenKeys[option.Key] {
			violations = append(violations, fmt.Sprintf("choice rubric item %s has duplicate option key %q", item.ID, option.Key))
		}
		seenKeys[option.Key] = true

		if strings.TrimSpace(option.Label) == "" {
			violations = append(violations, fmt.Sprintf("choice rubric item %s has empty option label for key %q", item.ID, option.Key))
		}
	}

	return violations
}

func validateSourceFiles(files map[string]string) []string {
	var violations []string

	totalSize := 0
	for filename, content := range files {
		if strings.TrimSpace(filename) == "" {
			violations = append(violations, "found file with empty filename")
			continue
		}
		totalSize += len(content)
	}

	if totalSize > maxTotalSourceBytes {
		violations = append(violations, fmt.Sprintf("total source files size (%d bytes) exceeds maximum (%d bytes)", totalSize, maxTotalSourceBytes))
	}

	return violations
}

func validateContext(ctx dto.AssignmentContext) []string {
	var violations []string

	if strings.TrimSpace(ctx.CourseID) == "" {
		violations = append(violations, "course id is required")
	}
	if strings.TrimSpace(ctx.AssignmentID) == "" {
		violations = append(violations, "assignment id is required")
	}
	if strings.TrimSpace(ctx.SubmissionID) == "" {
		violations = append(violations, "submission id is required")
	}

	return violations
}
