package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/supergrader/grader-api/internal/models"
)

// AssignmentContext identifies the submission being graded.
type AssignmentContext struct {
	CourseID       string `json:"course_id" validate:"required"`
	AssignmentID   string `json:"assignment_id" validate:"required"`
	SubmissionID   string `json:"submission_id" validate:"required"`
	AssignmentName string `json:"assignment_name,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
}

// OrderedOptions decodes a JSON object of option key to label while keeping
// the declaration order. Plain maps would lose it, and both the choice
// fallback and tie-break depend on which option came first.
type OrderedOptions []models.RubricOption

// UnmarshalJSON implements json.Unmarshaler.
func (o *OrderedOptions) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("options must be a JSON object")
	}

	options := make([]models.RubricOption, 0, 4)
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("option key must be a string")
		}

		var label string
		if err := decoder.Decode(&label); err != nil {
			return fmt.Errorf("option %q label: %w", key, err)
		}

		options = append(options, models.RubricOption{Key: key, Label: label})
	}

	*o = options
	return nil
}

// MarshalJSON implements json.Marshaler, emitting the object form.
func (o OrderedOptions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, option := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(option.Key)
		if err != nil {
			return nil, err
		}
		label, err := json.Marshal(option.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(label)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RubricItemRequest is one rubric item as submitted by the caller.
type RubricItemRequest struct {
	ID          string            `json:"id" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Points      float64           `json:"points"`
	Kind        models.RubricKind `json:"kind" validate:"required"`
	Options     OrderedOptions    `json:"options,omitempty"`
}

// ToModel converts the request item into the domain type.
func (r RubricItemRequest) ToModel() models.RubricItem {
	return models.RubricItem{
		ID:          r.ID,
		Description: r.Description,
		Points:      r.Points,
		Kind:        r.Kind,
		Options:     []models.RubricOption(r.Options),
	}
}

// SubmissionRequest asks for one full grading run over a submission.
type SubmissionRequest struct {
	AssignmentContext AssignmentContext   `json:"assignment_context" validate:"required"`
	SourceFiles       map[string]string   `json:"source_files" validate:"required,min=1"`
	RubricItems       []RubricItemRequest `json:"rubric_items" validate:"required,min=1,dive"`
}

// RubricModels converts every request item into its domain type, preserving
// submission order.
func (r SubmissionRequest) RubricModels() []models.RubricItem {
	items := make([]models.RubricItem, 0, len(r.RubricItems))
	for _, item := range r.RubricItems {
		items = append(items, item.ToModel())
	}
	return items
}

// JobID derives the deterministic job identifier for the request.
func (r SubmissionRequest) JobID() string {
	return models.JobID(r.AssignmentContext.CourseID, r.AssignmentContext.AssignmentID, r.AssignmentContext.SubmissionID)
}

// CleanupResponse reports the outcome of an explicit job cleanup run.
type CleanupResponse struct {
	DeletedCount int `json:"deleted_count"`
	MaxAgeHours  int `json:"max_age_hours"`
}

// JobStatsResponse carries aggregate job store statistics.
type JobStatsResponse struct {
	TotalJobs int `json:"total_jobs"`
}
