package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supergrader/grader-api/internal/models"
)

func TestOrderedOptionsPreservesDeclarationOrder(t *testing.T) {
	raw := `{"excellent": "Idiomatic throughout", "adequate": "Mostly readable", "poor": "Hard to follow"}`

	var options OrderedOptions
	require.NoError(t, json.Unmarshal([]byte(raw), &options))

	require.Equal(t, OrderedOptions{
		{Key: "excellent", Label: "Idiomatic throughout"},
		{Key: "adequate", Label: "Mostly readable"},
		{Key: "poor", Label: "Hard to follow"},
	}, options)
}

func TestOrderedOptionsRoundTrip(t *testing.T) {
	options := OrderedOptions{
		{Key: "b", Label: "Second"},
		{Key: "a", Label: "First"},
	}

	encoded, err := json.Marshal(options)
	require.NoError(t, err)
	require.Equal(t, `{"b":"Second","a":"First"}`, string(encoded))

	var decoded OrderedOptions
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, options, decoded)
}

func TestOrderedOptionsRejectsNonObject(t *testing.T) {
	var options OrderedOptions
	require.Error(t, json.Unmarshal([]byte(`["a", "b"]`), &options))
	require.Error(t, json.Unmarshal([]byte(`{"a": 1}`), &options))
}

func TestSubmissionRequestJobID(t *testing.T) {
	req := SubmissionRequest{
		AssignmentContext: AssignmentContext{
			CourseID:     "cs101",
			AssignmentID: "hw3",
			SubmissionID: "stu42",
		},
	}

	require.Equal(t, "cs101_hw3_stu42", req.JobID())
}

func TestRubricItemRequestToModel(t *testing.T) {
	item := RubricItemRequest{
		ID:          "style",
		Description: "Code style quality",
		Points:      3,
		Kind:        models.RubricKindChoice,
		Options: OrderedOptions{
			{Key: "good", Label: "Readable"},
			{Key: "bad", Label: "Messy"},
		},
	}

	model := item.ToModel()
	require.Equal(t, "style", model.ID)
	require.Equal(t, models.RubricKindChoice, model.Kind)
	require.Equal(t, []models.RubricOption{
		{Key: "good", Label: "Readable"},
		{Key: "bad", Label: "Messy"},
	}, model.Options)
	require.True(t, model.HasOption("good"))
	require.False(t, model.HasOption("great"))
}
