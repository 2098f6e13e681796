package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supergrader/grader-api/internal/models"
)

const fencedBinaryCompletion = "Here is my judgment:\n```json\n" +
	`{"decision": "award", "evidence": {"file": "main.cpp", "lines": "12-30"}, "comment": "Looks correct.", "confidence": 85}` +
	"\n```\nLet me know if you need anything else."

func TestParseBinaryVerdictFromFencedCompletion(t *testing.T) {
	verdict, err := parseBinaryVerdict(fencedBinaryCompletion)

	require.NoError(t, err)
	require.Equal(t, models.DecisionAward, verdict.Decision)
	require.Equal(t, "main.cpp", verdict.Evidence.File)
	require.Equal(t, "12-30", verdict.Evidence.Lines)
	require.Equal(t, "Looks correct.", verdict.Comment)
	require.Equal(t, 85, verdict.ConfidencePct)
}

func TestParseBinaryVerdictBareJSON(t *testing.T) {
	verdict, err := parseBinaryVerdict(`{"decision": "deny", "evidence": {"file": "a.py", "lines": "1-5"}, "confidence": 40}`)

	require.NoError(t, err)
	require.Equal(t, models.DecisionDeny, verdict.Decision)
	require.Empty(t, verdict.Comment)
}

func TestParseBinaryVerdictNullComment(t *testing.T) {
	verdict, err := parseBinaryVerdict(`{"decision": "award", "evidence": {"file": "a.py", "lines": "1-5"}, "comment": null, "confidence": 70}`)

	require.NoError(t, err)
	require.Empty(t, verdict.Comment)
}

func TestParseBinaryVerdictRejectsUnknownDecision(t *testing.T) {
	_, err := parseBinaryVerdict(`{"decision": "maybe", "evidence": {"file": "a.py", "lines": "1-5"}, "confidence": 70}`)

	require.Error(t, err)
}

func TestParseBinaryVerdictRejectsMissingEvidence(t *testing.T) {
	_, err := parseBinaryVerdict(`{"decision": "award", "confidence": 70}`)

	require.Error(t, err)
}

func TestParseBinaryVerdictRejectsOutOfRangeConfidence(t *testing.T) {
	_, err := parseBinaryVerdict(`{"decision": "award", "evidence": {"file": "a.py", "lines": "1-5"}, "confidence": 140}`)

	require.Error(t, err)
}

func TestParseBinaryVerdictRejectsProse(t *testing.T) {
	_, err := parseBinaryVerdict("I would award this item because the loop is correct.")

	require.Error(t, err)
}

func choiceItem() models.RubricItem {
	return models.RubricItem{
		ID:   "style",
		Kind: models.RubricKindChoice,
		Options: []models.RubricOption{
			{Key: "excellent", Label: "Idiomatic throughout"},
			{Key: "adequate", Label: "Mostly readable"},
			{Key: "poor", Label: "Hard to follow"},
		},
	}
}

func TestParseChoiceVerdict(t *testing.T) {
	completion := "```json\n" +
		`{"selected_option": "adequate", "evidence": {"file": "util.ts", "lines": "3-9"}, "comment": "Naming is inconsistent.", "confidence": 65}` +
		"\n```"

	verdict, err := parseChoiceVerdict(completion, choiceItem())

	require.NoError(t, err)
	require.Equal(t, "adequate", verdict.SelectedOption)
	require.Equal(t, 65, verdict.ConfidencePct)
}

func TestParseChoiceVerdictRejectsUndeclaredOption(t *testing.T) {
	completion := `{"selected_option": "outstanding", "evidence": {"file": "util.ts", "lines": "3-9"}, "confidence": 65}`

	_, err := parseChoiceVerdict(completion, choiceItem())

	require.Error(t, err)
	require.Contains(t, err.Error(), "outstanding")
}

func TestParseChoiceVerdictRejectsEmptySelection(t *testing.T) {
	completion := `{"selected_option": "", "evidence": {"file": "util.ts", "lines": "3-9"}, "confidence": 65}`

	_, err := parseChoiceVerdict(completion, choiceItem())

	require.Error(t, err)
}

func TestExtractJSONWithoutFence(t *testing.T) {
	require.Equal(t, `{"a": 1}`, extractJSON("  {\"a\": 1}\n"))
}

func TestExtractJSONPicksFencedBlock(t *testing.T) {
	require.Equal(t, `{"a": 1}`, extractJSON("preamble\n```json\n{\"a\": 1}\n```\ntrailer"))
}
