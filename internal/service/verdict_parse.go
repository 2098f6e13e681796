package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/supergrader/grader-api/internal/models"
)

// Verdict payload schemas. A completion that fails validation is a permanent
// call failure; retrying the same malformed answer is pointless.
var (
	binaryVerdictSchema = jsonschema.MustCompileString("binary_verdict.json", `{
		"type": "object",
		"required": ["decision", "evidence", "confidence"],
		"properties": {
			"decision": {"enum": ["award", "deny"]},
			"evidence": {
				"type": "object",
				"required": ["file", "lines"],
				"properties": {
					"file": {"type": "string"},
					"lines": {"type": "string"}
				}
			},
			"comment": {"type": ["string", "null"]},
			"confidence": {"type": "integer", "minimum": 0, "maximum": 100}
		}
	}`)

	choiceVerdictSchema = jsonschema.MustCompileString("choice_verdict.json", `{
		"type": "object",
		"required": ["selected_option", "evidence", "confidence"],
		"properties": {
			"selected_option": {"type": "string", "minLength": 1},
			"evidence": {
				"type": "object",
				"required": ["file", "lines"],
				"properties": {
					"file": {"type": "string"},
					"lines": {"type": "string"}
				}
			},
			"comment": {"type": ["string", "null"]},
			"confidence": {"type": "integer", "minimum": 0, "maximum": 100}
		}
	}`)
)

// extractJSON strips an optional ```json fence from a completion, falling
// back to the whole trimmed text.
func extractJSON(completion string) string {
	start := strings.Index(completion, "```json")
	end := strings.LastIndex(completion, "```")
	if start != -1 && end != -1 && end > start {
		return strings.TrimSpace(completion[start+len("```json") : end])
	}
	return strings.TrimSpace(completion)
}

func validateVerdictPayload(schema *jsonschema.Schema, payload string) error {
	var decoded interface{}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return fmt.Errorf("parse verdict json: %w", err)
	}
	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("verdict schema: %w", err)
	}
	return nil
}

// parseBinaryVerdict turns a raw completion into a binary verdict.
func parseBinaryVerdict(completion string) (models.BinaryVerdict, error) {
	payload := extractJSON(completion)
	if err := validateVerdictPayload(binaryVerdictSchema, payload); err != nil {
		return models.BinaryVerdict{}, err
	}

	var verdict models.BinaryVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return models.BinaryVerdict{}, fmt.Errorf("decode binary verdict: %w", err)
	}
	return verdict, nil
}

// parseChoiceVerdict turns a raw completion into a choice verdict, rejecting
// selections outside the item's declared options.
func parseChoiceVerdict(completion string, item models.RubricItem) (models.ChoiceVerdict, error) {
	payload := extractJSON(completion)
	if err := validateVerdictPayload(choiceVerdictSchema, payload); err != nil {
		return models.ChoiceVerdict{}, err
	}

	var verdict models.ChoiceVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return models.ChoiceVerdict{}, fmt.Errorf("decode choice verdict: %w", err)
	}

	if !item.HasOption(verdict.SelectedOption) {
		return models.ChoiceVerdict{}, fmt.Errorf("selected option %q is not declared on rubric item %s", verdict.SelectedOption, item.ID)
	}
	return verdict, nil
}
