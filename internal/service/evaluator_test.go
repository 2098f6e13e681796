package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/supergrader/grader-api/internal/models"
)

// stubClient hands out canned completions in call order.
type stubClient struct {
	mu       sync.Mutex
	complete func(call int) (string, error)
	calls    int
}

func (c *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	call := c.calls
	c.calls++
	c.mu.Unlock()
	return c.complete(call)
}

func (c *stubClient) ProviderName() string { return "stub" }
func (c *stubClient) ModelName() string    { return "stub-model" }

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func binaryCompletion(decision string, confidence int) string {
	return `{"decision": "` + decision + `", "evidence": {"file": "main.cpp", "lines": "1-10"}, "comment": "ok", "confidence": ` + strconv.Itoa(confidence) + `}`
}

func choiceCompletion(option string, confidence int) string {
	return `{"selected_option": "` + option + `", "evidence": {"file": "main.cpp", "lines": "1-10"}, "comment": "ok", "confidence": ` + strconv.Itoa(confidence) + `}`
}

func binaryItem() models.RubricItem {
	return models.RubricItem{
		ID:          "loop-bounds",
		Description: "Loop bounds are correct",
		Points:      5,
		Kind:        models.RubricKindBinary,
	}
}

var testFiles = map[string]string{"main.cpp": "int main() { return 0; }"}

func TestEvaluateBinaryMajorityVote(t *testing.T) {
	completions := []string{
		binaryCompletion("award", 80),
		binaryCompletion("award", 90),
		binaryCompletion("deny", 70),
	}
	client := &stubClient{complete: func(call int) (string, error) {
		return completions[call%len(completions)], nil
	}}

	evaluator := NewEvaluator(client, 1, 3, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), binaryItem(), testFiles)

	require.Equal(t, "loop-bounds", decision.RubricItemID)
	require.Equal(t, models.RubricKindBinary, decision.Kind)
	require.Equal(t, 3, client.callCount())

	verdict, ok := decision.Verdict.(models.BinaryVerdict)
	require.True(t, ok)
	require.Equal(t, models.DecisionAward, verdict.Decision)
	require.InDelta(t, 0.6, decision.Confidence, 1e-9)
	require.Contains(t, decision.Reasoning, "voting results:")
}

func TestEvaluateBinaryPartialFailures(t *testing.T) {
	client := &stubClient{complete: func(call int) (string, error) {
		if call == 1 {
			return "", errors.New("model unavailable")
		}
		return binaryCompletion("deny", 80), nil
	}}

	evaluator := NewEvaluator(client, 1, 3, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), binaryItem(), testFiles)

	verdict, ok := decision.Verdict.(models.BinaryVerdict)
	require.True(t, ok)
	require.Equal(t, models.DecisionDeny, verdict.Decision)
	require.InDelta(t, 0.8, decision.Confidence, 1e-9)
}

func TestEvaluateBinaryAllFailuresFallsBack(t *testing.T) {
	client := &stubClient{complete: func(call int) (string, error) {
		return "", errors.New("model unavailable")
	}}

	evaluator := NewEvaluator(client, 1, 3, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), binaryItem(), testFiles)

	verdict, ok := decision.Verdict.(models.BinaryVerdict)
	require.True(t, ok)
	require.Equal(t, models.DecisionAward, verdict.Decision)
	require.Equal(t, models.Evidence{File: "unknown", Lines: "0-0"}, verdict.Evidence)
	require.Zero(t, decision.Confidence)
	require.Equal(t, "all evaluation attempts failed", decision.Reasoning)
}

func TestEvaluateMalformedCompletionsFallBack(t *testing.T) {
	client := &stubClient{complete: func(call int) (string, error) {
		return "the submission looks fine to me", nil
	}}

	evaluator := NewEvaluator(client, 1, 3, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), binaryItem(), testFiles)

	// Malformed output is a permanent failure, so exactly one attempt per
	// parallel call.
	require.Equal(t, 3, client.callCount())
	require.Zero(t, decision.Confidence)
	require.Equal(t, "all evaluation attempts failed", decision.Reasoning)
}

func TestEvaluateChoiceMajorityVote(t *testing.T) {
	completions := []string{
		choiceCompletion("adequate", 60),
		choiceCompletion("excellent", 90),
		choiceCompletion("adequate", 70),
	}
	client := &stubClient{complete: func(call int) (string, error) {
		return completions[call%len(completions)], nil
	}}

	evaluator := NewEvaluator(client, 1, 3, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), choiceItem(), testFiles)

	require.Equal(t, models.RubricKindChoice, decision.Kind)

	verdict, ok := decision.Verdict.(models.ChoiceVerdict)
	require.True(t, ok)
	require.Equal(t, "adequate", verdict.SelectedOption)
	require.InDelta(t, (2.0/3.0)*0.7, decision.Confidence, 1e-9)
}

func TestEvaluateChoiceFallbackPicksFirstOption(t *testing.T) {
	client := &stubClient{complete: func(call int) (string, error) {
		return "", errors.New("model unavailable")
	}}

	evaluator := NewEvaluator(client, 1, 2, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), choiceItem(), testFiles)

	verdict, ok := decision.Verdict.(models.ChoiceVerdict)
	require.True(t, ok)
	require.Equal(t, "excellent", verdict.SelectedOption)
	require.Zero(t, decision.Confidence)
	require.Equal(t, "all evaluation attempts failed", decision.Reasoning)
}

func TestEvaluateChoiceFallbackWithoutOptionsStaysChoice(t *testing.T) {
	client := &stubClient{complete: func(call int) (string, error) {
		return "", errors.New("model unavailable")
	}}
	item := choiceItem()
	item.Options = nil

	evaluator := NewEvaluator(client, 1, 2, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), item, testFiles)

	require.Equal(t, models.RubricKindChoice, decision.Kind)
	verdict, ok := decision.Verdict.(models.ChoiceVerdict)
	require.True(t, ok)
	require.Empty(t, verdict.SelectedOption)
	require.Zero(t, decision.Confidence)
}

func TestEvaluateChoiceRejectsUndeclaredOptions(t *testing.T) {
	client := &stubClient{complete: func(call int) (string, error) {
		return choiceCompletion("outstanding", 95), nil
	}}

	evaluator := NewEvaluator(client, 1, 2, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), choiceItem(), testFiles)

	verdict, ok := decision.Verdict.(models.ChoiceVerdict)
	require.True(t, ok)
	require.Equal(t, "excellent", verdict.SelectedOption)
	require.Zero(t, decision.Confidence)
}

func TestEvaluateSingleParallelCall(t *testing.T) {
	client := &stubClient{complete: func(call int) (string, error) {
		return binaryCompletion("award", 75), nil
	}}

	evaluator := NewEvaluator(client, 1, 1, zerolog.Nop())
	decision := evaluator.Evaluate(context.Background(), binaryItem(), testFiles)

	require.Equal(t, 1, client.callCount())
	require.InDelta(t, 0.75, decision.Confidence, 1e-9)
}
