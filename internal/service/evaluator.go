package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/models"
	"github.com/supergrader/grader-api/pkg/llm"
)

// Evaluator grades a single rubric item against a submission.
type Evaluator interface {
	// Evaluate runs the configured number of independent judgments and
	// reduces them to one decision. It never fails: when every call errors
	// out, it returns the conservative fallback decision instead.
	Evaluate(ctx context.Context, item models.RubricItem, files map[string]string) models.GradingDecision
}

type rubricEvaluator struct {
	client        llm.Client
	retry         retryPolicy
	parallelCalls int
	logger        zerolog.Logger
}

// NewEvaluator builds an evaluator that issues parallelCalls concurrent
// judgments per rubric item, each retried up to maxRetries attempts.
func NewEvaluator(client llm.Client, maxRetries, parallelCalls int, logger zerolog.Logger) Evaluator {
	if parallelCalls <= 0 {
		parallelCalls = 1
	}
	return &rubricEvaluator{
		client:        client,
		retry:         newRetryPolicy(maxRetries),
		parallelCalls: parallelCalls,
		logger:        logger.With().Str("component", "evaluator").Logger(),
	}
}

func (e *rubricEvaluator) Evaluate(ctx context.Context, item models.RubricItem, files map[string]string) models.GradingDecision {
	switch item.Kind {
	case models.RubricKindChoice:
		return e.evaluateChoice(ctx, item, files)
	default:
		return e.evaluateBinary(ctx, item, files)
	}
}

// judge runs one complete-and-parse attempt under the retry policy. The
// parse closure classifies its own failures: malformed output is permanent.
func (e *rubricEvaluator) judge(ctx context.Context, prompt string, parse func(completion string) error) error {
	return e.retry.execute(ctx, func() error {
		completion, err := e.client.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		return parse(completion)
	})
}

func (e *rubricEvaluator) evaluateBinary(ctx context.Context, item models.RubricItem, files map[string]string) models.GradingDecision {
	prompt := buildBinaryPrompt(item, files)

	// Slots are indexed by call number so the verdict order is stable no
	// matter which goroutine finishes first.
	results := make([]*models.BinaryVerdict, e.parallelCalls)
	var wg sync.WaitGroup
	for i := 0; i < e.parallelCalls; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			err := e.judge(ctx, prompt, func(completion string) error {
				verdict, parseErr := parseBinaryVerdict(completion)
				if parseErr != nil {
					return fmt.Errorf("%w: %s", errMalformedVerdict, parseErr)
				}
				results[slot] = &verdict
				return nil
			})
			if err != nil {
				e.logger.Warn().Err(err).
					Str("rubric_item_id", item.ID).
					Int("call", slot).
					Msg("evaluation call failed")
			}
		}(i)
	}
	wg.Wait()

	verdicts := make([]models.BinaryVerdict, 0, e.parallelCalls)
	for _, verdict := range results {
		if verdict != nil {
			verdicts = append(verdicts, *verdict)
		}
	}

	if len(verdicts) == 0 {
		e.logger.Error().Str("rubric_item_id", item.ID).Msg("all evaluation calls failed, using fallback decision")
		return fallbackDecision(item)
	}

	representative, confidence := resolveBinary(verdicts)
	generic := make([]models.Verdict, len(verdicts))
	for i, verdict := range verdicts {
		generic[i] = verdict
	}

	return models.GradingDecision{
		RubricItemID: item.ID,
		Kind:         models.RubricKindBinary,
		Verdict:      representative,
		Confidence:   confidence,
		Reasoning:    voteReasoning(generic),
	}
}

func (e *rubricEvaluator) evaluateChoice(ctx context.Context, item models.RubricItem, files map[string]string) models.GradingDecision {
	prompt := buildChoicePrompt(item, files)

	results := make([]*models.ChoiceVerdict, e.parallelCalls)
	var wg sync.WaitGroup
	for i := 0; i < e.parallelCalls; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			err := e.judge(ctx, prompt, func(completion string) error {
				verdict, parseErr := parseChoiceVerdict(completion, item)
				if parseErr != nil {
					return fmt.Errorf("%w: %s", errMalformedVerdict, parseErr)
				}
				results[slot] = &verdict
				return nil
			})
			if err != nil {
				e.logger.Warn().Err(err).
					Str("rubric_item_id", item.ID).
					Int("call", slot).
					Msg("evaluation call failed")
			}
		}(i)
	}
	wg.Wait()

	verdicts := make([]models.ChoiceVerdict, 0, e.parallelCalls)
	for _, verdict := range results {
		if verdict != nil {
			verdicts = append(verdicts, *verdict)
		}
	}

	if len(verdicts) == 0 {
		e.logger.Error().Str("rubric_item_id", item.ID).Msg("all evaluation calls failed, using fallback decision")
		return fallbackDecision(item)
	}

	representative, confidence := resolveChoice(verdicts)
	generic := make([]models.Verdict, len(verdicts))
	for i, verdict := range verdicts {
		generic[i] = verdict
	}

	return models.GradingDecision{
		RubricItemID: item.ID,
		Kind:         models.RubricKindChoice,
		Verdict:      representative,
		Confidence:   confidence,
		Reasoning:    voteReasoning(generic),
	}
}

// fallbackDecision is the conservative outcome when no judgment could be
// obtained: award the points (or pick the first declared option) so a
// transient outage never silently penalises a student, and flag the item for
// manual review with zero confidence.
func fallbackDecision(item models.RubricItem) models.GradingDecision {
	evidence := models.Evidence{File: "unknown", Lines: "0-0"}
	comment := "Automatic evaluation was unavailable for this item; it requires manual review."

	var verdict models.Verdict
	if item.Kind == models.RubricKindChoice {
		// With no declared options the selection stays empty; the zero
		// confidence already routes the item to manual review.
		selected := ""
		if len(item.Options) > 0 {
			selected = item.Options[0].Key
		}
		verdict = models.ChoiceVerdict{
			SelectedOption: selected,
			Evidence:       evidence,
			Comment:        comment,
		}
	} else {
		verdict = models.BinaryVerdict{
			Decision: models.DecisionAward,
			Evidence: evidence,
			Comment:  comment,
		}
	}

	return models.GradingDecision{
		RubricItemID: item.ID,
		Kind:         item.Kind,
		Verdict:      verdict,
		Confidence:   0.0,
		Reasoning:    "all evaluation attempts failed",
	}
}
