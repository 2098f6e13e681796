package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/repository"
)

// caveatClient records the prompt it was handed and returns a canned reply.
type caveatClient struct {
	reply  string
	err    error
	prompt string
}

func (c *caveatClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompt = prompt
	return c.reply, c.err
}

func (c *caveatClient) ProviderName() string { return "stub" }
func (c *caveatClient) ModelName() string    { return "stub-model" }

func feedbackRequest() dto.FeedbackRequest {
	return dto.FeedbackRequest{
		RubricItemID:      "loop-bounds",
		RubricQuestion:    "Is the loop bound correct?",
		StudentAssignment: "for (int i = n - 1; i >= 0; i--) {}",
		OriginalDecision:  "deny",
		UserFeedback:      "The reverse iteration is actually correct.",
	}
}

func TestSubmitFeedbackStoresCaveat(t *testing.T) {
	client := &caveatClient{reply: "  Reverse iteration bounds are often correct; check direction before denying.  \n"}
	store := repository.NewMemoryCaveatStore(zerolog.Nop())
	svc := NewFeedbackService(client, store, zerolog.Nop())

	caveat, err := svc.SubmitFeedback(context.Background(), feedbackRequest())
	require.NoError(t, err)
	require.NotEmpty(t, caveat.ID)
	require.Equal(t, "Reverse iteration bounds are often correct; check direction before denying.", caveat.CaveatText)
	require.Equal(t, "loop-bounds", caveat.RubricItemID)
	require.Equal(t, "deny", caveat.OriginalDecision)
	require.False(t, caveat.CreatedAt.IsZero())

	require.Contains(t, client.prompt, "Is the loop bound correct?")
	require.Contains(t, client.prompt, "The reverse iteration is actually correct.")

	stored, err := store.Get(context.Background(), caveat.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, caveat.CaveatText, stored.CaveatText)
}

func TestSubmitFeedbackPropagatesClientFailure(t *testing.T) {
	client := &caveatClient{err: errors.New("model unavailable")}
	svc := NewFeedbackService(client, repository.NewMemoryCaveatStore(zerolog.Nop()), zerolog.Nop())

	_, err := svc.SubmitFeedback(context.Background(), feedbackRequest())
	require.ErrorContains(t, err, "generate caveat")
}

func TestSubmitFeedbackRejectsBlankCaveat(t *testing.T) {
	client := &caveatClient{reply: "   \n  "}
	svc := NewFeedbackService(client, repository.NewMemoryCaveatStore(zerolog.Nop()), zerolog.Nop())

	_, err := svc.SubmitFeedback(context.Background(), feedbackRequest())
	require.ErrorIs(t, err, ErrEmptyCaveat)
}

func TestFeedbackServiceCaveatLifecycle(t *testing.T) {
	client := &caveatClient{reply: "Check edge cases before denying."}
	store := repository.NewMemoryCaveatStore(zerolog.Nop())
	svc := NewFeedbackService(client, store, zerolog.Nop())

	caveat, err := svc.SubmitFeedback(context.Background(), feedbackRequest())
	require.NoError(t, err)

	all, err := svc.ListCaveats(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)

	got, err := svc.GetCaveat(context.Background(), caveat.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	existed, err := svc.DeleteCaveat(context.Background(), caveat.ID)
	require.NoError(t, err)
	require.True(t, existed)

	got, err = svc.GetCaveat(context.Background(), caveat.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}
