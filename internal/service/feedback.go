package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/models"
	"github.com/supergrader/grader-api/internal/repository"
	"github.com/supergrader/grader-api/pkg/llm"
)

// ErrEmptyCaveat indicates the model produced no usable caveat text.
var ErrEmptyCaveat = errors.New("empty caveat")

// FeedbackService turns grader feedback into stored caveats and manages the
// caveat collection.
type FeedbackService interface {
	// SubmitFeedback distills the feedback into a caveat and persists it.
	SubmitFeedback(ctx context.Context, req dto.FeedbackRequest) (models.Caveat, error)
	// GetCaveat returns a stored caveat, or nil when absent.
	GetCaveat(ctx context.Context, id string) (*models.Caveat, error)
	// ListCaveats returns every stored caveat.
	ListCaveats(ctx context.Context) ([]models.Caveat, error)
	// DeleteCaveat removes a caveat, reporting whether it existed.
	DeleteCaveat(ctx context.Context, id string) (bool, error)
}

type feedbackService struct {
	client llm.Client
	store  repository.CaveatStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewFeedbackService wires the feedback flow together.
func NewFeedbackService(client llm.Client, store repository.CaveatStore, logger zerolog.Logger) FeedbackService {
	return &feedbackService{
		client: client,
		store:  store,
		logger: logger.With().Str("component", "feedback_service").Logger(),
		now:    time.Now,
	}
}

func (s *feedbackService) SubmitFeedback(ctx context.Context, req dto.FeedbackRequest) (models.Caveat, error) {
	completion, err := s.client.Complete(ctx, buildCaveatPrompt(req))
	if err != nil {
		return models.Caveat{}, fmt.Errorf("generate caveat: %w", err)
	}

	text := strings.TrimSpace(completion)
	if text == "" {
		return models.Caveat{}, ErrEmptyCaveat
	}

	caveat := models.Caveat{
		ID:               uuid.NewString(),
		RubricQuestion:   req.RubricQuestion,
		CaveatText:       text,
		OriginalFeedback: req.UserFeedback,
		RubricItemID:     req.RubricItemID,
		OriginalDecision: req.OriginalDecision,
		CreatedAt:        s.now(),
	}
	if err := s.store.Save(ctx, caveat); err != nil {
		return models.Caveat{}, fmt.Errorf("store caveat: %w", err)
	}

	s.logger.Info().
		Str("caveat_id", caveat.ID).
		Str("rubric_item_id", req.RubricItemID).
		Msg("stored caveat from grader feedback")
	return caveat, nil
}

func (s *feedbackService) GetCaveat(ctx context.Context, id string) (*models.Caveat, error) {
	return s.store.Get(ctx, id)
}

func (s *feedbackService) ListCaveats(ctx context.Context) ([]models.Caveat, error) {
	return s.store.List(ctx)
}

func (s *feedbackService) DeleteCaveat(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}
