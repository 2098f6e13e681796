package service

import (
	"context"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/config"
	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/models"
	"github.com/supergrader/grader-api/internal/observability"
	"github.com/supergrader/grader-api/internal/repository"
)

// GradingService runs the full grading pipeline for a submission and streams
// progress events back to the caller.
type GradingService interface {
	// Grade validates the request, registers the job, and starts grading in
	// the background. The returned channel emits one PartialResult per rubric
	// item in submission order followed by exactly one terminal event, and is
	// closed after the terminal event. Returns repository.ErrJobExists when a
	// job for the same submission is already registered and a
	// *ValidationError when the request is invalid.
	Grade(ctx context.Context, req dto.SubmissionRequest) (string, <-chan models.ProgressEvent, error)
}

type gradingService struct {
	evaluator    Evaluator
	preprocessor Preprocessor
	store        repository.JobStore
	cfg          config.GradingConfig
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	now          func() time.Time
}

// NewGradingService wires the grading pipeline together.
func NewGradingService(
	evaluator Evaluator,
	preprocessor Preprocessor,
	store repository.JobStore,
	cfg config.GradingConfig,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		evaluator:    evaluator,
		preprocessor: preprocessor,
		store:        store,
		cfg:          cfg,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "grading_service").Logger(),
		now:          time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, req dto.SubmissionRequest) (string, <-chan models.ProgressEvent, error) {
	if err := ValidateSubmission(req); err != nil {
		return "", nil, err
	}

	jobID := req.JobID()
	createdAt := s.now()
	record := models.JobRecord{
		JobID:      jobID,
		Status:     models.JobStatusPending,
		TotalItems: len(req.RubricItems),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	if err := s.store.Create(ctx, record); err != nil {
		return "", nil, err
	}

	events := make(chan models.ProgressEvent)
	go s.run(ctx, jobID, req, record, events)
	return jobID, events, nil
}

// itemResult carries one item's outcome out of its evaluation goroutine. err
// is only set when the evaluator panicked.
type itemResult struct {
	decision models.GradingDecision
	err      error
}

func (s *gradingService) run(ctx context.Context, jobID string, req dto.SubmissionRequest, record models.JobRecord, events chan<- models.ProgressEvent) {
	defer close(events)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("job_id", jobID).Interface("panic", r).Msg("grading pipeline panicked")
			s.fail(ctx, jobID, fmt.Sprintf("internal error: %v", r), events)
		}
	}()

	record.Status = models.JobStatusProcessing
	record.UpdatedAt = s.now()
	if err := s.store.Update(ctx, record); err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("job store update failed: %v", err), events)
		return
	}

	actx := req.AssignmentContext
	files := s.preprocessor.Preprocess(ctx, actx.CourseID, actx.AssignmentID, actx.SubmissionID, req.SourceFiles)

	items := req.RubricModels()
	batches, err := splitBatches(items, s.cfg)
	if err != nil {
		s.fail(ctx, jobID, err.Error(), events)
		return
	}
	total := len(items)

	s.logger.Info().
		Str("job_id", jobID).
		Int("rubric_items", total).
		Int("batches", len(batches)).
		Msg("grading started")

	completed := 0
	for batchIndex, batch := range batches {
		if batchIndex > 0 {
			if err := s.pause(ctx); err != nil {
				s.fail(ctx, jobID, "grading cancelled", events)
				return
			}
		}

		// Items in a batch are evaluated concurrently; each writes its
		// result to its own slot so emission can stay in submission order.
		slots := make([]chan itemResult, len(batch))
		for i, item := range batch {
			slots[i] = make(chan itemResult, 1)
			go func(item models.RubricItem, slot chan<- itemResult) {
				defer func() {
					if r := recover(); r != nil {
						slot <- itemResult{err: fmt.Errorf("internal error: %v", r)}
					}
				}()
				slot <- itemResult{decision: s.evaluator.Evaluate(ctx, item, files)}
			}(item, slots[i])
		}

		for i := range batch {
			var result itemResult
			select {
			case result = <-slots[i]:
			case <-ctx.Done():
				s.fail(ctx, jobID, "grading cancelled", events)
				return
			}
			if result.err != nil {
				s.logger.Error().Str("job_id", jobID).Err(result.err).Msg("grading pipeline panicked")
				s.fail(ctx, jobID, result.err.Error(), events)
				return
			}

			decision := s.sanitizeDecision(result.decision)
			completed++
			progress := float64(completed) / float64(total)

			record.Status = models.JobStatusProcessing
			record.CompletedItems = completed
			record.Progress = progress
			record.UpdatedAt = s.now()
			if err := s.store.Update(ctx, record); err != nil {
				s.fail(ctx, jobID, fmt.Sprintf("job store update failed: %v", err), events)
				return
			}

			partial := models.PartialResult{
				RubricItemID: decision.RubricItemID,
				Decision:     decision,
				Progress:     progress,
			}
			select {
			case events <- partial:
			case <-ctx.Done():
				s.fail(ctx, jobID, "grading cancelled", events)
				return
			}
		}
	}

	record.Status = models.JobStatusCompleted
	record.UpdatedAt = s.now()
	if err := s.store.Update(ctx, record); err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("job store update failed: %v", err), events)
		return
	}

	s.logger.Info().Str("job_id", jobID).Int("rubric_items", total).Msg("grading completed")
	observability.GradingJobs().WithLabelValues(models.JobStatusCompleted).Inc()

	complete := models.JobComplete{Message: "grading completed", Progress: 1.0}
	select {
	case events <- complete:
	case <-ctx.Done():
	}
}

// pause waits out the configured inter-batch delay, returning early when the
// request is cancelled.
func (s *gradingService) pause(ctx context.Context) error {
	if s.cfg.BatchDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.cfg.BatchDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail records the job as failed and emits the terminal error event. The
// store write uses a detached context so a cancelled request still leaves an
// accurate record behind.
func (s *gradingService) fail(ctx context.Context, jobID, message string, events chan<- models.ProgressEvent) {
	s.logger.Error().Str("job_id", jobID).Str("error", message).Msg("grading failed")
	observability.GradingJobs().WithLabelValues(models.JobStatusFailed).Inc()

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if record, err := s.store.Get(storeCtx, jobID); err == nil && record != nil {
		record.Status = models.JobStatusFailed
		record.Error = message
		record.UpdatedAt = s.now()
		if err := s.store.Update(storeCtx, *record); err != nil {
			s.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to record job failure")
		}
	}

	select {
	case events <- models.JobError{Error: message}:
	case <-ctx.Done():
	}
}

// sanitizeDecision strips any markup from model-authored comment text before
// it reaches clients.
func (s *gradingService) sanitizeDecision(decision models.GradingDecision) models.GradingDecision {
	switch verdict := decision.Verdict.(type) {
	case models.BinaryVerdict:
		verdict.Comment = s.sanitizer.Sanitize(verdict.Comment)
		decision.Verdict = verdict
	case models.ChoiceVerdict:
		verdict.Comment = s.sanitizer.Sanitize(verdict.Comment)
		decision.Verdict = verdict
	}
	return decision
}
