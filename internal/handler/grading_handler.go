package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/middleware"
	"github.com/supergrader/grader-api/internal/models"
	"github.com/supergrader/grader-api/internal/repository"
	"github.com/supergrader/grader-api/internal/service"
	"github.com/supergrader/grader-api/internal/utils"
)

const streamKeepAliveInterval = 15 * time.Second

// GradingHandler exposes the grading pipeline over an SSE stream.
type GradingHandler struct {
	service   service.GradingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingHandler constructs a handler instance.
func NewGradingHandler(service service.GradingService, validator *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register binds the grading routes.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/grade-submission", h.grade)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var req dto.SubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
	ctx, cancel := context.WithCancel(ctx)

	jobID, events, err := h.service.Grade(ctx, req)
	if err != nil {
		cancel()

		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return utils.SendError(c, fiber.StatusBadRequest, validationErr.Error())
		case errors.Is(err, repository.ErrJobExists):
			return utils.SendError(c, fiber.StatusConflict, "a grading job for this submission is already registered")
		default:
			h.logger.Error().Err(err).Msg("failed to start grading job")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to start grading job")
		}
	}

	h.logger.Info().Str("job_id", jobID).Msg("grading stream opened")

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(streamKeepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeProgressEvent(w, event); err != nil {
					h.logger.Debug().Err(err).Str("job_id", jobID).Msg("client dropped grading stream")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Str("job_id", jobID).Msg("client dropped grading stream")
					return
				}
			}
		}
	})

	return nil
}

func writeProgressEvent(w *bufio.Writer, event models.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", event.EventName()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
