package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/middleware"
	"github.com/supergrader/grader-api/internal/models"
	"github.com/supergrader/grader-api/internal/repository"
	"github.com/supergrader/grader-api/internal/utils"
)

const defaultCleanupMaxAgeHours = 24

// JobHandler exposes grading job records for polling and maintenance.
type JobHandler struct {
	store  repository.JobStore
	logger zerolog.Logger
}

// NewJobHandler constructs a handler instance.
func NewJobHandler(store repository.JobStore, logger zerolog.Logger) *JobHandler {
	return &JobHandler{
		store:  store,
		logger: logger.With().Str("component", "job_handler").Logger(),
	}
}

// Register binds the job routes.
func (h *JobHandler) Register(router fiber.Router) {
	router.Get("/jobs", h.list)
	router.Get("/jobs/stats", h.stats)
	router.Post("/jobs/cleanup", h.cleanup)
	router.Get("/job/:id", h.get)
	router.Delete("/job/:id", h.remove)
}

func (h *JobHandler) requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func (h *JobHandler) get(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if !models.ValidJobID(jobID) {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid job id format")
	}

	record, err := h.store.Get(h.requestContext(c), jobID)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to load job")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load job")
	}
	if record == nil {
		return utils.SendError(c, fiber.StatusNotFound, "job not found")
	}

	return utils.SendSuccess(c, "job status", record)
}

func (h *JobHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	records, err := h.store.List(h.requestContext(c), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list jobs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list jobs")
	}

	return utils.SendSuccess(c, "jobs", records)
}

func (h *JobHandler) remove(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if !models.ValidJobID(jobID) {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid job id format")
	}

	existed, err := h.store.Delete(h.requestContext(c), jobID)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to delete job")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete job")
	}
	if !existed {
		return utils.SendError(c, fiber.StatusNotFound, "job not found")
	}

	return utils.SendSuccess(c, "job deleted", fiber.Map{"job_id": jobID})
}

func (h *JobHandler) cleanup(c *fiber.Ctx) error {
	maxAgeHours, err := parseQueryInt(c, "max_age_hours")
	if err != nil || maxAgeHours < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid max_age_hours")
	}
	if maxAgeHours == 0 {
		maxAgeHours = defaultCleanupMaxAgeHours
	}

	removed, err := h.store.CleanupOlderThan(h.requestContext(c), maxAgeHours*3600)
	if err != nil {
		h.logger.Error().Err(err).Msg("job cleanup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "job cleanup failed")
	}

	h.logger.Info().Int("removed", removed).Int("max_age_hours", maxAgeHours).Msg("job cleanup completed")

	return utils.SendSuccess(c, "cleanup completed", dto.CleanupResponse{
		DeletedCount: removed,
		MaxAgeHours:  maxAgeHours,
	})
}

func (h *JobHandler) stats(c *fiber.Ctx) error {
	total, err := h.store.Count(h.requestContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute job stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute job stats")
	}

	return utils.SendSuccess(c, "job stats", dto.JobStatsResponse{TotalJobs: total})
}
