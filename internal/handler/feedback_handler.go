package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/middleware"
	"github.com/supergrader/grader-api/internal/service"
	"github.com/supergrader/grader-api/internal/utils"
)

// FeedbackHandler accepts grader feedback and manages the resulting caveats.
type FeedbackHandler struct {
	service   service.FeedbackService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewFeedbackHandler constructs a handler instance.
func NewFeedbackHandler(svc service.FeedbackService, validate *validator.Validate, logger zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service:   svc,
		validator: validate,
		logger:    logger.With().Str("component", "feedback_handler").Logger(),
	}
}

// Register binds the feedback and caveat routes.
func (h *FeedbackHandler) Register(router fiber.Router) {
	router.Post("/feedback", h.submit)
	router.Get("/caveats", h.list)
	router.Get("/caveat/:id", h.get)
	router.Delete("/caveat/:id", h.remove)
}

func (h *FeedbackHandler) requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func (h *FeedbackHandler) submit(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	caveat, err := h.service.SubmitFeedback(h.requestContext(c), req)
	if err != nil {
		h.logger.Error().Err(err).Str("rubric_item_id", req.RubricItemID).Msg("failed to process feedback")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process feedback")
	}

	return utils.SendSuccess(c, "feedback processed", dto.FeedbackResponse{
		CaveatID:   caveat.ID,
		CaveatText: caveat.CaveatText,
	})
}

func (h *FeedbackHandler) list(c *fiber.Ctx) error {
	caveats, err := h.service.ListCaveats(h.requestContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list caveats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list caveats")
	}

	return utils.SendSuccess(c, "caveats", caveats)
}

func (h *FeedbackHandler) get(c *fiber.Ctx) error {
	id := c.Params("id")

	caveat, err := h.service.GetCaveat(h.requestContext(c), id)
	if err != nil {
		h.logger.Error().Err(err).Str("caveat_id", id).Msg("failed to load caveat")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load caveat")
	}
	if caveat == nil {
		return utils.SendError(c, fiber.StatusNotFound, "caveat not found")
	}

	return utils.SendSuccess(c, "caveat", caveat)
}

func (h *FeedbackHandler) remove(c *fiber.Ctx) error {
	id := c.Params("id")

	existed, err := h.service.DeleteCaveat(h.requestContext(c), id)
	if err != nil {
		h.logger.Error().Err(err).Str("caveat_id", id).Msg("failed to delete caveat")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete caveat")
	}
	if !existed {
		return utils.SendError(c, fiber.StatusNotFound, "caveat not found")
	}

	return utils.SendSuccess(c, "caveat deleted", fiber.Map{"caveat_id": id})
}
