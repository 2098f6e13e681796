package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/supergrader/grader-api/internal/config"
	"github.com/supergrader/grader-api/internal/handler"
	"github.com/supergrader/grader-api/internal/middleware"
	"github.com/supergrader/grader-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradingHandler  *handler.GradingHandler
	JobHandler      *handler.JobHandler
	FeedbackHandler *handler.FeedbackHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.GradingHandler != nil {
		// Grading fans out to the LLM provider, so it gets a tighter limit
		// than the read endpoints.
		grading := api.Group("/", middleware.RateLimit("grade", 30, time.Minute))
		deps.GradingHandler.Register(grading)
	}

	if deps.JobHandler != nil {
		deps.JobHandler.Register(api)
	}

	if deps.FeedbackHandler != nil {
		// Feedback also costs an LLM call per submission.
		feedback := api.Group("/", middleware.RateLimit("feedback", 30, time.Minute))
		deps.FeedbackHandler.Register(feedback)
	}
}
