package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/supergrader/grader-api/internal/middleware"
)

func correlationApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.GetCorrelationID(c))
	})
	return app
}

func TestCorrelationIDKeepsClientValue(t *testing.T) {
	app := correlationApp()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderCorrelationID, "client-trace-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "client-trace-1", resp.Header.Get(middleware.HeaderCorrelationID))
}

func TestCorrelationIDGeneratesWhenMissing(t *testing.T) {
	app := correlationApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	id := resp.Header.Get(middleware.HeaderCorrelationID)
	_, parseErr := uuid.Parse(id)
	require.NoError(t, parseErr)
}

func TestContextWithCorrelationRoundTrip(t *testing.T) {
	ctx := middleware.ContextWithCorrelation(nil, " trace-9 ")
	require.Equal(t, "trace-9", middleware.CorrelationIDFromContext(ctx))

	require.Empty(t, middleware.CorrelationIDFromContext(nil))
}
