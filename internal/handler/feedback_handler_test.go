package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/handler"
	"github.com/supergrader/grader-api/internal/repository"
	"github.com/supergrader/grader-api/internal/service"
)

type echoCaveatClient struct{}

func (echoCaveatClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "Watch for reverse iteration before denying loop-bound items.", nil
}
func (echoCaveatClient) ProviderName() string { return "stub" }
func (echoCaveatClient) ModelName() string    { return "stub-model" }

func newFeedbackApp(t *testing.T) (*fiber.App, *repository.MemoryCaveatStore) {
	t.Helper()
	store := repository.NewMemoryCaveatStore(zerolog.New(io.Discard))
	t.Cleanup(func() { _ = store.Close() })

	svc := service.NewFeedbackService(echoCaveatClient{}, store, zerolog.New(io.Discard))
	validate := validator.New(validator.WithRequiredStructEnabled())

	app := fiber.New()
	handler.NewFeedbackHandler(svc, validate, zerolog.New(io.Discard)).Register(app.Group("/api/v1"))
	return app, store
}

func postFeedback(t *testing.T, app *fiber.App, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func validFeedback() dto.FeedbackRequest {
	return dto.FeedbackRequest{
		RubricItemID:      "loop-bounds",
		RubricQuestion:    "Is the loop bound correct?",
		StudentAssignment: "for (int i = n - 1; i >= 0; i--) {}",
		OriginalDecision:  "deny",
		UserFeedback:      "The reverse iteration is actually correct.",
	}
}

func TestFeedbackHandler_SubmitStoresCaveat(t *testing.T) {
	app, store := newFeedbackApp(t)

	resp := postFeedback(t, app, validFeedback())
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                 `json:"success"`
		Data    dto.FeedbackResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.NotEmpty(t, response.Data.CaveatID)
	require.Contains(t, response.Data.CaveatText, "reverse iteration")

	stored, err := store.Get(context.Background(), response.Data.CaveatID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestFeedbackHandler_SubmitRejectsIncompleteRequest(t *testing.T) {
	app, _ := newFeedbackApp(t)

	incomplete := validFeedback()
	incomplete.UserFeedback = ""

	resp := postFeedback(t, app, incomplete)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFeedbackHandler_CaveatLifecycle(t *testing.T) {
	app, _ := newFeedbackApp(t)

	resp := postFeedback(t, app, validFeedback())
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var created struct {
		Data dto.FeedbackResponse `json:"data"`
	}
	decodeResponse(t, resp, &created)
	id := created.Data.CaveatID

	resp = doRequest(t, app, http.MethodGet, "/api/v1/caveat/"+id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/caveats")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/caveat/"+id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/caveat/"+id)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
