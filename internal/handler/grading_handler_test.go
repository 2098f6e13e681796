package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	"github.com/supergrader/grader-api/internal/models"
	"github.com/supergrader/grader-api/internal/repository"
	"github.com/supergrader/grader-api/internal/service"
)

type mockGradingService struct {
	jobID   string
	events  []models.ProgressEvent
	err     error
	lastReq dto.SubmissionRequest
}

func (m *mockGradingService) Grade(_ context.Context, req dto.SubmissionRequest) (string, <-chan models.ProgressEvent, error) {
	m.lastReq = req
	if m.err != nil {
		return "", nil, m.err
	}

	events := make(chan models.ProgressEvent, len(m.events))
	for _, event := range m.events {
		events <- event
	}
	close(events)
	return m.jobID, events, nil
}

func newGradingApp(svc service.GradingService) *fiber.App {
	app := fiber.New()
	validate := validator.New(validator.WithRequiredStructEnabled())
	handler.NewGradingHandler(svc, validate, zerolog.New(io.Discard)).Register(app.Group("/api/v1"))
	return app
}

func gradingPayload(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"assignment_context": map[string]string{
			"course_id":     "cs101",
			"assignment_id": "hw3",
			"submission_id": "stu42",
		},
		"source_files": map[string]string{"main.cpp": "int main() { return 0; }"},
		"rubric_items": []map[string]interface{}{
			{"id": "compiles", "description": "Code compiles", "points": 5, "kind": "BINARY"},
		},
	})
	require.NoError(t, err)
	return body
}

func postGrading(t *testing.T, app *fiber.App, body []byte) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/grade-submission", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func TestGradingHandler_StreamsEvents(t *testing.T) {
	svc := &mockGradingService{
		jobID: "cs101_hw3_stu42",
		events: []models.ProgressEvent{
			models.PartialResult{
				RubricItemID: "compiles",
				Decision: models.GradingDecision{
					RubricItemID: "compiles",
					Kind:         models.RubricKindBinary,
					Verdict: models.BinaryVerdict{
						Decision:      models.DecisionAward,
						Evidence:      models.Evidence{File: "main.cpp", Lines: "1-1"},
						ConfidencePct: 90,
					},
					Confidence: 0.9,
				},
				Progress: 1.0,
			},
			models.JobComplete{Message: "grading completed", Progress: 1.0},
		},
	}
	app := newGradingApp(svc)

	resp := postGrading(t, app, gradingPayload(t))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	stream := string(body)
	require.Contains(t, stream, "event: partial_result\n")
	require.Contains(t, stream, `"rubric_item_id":"compiles"`)
	require.Contains(t, stream, `"decision":"award"`)
	require.Contains(t, stream, "event: job_complete\n")
	require.Contains(t, stream, `"progress":1`)

	require.Equal(t, "cs101", svc.lastReq.AssignmentContext.CourseID)
}

func TestGradingHandler_StreamsErrorEvent(t *testing.T) {
	svc := &mockGradingService{
		jobID:  "cs101_hw3_stu42",
		events: []models.ProgressEvent{models.JobError{Error: "job store update failed"}},
	}
	app := newGradingApp(svc)

	resp := postGrading(t, app, gradingPayload(t))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "event: error\n")
	require.Contains(t, string(body), "job store update failed")
}

func TestGradingHandler_InvalidBody(t *testing.T) {
	app := newGradingApp(&mockGradingService{})

	resp := postGrading(t, app, []byte("not json"))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGradingHandler_MissingFields(t *testing.T) {
	svc := &mockGradingService{}
	app := newGradingApp(svc)

	body, err := json.Marshal(map[string]interface{}{
		"source_files": map[string]string{"main.cpp": "int main() {}"},
	})
	require.NoError(t, err)

	resp := postGrading(t, app, body)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Empty(t, svc.lastReq.SourceFiles)
}

func TestGradingHandler_ValidationViolations(t *testing.T) {
	svc := &mockGradingService{err: &service.ValidationError{Violations: []string{
		"duplicate rubric item id: compiles",
		"submission id is required",
	}}}
	app := newGradingApp(svc)

	resp := postGrading(t, app, gradingPayload(t))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Contains(t, response.Message, "duplicate rubric item id: compiles")
	require.Contains(t, response.Message, "submission id is required")
}

func TestGradingHandler_DuplicateJob(t *testing.T) {
	svc := &mockGradingService{err: repository.ErrJobExists}
	app := newGradingApp(svc)

	resp := postGrading(t, app, gradingPayload(t))
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGradingHandler_InternalError(t *testing.T) {
	svc := &mockGradingService{err: errors.New("boom")}
	app := newGradingApp(svc)

	resp := postGrading(t, app, gradingPayload(t))
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
