package apihandlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aicruit/internal/app"
	"aicruit/internal/config"
	"aicruit/internal/models"
	"aicruit/internal/services"
	"aicruit/internal/store/memory"
	"aicruit/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockJobClient struct{ mock.Mock }

func (m *mockJobClient) Enqueue(ctx context.Context, task *asynq.Task, relatedEntityType, relatedEntityID string, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, relatedEntityType, relatedEntityID)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func (m *mockJobClient) EnqueueResumeEvaluation(ctx context.Context, payload tasks.EvaluationPayload, delay time.Duration) (string, error) {
	args := m.Called(ctx, payload, delay)
	return args.String(0), args.Error(1)
}

func (m *mockJobClient) Close() error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store, *mockJobClient) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	q := new(mockJobClient)
	eval := config.EvaluationConfig{PlaceholderDomain: "example.com"}
	identity := services.NewIdentityService(st, eval)
	a := &app.App{
		Store:             st,
		JobClient:         q,
		IdentityService:   identity,
		SubmissionService: services.NewSubmissionService(st, identity, q, eval, "https://app.aicruit.io"),
		ProgressService:   services.NewProgressService(st),
	}

	router := gin.New()
	NewAPIHandler(a).RegisterRoutes(router)
	return router, st, q
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func createJob(t *testing.T, router http.Handler) models.Job {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/v1/jobs",
		`{"title":"Backend Engineer","company":"Acme","evaluation_criteria":{"non_negotiable":["Go"],"additional":["Redis"]}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[models.Job](t, w)
}

func TestCreateAndGetJob(t *testing.T) {
	router, _, _ := newTestRouter(t)

	job := createJob(t, router)
	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, []string{"Go"}, job.Criteria.NonNegotiable)
	assert.Contains(t, job.JobLink, "/candidate-drop-cv?jobId="+job.JobID)

	w := doJSON(router, http.MethodGet, "/api/v1/jobs/"+job.JobID, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[models.Job](t, w)
	assert.Equal(t, "Backend Engineer", got.Title)

	w = doJSON(router, http.MethodGet, "/api/v1/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)
}

func TestCreateJobValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/jobs", `{"company":"Acme"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/jobs", `{"title":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "job title cannot be empty", decodeError(t, w).Message)
}

func TestSubmitCandidate(t *testing.T) {
	router, st, q := newTestRouter(t)
	job := createJob(t, router)

	q.On("EnqueueResumeEvaluation", mock.Anything, mock.MatchedBy(func(p tasks.EvaluationPayload) bool {
		return p.JobID == job.JobID && p.ResumeRef == "https://cv/1.pdf" && p.SubmitterRole == "Recruiter"
	}), time.Duration(0)).Return("task-1", nil).Once()

	w := doJSON(router, http.MethodPost, "/api/v1/jobs/"+job.JobID+"/candidates",
		`{"cv_link":"https://cv/1.pdf","submitter_role":"Recruiter"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	res := decodeData[services.SubmitResult](t, w)
	assert.Equal(t, "task-1", res.TaskID)
	assert.Equal(t, "ca1@example.com", res.Candidate.Email)
	q.AssertExpectations(t)

	stored, err := st.GetJobPosting(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Len(t, stored.Candidates, 1)
}

func TestSubmitCandidateQueueDown(t *testing.T) {
	router, _, q := newTestRouter(t)
	job := createJob(t, router)
	q.On("EnqueueResumeEvaluation", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("redis down"))

	w := doJSON(router, http.MethodPost, "/api/v1/jobs/"+job.JobID+"/candidates", `{"cv_link":"https://cv/1.pdf"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), models.FlagEvaluationPending)

	w = doJSON(router, http.MethodPost, "/api/v1/jobs/missing/candidates", `{"cv_link":"https://cv/1.pdf"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/jobs/"+job.JobID+"/candidates", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateCandidateAndProgress(t *testing.T) {
	router, _, q := newTestRouter(t)
	job := createJob(t, router)

	q.On("EnqueueResumeEvaluation", mock.Anything, mock.Anything, time.Duration(0)).Return("task-1", nil).Once()
	w := doJSON(router, http.MethodPost, "/api/v1/jobs/"+job.JobID+"/candidates", `{"cv_link":"https://cv/1.pdf","email":"jane@corp.io"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	cand := decodeData[services.SubmitResult](t, w).Candidate

	q.On("EnqueueResumeEvaluation", mock.Anything, mock.MatchedBy(func(p tasks.EvaluationPayload) bool {
		return p.CandidateID == cand.ID && p.RequeueCount == 0
	}), time.Duration(0)).Return("task-2", nil).Once()
	w = doJSON(router, http.MethodPost, "/api/v1/jobs/"+job.JobID+"/candidates/"+cand.ID+"/evaluate", "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, map[string]string{"task_id": "task-2"}, decodeData[map[string]string](t, w))

	w = doJSON(router, http.MethodPost, "/api/v1/jobs/"+job.JobID+"/candidates/nope/evaluate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/jobs/"+job.JobID+"/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	p := decodeData[services.JobProgress](t, w)
	assert.Equal(t, 1, p.Counts.Total)
	assert.Equal(t, 1, p.Counts.Pending)
	require.Len(t, p.Candidates, 1)
	assert.Equal(t, "jane@corp.io", p.Candidates[0].Email)
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w := doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
