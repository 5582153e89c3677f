package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aicruit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineClient_Evaluate(t *testing.T) {
	var got evaluateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/evaluate-resume", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"evaluation": ` + sampleEvaluation + `}`))
	}))
	defer srv.Close()

	c := NewPipelineClient(srv.URL+"/", time.Second)
	eval, err := c.Evaluate(context.Background(), "https://cdn/r.pdf", models.EvaluationCriteria{
		NonNegotiable: []string{"Go"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn/r.pdf", got.ResumeURL)
	assert.Equal(t, []string{"Go"}, got.JDJSON[BreakdownNonNegotiable])
	assert.Equal(t, []string{}, got.JDJSON[BreakdownNegotiable])

	require.NotNil(t, eval.Score)
	assert.Equal(t, 8.0, *eval.Score)
	assert.Equal(t, "jane@corp.io", eval.Identity.Email)
}

func TestPipelineClient_Evaluate_ErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Could not extract text from resume"}`))
	}))
	defer srv.Close()

	_, err := NewPipelineClient(srv.URL, time.Second).Evaluate(context.Background(), "x", models.EvaluationCriteria{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not extract text from resume")
}

func TestPipelineClient_Evaluate_MissingEvaluation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	_, err := NewPipelineClient(srv.URL, time.Second).Evaluate(context.Background(), "x", models.EvaluationCriteria{})
	assert.ErrorContains(t, err, "no evaluation data")
}

func TestPipelineClient_Health(t *testing.T) {
	status := "healthy"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))
	defer srv.Close()

	c := NewPipelineClient(srv.URL, time.Second)
	assert.NoError(t, c.Health(context.Background()))

	status = "degraded"
	assert.Error(t, c.Health(context.Background()))
}
