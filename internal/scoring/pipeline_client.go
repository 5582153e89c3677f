package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aicruit/internal/models"

	log "github.com/sirupsen/logrus"
)

const healthTimeout = 5 * time.Second

// PipelineClient calls the external resume pipeline service over HTTP.
type PipelineClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPipelineClient creates a client for the service at baseURL. Every
// evaluate call is bounded by timeout.
func NewPipelineClient(baseURL string, timeout time.Duration) *PipelineClient {
	return &PipelineClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *PipelineClient) Name() string { return "pipeline" }

type evaluateRequest struct {
	ResumeURL string              `json:"resume_url"`
	JDJSON    map[string][]string `json:"jd_json"`
}

type evaluateResponse struct {
	Evaluation json.RawMessage `json:"evaluation"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Evaluate posts the resume reference and criteria to /evaluate-resume.
func (c *PipelineClient) Evaluate(ctx context.Context, resumeRef string, criteria models.EvaluationCriteria) (*Evaluation, error) {
	body, err := json.Marshal(evaluateRequest{ResumeURL: resumeRef, JDJSON: pipelineCriteria(criteria)})
	if err != nil {
		return nil, fmt.Errorf("marshal evaluate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evaluate-resume", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build evaluate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resume pipeline is not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read evaluate response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		detail := resp.Status
		if json.Unmarshal(data, &e) == nil && e.Detail != "" {
			detail = e.Detail
		}
		return nil, fmt.Errorf("resume evaluation failed: %s", detail)
	}

	var out evaluateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode evaluate response: %w", err)
	}
	if len(out.Evaluation) == 0 || string(out.Evaluation) == "null" {
		return nil, errors.New("invalid response from resume pipeline: no evaluation data")
	}

	parsed, err := DecodeResponse(out.Evaluation, string(data))
	if err != nil {
		return nil, err
	}

	eval := ParseEvaluation(parsed)
	log.WithFields(log.Fields{
		"resume_ref": resumeRef,
		"sections":   len(parsed.Sections),
		"has_score":  eval.Score != nil,
	}).Debug("Resume pipeline evaluation parsed")
	return eval, nil
}

// Health checks GET /health for {"status": "healthy"}.
func (c *PipelineClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resume pipeline health check failed: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if body.Status != "healthy" {
		return fmt.Errorf("resume pipeline reports status %q", body.Status)
	}
	return nil
}

var _ Client = (*PipelineClient)(nil)
