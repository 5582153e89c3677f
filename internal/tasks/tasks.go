package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aicruit/internal/models"

	"github.com/hibiken/asynq"
)

// Defines constants for task types and queues used in Asynq.

const (
	// TypeResumeEvaluation is the task type for scoring one candidate's resume.
	TypeResumeEvaluation = "resume:evaluate"

	// QueueResumeEvaluation is the logical queue evaluation tasks are placed on.
	QueueResumeEvaluation = "resume_evaluation"
)

// EvaluationPayload is the queue payload of an evaluation task. It is never
// persisted outside the queue and the job ledger.
type EvaluationPayload struct {
	JobID          string                    `json:"job_id"`
	CandidateID    string                    `json:"candidate_id,omitempty"`
	CandidateIndex int                       `json:"candidate_index"`
	Email          string                    `json:"email"`
	ResumeRef      string                    `json:"resume_ref"`
	Criteria       models.EvaluationCriteria `json:"criteria"`
	RequeueCount   int                       `json:"requeue_count"`
	SubmitterRole  string                    `json:"submitter_role,omitempty"`
}

// Ref returns the candidate reference carried by the payload.
func (p EvaluationPayload) Ref() models.CandidateRef {
	if p.CandidateID != "" {
		return models.ByID(p.CandidateID)
	}
	return models.CandidateRef{Index: p.CandidateIndex}
}

// Validate checks the fields every evaluation task must carry.
func (p EvaluationPayload) Validate() error {
	if strings.TrimSpace(p.JobID) == "" {
		return errors.New("job_id is required")
	}
	if p.CandidateID == "" && p.CandidateIndex < 0 {
		return errors.New("candidate_id or a non-negative candidate_index is required")
	}
	if p.RequeueCount < 0 {
		return fmt.Errorf("requeue_count must be non-negative, got %d", p.RequeueCount)
	}
	return nil
}

// NewResumeEvaluationTask wraps a payload in an asynq task.
func NewResumeEvaluationTask(p EvaluationPayload) (*asynq.Task, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid evaluation payload: %w", err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal evaluation payload: %w", err)
	}
	return asynq.NewTask(TypeResumeEvaluation, data), nil
}

// ParseEvaluationPayload decodes and validates a task payload.
func ParseEvaluationPayload(data []byte) (EvaluationPayload, error) {
	var p EvaluationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("unmarshal evaluation payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
