package services

import (
	"context"
	"fmt"

	"aicruit/internal/models"
	"aicruit/internal/store"
)

// CandidateProgress is the read-only view of one candidate's evaluation.
type CandidateProgress struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	Score             *float64 `json:"cv_score"`
	ApplicationStatus string   `json:"application_status"`
	Flags             []string `json:"flags"`
	EvalRetryCount    int      `json:"eval_retry_count"`
	State             string   `json:"state"`
}

// Evaluation states reported per candidate.
const (
	StateScored           = "scored"
	StateRequeued         = "requeued"
	StateFailed           = "failed"
	StateDuplicateSkipped = "duplicate-skipped"
	StatePending          = "pending"
)

// ProgressCounts tallies candidates by evaluation state.
type ProgressCounts struct {
	Total            int `json:"total"`
	Scored           int `json:"scored"`
	Requeued         int `json:"requeued"`
	Failed           int `json:"failed"`
	DuplicateSkipped int `json:"duplicate_skipped"`
	Pending          int `json:"pending"`
}

type JobProgress struct {
	JobID      string              `json:"job_id"`
	Title      string              `json:"title"`
	Status     string              `json:"status"`
	Counts     ProgressCounts      `json:"counts"`
	Candidates []CandidateProgress `json:"candidates"`
}

// ProgressService projects job postings into evaluation progress.
type ProgressService struct {
	jobs store.JobPostingStore
}

func NewProgressService(jobs store.JobPostingStore) *ProgressService {
	return &ProgressService{jobs: jobs}
}

func (s *ProgressService) JobProgress(ctx context.Context, jobID string) (*JobProgress, error) {
	job, err := s.jobs.GetJobPosting(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job posting %s: %w", jobID, err)
	}
	return Progress(job), nil
}

// Progress summarizes a job's candidates.
func Progress(job *models.Job) *JobProgress {
	p := &JobProgress{
		JobID:      job.JobID,
		Title:      job.Title,
		Status:     job.Status,
		Candidates: make([]CandidateProgress, 0, len(job.Candidates)),
	}
	for i := range job.Candidates {
		c := &job.Candidates[i]
		state := CandidateState(c)
		switch state {
		case StateScored:
			p.Counts.Scored++
		case StateRequeued:
			p.Counts.Requeued++
		case StateFailed:
			p.Counts.Failed++
		case StateDuplicateSkipped:
			p.Counts.DuplicateSkipped++
		default:
			p.Counts.Pending++
		}
		p.Candidates = append(p.Candidates, CandidateProgress{
			ID:                c.ID,
			Email:             c.Email,
			Score:             c.Score,
			ApplicationStatus: c.ApplicationStatus,
			Flags:             c.Flags,
			EvalRetryCount:    c.EvalRetryCount,
			State:             state,
		})
	}
	p.Counts.Total = len(job.Candidates)
	return p
}

// CandidateState classifies a candidate. A score outranks EVALUATION_FAILED,
// which is also set when only the identity could not be extracted.
func CandidateState(c *models.Candidate) string {
	switch {
	case c.HasFlag(models.FlagDuplicateSkipped):
		return StateDuplicateSkipped
	case c.Score != nil:
		return StateScored
	case c.HasFlag(models.FlagEvaluationFailed):
		return StateFailed
	case c.HasFlag(models.FlagRequeued):
		return StateRequeued
	default:
		return StatePending
	}
}
