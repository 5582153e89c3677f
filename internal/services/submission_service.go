package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"aicruit/internal/config"
	"aicruit/internal/models"
	"aicruit/internal/store"
	"aicruit/internal/tasks"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type CreateJobParams struct {
	Title       string
	Company     string
	Description string
	Criteria    models.EvaluationCriteria
	Owners      []string
}

type SubmitCandidateParams struct {
	JobID         string
	Email         string // optional; a placeholder is generated when empty
	CVLink        string
	SubmitterRole string
}

// SubmitResult describes a stored candidate and its queued evaluation.
type SubmitResult struct {
	Candidate models.Candidate `json:"candidate"`
	Index     int              `json:"index"`
	TaskID    string           `json:"task_id,omitempty"`
}

// SubmissionService creates jobs and takes in candidate resumes.
type SubmissionService struct {
	jobs            store.JobPostingStore
	identity        *IdentityService
	queue           store.JobClient
	eval            config.EvaluationConfig
	frontendBaseURL string
}

func NewSubmissionService(jobs store.JobPostingStore, identity *IdentityService, queue store.JobClient, eval config.EvaluationConfig, frontendBaseURL string) *SubmissionService {
	return &SubmissionService{
		jobs:            jobs,
		identity:        identity,
		queue:           queue,
		eval:            eval,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
	}
}

// CreateJob stores a new job posting with its public submission link.
func (s *SubmissionService) CreateJob(ctx context.Context, p CreateJobParams) (*models.Job, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("%w: job title cannot be empty", models.ErrValidation)
	}

	job := &models.Job{
		JobID:       uuid.NewString(),
		Title:       strings.TrimSpace(p.Title),
		Company:     strings.TrimSpace(p.Company),
		Description: p.Description,
		Criteria:    p.Criteria,
		Owners:      p.Owners,
	}
	job.JobLink = fmt.Sprintf("%s/candidate-drop-cv?jobId=%s", s.frontendBaseURL, url.QueryEscape(job.JobID))

	if err := s.jobs.CreateJobPosting(ctx, job); err != nil {
		return nil, fmt.Errorf("create job posting: %w", err)
	}
	log.WithFields(log.Fields{"job_id": job.JobID, "title": job.Title}).Info("Job posting created")
	return job, nil
}

// SubmitCandidate appends a candidate to a job and queues its evaluation.
// When queueing fails the candidate is kept, flagged EVALUATION_PENDING, and
// the error is returned together with the result.
func (s *SubmissionService) SubmitCandidate(ctx context.Context, p SubmitCandidateParams) (*SubmitResult, error) {
	if strings.TrimSpace(p.CVLink) == "" {
		return nil, fmt.Errorf("%w: cv link cannot be empty", models.ErrValidation)
	}

	job, err := s.jobs.GetJobPosting(ctx, p.JobID)
	if err != nil {
		return nil, fmt.Errorf("get job posting %s: %w", p.JobID, err)
	}

	email := strings.TrimSpace(p.Email)
	if email == "" {
		email = fmt.Sprintf("ca%d@%s", len(job.Candidates)+1, s.eval.PlaceholderDomain)
	}

	if err := s.identity.EnsureCandidateUser(ctx, job.JobID, email); err != nil {
		log.WithError(err).WithField("email", email).Warn("Failed to ensure candidate user")
	}

	cand := &models.Candidate{
		Email:             email,
		CVLink:            strings.TrimSpace(p.CVLink),
		ApplicationStatus: models.StatusCVProcessed,
	}
	idx, err := s.jobs.AppendCandidate(ctx, job.JobID, cand)
	if err != nil {
		return nil, fmt.Errorf("append candidate: %w", err)
	}
	res := &SubmitResult{Candidate: *cand, Index: idx}

	taskID, err := s.queue.EnqueueResumeEvaluation(ctx, tasks.EvaluationPayload{
		JobID:          job.JobID,
		CandidateID:    cand.ID,
		CandidateIndex: idx,
		Email:          email,
		ResumeRef:      cand.CVLink,
		Criteria:       job.Criteria,
		SubmitterRole:  p.SubmitterRole,
	}, 0)
	if err != nil {
		s.markPending(ctx, job.JobID, cand.ID)
		res.Candidate.AddFlags(models.FlagEvaluationPending)
		return res, fmt.Errorf("queue resume evaluation: %w", err)
	}
	res.TaskID = taskID

	log.WithFields(log.Fields{
		"job_id":       job.JobID,
		"candidate_id": cand.ID,
		"task_id":      taskID,
	}).Info("Candidate added (evaluation queued)")
	return res, nil
}

// Reevaluate queues a fresh evaluation for an existing candidate, starting
// the requeue budget over.
func (s *SubmissionService) Reevaluate(ctx context.Context, jobID, candidateID, submitterRole string) (string, error) {
	job, err := s.jobs.GetJobPosting(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("get job posting %s: %w", jobID, err)
	}
	cand, idx := job.FindCandidate(models.ByID(candidateID))
	if cand == nil {
		return "", fmt.Errorf("candidate %s in job %s: %w", candidateID, jobID, store.ErrNotFound)
	}

	taskID, err := s.queue.EnqueueResumeEvaluation(ctx, tasks.EvaluationPayload{
		JobID:          jobID,
		CandidateID:    cand.ID,
		CandidateIndex: idx,
		Email:          cand.Email,
		ResumeRef:      cand.CVLink,
		Criteria:       job.Criteria,
		SubmitterRole:  submitterRole,
	}, 0)
	if err != nil {
		s.markPending(ctx, jobID, cand.ID)
		return "", fmt.Errorf("queue resume evaluation: %w", err)
	}
	return taskID, nil
}

func (s *SubmissionService) markPending(ctx context.Context, jobID, candidateID string) {
	err := s.jobs.UpdateCandidate(ctx, jobID, models.ByID(candidateID), models.CandidateUpdate{
		AddFlags: []string{models.FlagEvaluationPending},
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.WithError(err).WithFields(log.Fields{"job_id": jobID, "candidate_id": candidateID}).
			Error("Failed to flag candidate as pending evaluation")
	}
}
