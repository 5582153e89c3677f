package store

import (
	"time"

	"aicruit/internal/models"

	"github.com/google/uuid"
)

// Candidate document field names, shared by the document-shaped backends.
const (
	FieldCandidateID      = "id"
	FieldEmail            = "email"
	FieldScore            = "cv_score"
	FieldCompositeScore   = "composite_score"
	FieldResumeBreakdown  = "resume_breakdown"
	FieldFlags            = "flags"
	FieldEvalRetryCount   = "eval_retry_count"
	FieldApplicationState = "application_status"
)

// CandidateFieldSet returns the plain field assignments of an update keyed by
// document field name. Flags and the retry counter are not included; they are
// set-union and increment operations.
func CandidateFieldSet(u models.CandidateUpdate) map[string]any {
	set := make(map[string]any)
	if u.Score != nil {
		set[FieldScore] = *u.Score
	}
	if u.CompositeScore != nil {
		set[FieldCompositeScore] = *u.CompositeScore
	}
	if u.ResumeBreakdown != nil {
		set[FieldResumeBreakdown] = u.ResumeBreakdown
	}
	if u.Email != nil {
		set[FieldEmail] = *u.Email
	}
	if u.ApplicationStatus != nil {
		set[FieldApplicationState] = *u.ApplicationStatus
	}
	return set
}

// UniqueFlags drops empty and repeated flags, keeping first-seen order.
func UniqueFlags(flags []string) []string {
	out := make([]string, 0, len(flags))
	seen := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// PrepareCandidate fills the defaults every stored candidate carries: a sub-id,
// a non-nil flag set and an application status.
func PrepareCandidate(c *models.Candidate) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Flags == nil {
		c.Flags = []string{}
	}
	c.Flags = UniqueFlags(c.Flags)
	if c.ApplicationStatus == "" {
		c.ApplicationStatus = models.StatusCVProcessed
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}

// PrepareJob fills the defaults of a new job posting.
func PrepareJob(j *models.Job) {
	if j.JobID == "" {
		j.JobID = uuid.NewString()
	}
	if j.Status == "" {
		j.Status = models.JobPostingOngoing
	}
	if j.Candidates == nil {
		j.Candidates = []models.Candidate{}
	}
	if j.Owners == nil {
		j.Owners = []string{}
	}
	for i := range j.Candidates {
		PrepareCandidate(&j.Candidates[i])
	}
	if j.Criteria.NonNegotiable == nil {
		j.Criteria.NonNegotiable = []string{}
	}
	if j.Criteria.Additional == nil {
		j.Criteria.Additional = []string{}
	}
}
