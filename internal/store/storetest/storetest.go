// Package storetest holds the behaviour every store backend must share. Backend
// packages run it against a fresh store from their own tests.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s. Every case uses fresh ids so s may be shared with other data.
func Run(t *testing.T, s store.Store) {
	t.Run("JobPostings", func(t *testing.T) { testJobPostings(t, s) })
	t.Run("AppendCandidate", func(t *testing.T) { testAppendCandidate(t, s) })
	t.Run("UpdateCandidate", func(t *testing.T) { testUpdateCandidate(t, s) })
	t.Run("ConcurrentUpdates", func(t *testing.T) { testConcurrentUpdates(t, s) })
	t.Run("RemoveCandidate", func(t *testing.T) { testRemoveCandidate(t, s) })
	t.Run("EmailClaim", func(t *testing.T) { testEmailClaim(t, s) })
	t.Run("ConcurrentEmailClaims", func(t *testing.T) { testConcurrentEmailClaims(t, s) })
	t.Run("SaveJobPosting", func(t *testing.T) { testSaveJobPosting(t, s) })
	t.Run("Users", func(t *testing.T) { testUsers(t, s) })
	t.Run("Ledger", func(t *testing.T) { testLedger(t, s) })
}

func newJob(t *testing.T, s store.Store, candidates int) *models.Job {
	t.Helper()
	ctx := context.Background()
	job := &models.Job{
		Title:   "Backend Engineer",
		Company: "Acme",
		Criteria: models.EvaluationCriteria{
			NonNegotiable: []string{"Go"},
			Additional:    []string{"Kubernetes"},
		},
	}
	require.NoError(t, s.CreateJobPosting(ctx, job))
	for i := 0; i < candidates; i++ {
		_, err := s.AppendCandidate(ctx, job.JobID, &models.Candidate{
			Email:  fmt.Sprintf("c%d-%s@example.org", i, job.JobID[:8]),
			CVLink: fmt.Sprintf("https://cv.example.org/%d.pdf", i),
		})
		require.NoError(t, err)
	}
	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	return got
}

func ptr[T any](v T) *T { return &v }

func testJobPostings(t *testing.T, s store.Store) {
	ctx := context.Background()
	job := newJob(t, s, 0)

	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, models.JobPostingOngoing, job.Status)
	assert.Equal(t, []string{"Go"}, job.Criteria.NonNegotiable)
	assert.Equal(t, []string{"Kubernetes"}, job.Criteria.Additional)
	assert.Empty(t, job.Candidates)

	err := s.CreateJobPosting(ctx, &models.Job{JobID: job.JobID, Title: "again"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.GetJobPosting(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	jobs, err := s.ListJobPostings(ctx, 1000, 0)
	require.NoError(t, err)
	found := false
	for _, j := range jobs {
		if j.JobID == job.JobID {
			found = true
		}
	}
	assert.True(t, found, "created job should be listed")
}

func testAppendCandidate(t *testing.T, s store.Store) {
	ctx := context.Background()
	job := newJob(t, s, 0)

	first := &models.Candidate{Email: "first@example.org", CVLink: "https://cv.example.org/1.pdf"}
	idx, err := s.AppendCandidate(ctx, job.JobID, first)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.NotEmpty(t, first.ID)

	idx, err = s.AppendCandidate(ctx, job.JobID, &models.Candidate{Email: "second@example.org"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	require.Len(t, got.Candidates, 2)
	c := got.Candidates[0]
	assert.Equal(t, first.ID, c.ID)
	assert.Equal(t, "first@example.org", c.Email)
	assert.Equal(t, "https://cv.example.org/1.pdf", c.CVLink)
	assert.Equal(t, models.StatusCVProcessed, c.ApplicationStatus)
	assert.Nil(t, c.Score)
	assert.Empty(t, c.Flags)
	assert.Zero(t, c.EvalRetryCount)

	_, err = s.AppendCandidate(ctx, uuid.NewString(), &models.Candidate{Email: "x@example.org"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateCandidate(t *testing.T, s store.Store) {
	ctx := context.Background()
	job := newJob(t, s, 2)
	target := job.Candidates[1]

	err := s.UpdateCandidate(ctx, job.JobID, models.ByID(target.ID), models.CandidateUpdate{
		Score:             ptr(82.5),
		CompositeScore:    ptr(0.825),
		ResumeBreakdown:   map[string]string{"Skills": "Go, SQL"},
		Email:             ptr("renamed@example.org"),
		ApplicationStatus: ptr(models.StatusShortlistedAIInterview),
		AddFlags:          []string{models.FlagRequeued, models.FlagRequeued},
		IncRetryCount:     1,
	})
	require.NoError(t, err)

	// flags form a set and the counter accumulates
	err = s.UpdateCandidate(ctx, job.JobID, models.ByID(target.ID), models.CandidateUpdate{
		AddFlags:      []string{models.FlagRequeued, models.FlagEvaluationFailed},
		IncRetryCount: 1,
	})
	require.NoError(t, err)

	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	require.Len(t, got.Candidates, 2)
	c := got.Candidates[1]
	require.NotNil(t, c.Score)
	assert.InDelta(t, 82.5, *c.Score, 1e-9)
	require.NotNil(t, c.CompositeScore)
	assert.InDelta(t, 0.825, *c.CompositeScore, 1e-9)
	assert.Equal(t, map[string]string{"Skills": "Go, SQL"}, c.ResumeBreakdown)
	assert.Equal(t, "renamed@example.org", c.Email)
	assert.Equal(t, models.StatusShortlistedAIInterview, c.ApplicationStatus)
	assert.ElementsMatch(t, []string{models.FlagRequeued, models.FlagEvaluationFailed}, c.Flags)
	assert.Equal(t, 2, c.EvalRetryCount)

	assert.Nil(t, got.Candidates[0].Score, "other candidates are untouched")
	assert.Equal(t, job.Candidates[0].Email, got.Candidates[0].Email)

	// positional reference when no sub-id is given
	err = s.UpdateCandidate(ctx, job.JobID, models.CandidateRef{Index: 0}, models.CandidateUpdate{Score: ptr(10.0)})
	require.NoError(t, err)
	got, err = s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	require.NotNil(t, got.Candidates[0].Score)
	assert.InDelta(t, 10.0, *got.Candidates[0].Score, 1e-9)

	err = s.UpdateCandidate(ctx, job.JobID, models.ByID(uuid.NewString()), models.CandidateUpdate{Score: ptr(1.0)})
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = s.UpdateCandidate(ctx, job.JobID, models.CandidateRef{Index: 7}, models.CandidateUpdate{Score: ptr(1.0)})
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = s.UpdateCandidate(ctx, uuid.NewString(), models.ByID(target.ID), models.CandidateUpdate{Score: ptr(1.0)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentUpdates(t *testing.T, s store.Store) {
	ctx := context.Background()
	const n = 8
	job := newJob(t, s, n)

	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i, c := range job.Candidates {
		wg.Add(2)
		go func(id string, score float64) {
			defer wg.Done()
			errs <- s.UpdateCandidate(ctx, job.JobID, models.ByID(id), models.CandidateUpdate{Score: &score})
		}(c.ID, float64(i+1))
		go func() {
			defer wg.Done()
			errs <- s.UpdateCandidate(ctx, job.JobID, models.ByID(job.Candidates[0].ID), models.CandidateUpdate{IncRetryCount: 1})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	require.Len(t, got.Candidates, n)
	for i, c := range got.Candidates {
		require.NotNil(t, c.Score, "candidate %d lost its score", i)
		assert.InDelta(t, float64(i+1), *c.Score, 1e-9)
	}
	assert.Equal(t, n, got.Candidates[0].EvalRetryCount)
}

func testRemoveCandidate(t *testing.T, s store.Store) {
	ctx := context.Background()
	job := newJob(t, s, 3)
	removed := job.Candidates[1]

	require.NoError(t, s.RemoveCandidate(ctx, job.JobID, removed.ID))
	err := s.RemoveCandidate(ctx, job.JobID, removed.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	require.Len(t, got.Candidates, 2)
	assert.Equal(t, job.Candidates[0].ID, got.Candidates[0].ID)
	assert.Equal(t, job.Candidates[2].ID, got.Candidates[1].ID)

}

func testEmailClaim(t *testing.T, s store.Store) {
	ctx := context.Background()
	job := newJob(t, s, 3)
	held := job.Candidates[0].Email

	claim := func(i int, email string) error {
		return s.UpdateCandidate(ctx, job.JobID, models.ByID(job.Candidates[i].ID), models.CandidateUpdate{
			Email:             &email,
			ApplicationStatus: ptr(models.StatusShortlistedAIInterview),
			ExclusiveEmail:    true,
		})
	}

	err := claim(1, "  "+strings.ToUpper(held)+" ")
	assert.ErrorIs(t, err, store.ErrDuplicate)
	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, job.Candidates[1].Email, got.Candidates[1].Email)
	assert.Equal(t, job.Candidates[1].ApplicationStatus, got.Candidates[1].ApplicationStatus)

	require.NoError(t, claim(0, held))
	fresh := fmt.Sprintf("new-%s@example.org", job.JobID[:8])
	require.NoError(t, claim(1, fresh))
	got, err = s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, fresh, got.Candidates[1].Email)
	assert.Equal(t, models.StatusShortlistedAIInterview, got.Candidates[1].ApplicationStatus)

	err = s.UpdateCandidate(ctx, job.JobID, models.ByID(uuid.NewString()), models.CandidateUpdate{
		Email:          &fresh,
		ExclusiveEmail: true,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentEmailClaims(t *testing.T, s store.Store) {
	ctx := context.Background()
	const n = 6
	job := newJob(t, s, n)
	email := fmt.Sprintf("shared-%s@example.org", job.JobID[:8])

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, c := range job.Candidates {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errs <- s.UpdateCandidate(ctx, job.JobID, models.ByID(id), models.CandidateUpdate{
				Email:          &email,
				ExclusiveEmail: true,
			})
		}(c.ID)
	}
	wg.Wait()
	close(errs)

	won := 0
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, store.ErrDuplicate)
	}
	assert.Equal(t, 1, won)

	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	holders := 0
	for _, c := range got.Candidates {
		if c.Email == email {
			holders++
		}
	}
	assert.Equal(t, 1, holders)
}

func testSaveJobPosting(t *testing.T, s store.Store) {
	ctx := context.Background()
	job := newJob(t, s, 2)

	job.Title = "Staff Engineer"
	job.Candidates[0].Score = ptr(55.0)
	job.Candidates[0].AddFlags(models.FlagEvaluationFailed)
	require.NoError(t, s.SaveJobPosting(ctx, job))

	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", got.Title)
	require.Len(t, got.Candidates, 2)
	require.NotNil(t, got.Candidates[0].Score)
	assert.InDelta(t, 55.0, *got.Candidates[0].Score, 1e-9)
	assert.Equal(t, []string{models.FlagEvaluationFailed}, got.Candidates[0].Flags)

	err = s.SaveJobPosting(ctx, &models.Job{JobID: uuid.NewString(), Title: "ghost"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := "user-" + uuid.NewString()[:8] + "@example.org"
	user := &models.User{Email: email, FullName: "Ada Lovelace", Role: models.RoleCandidate, Jobs: []string{"job-1"}}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NotEmpty(t, user.ID)

	got, err := s.GetUserByEmail(ctx, " "+email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.Equal(t, []string{"job-1"}, got.Jobs)

	err = s.CreateUser(ctx, &models.User{Email: email, FullName: "Copy"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	newEmail := "moved-" + uuid.NewString()[:8] + "@example.org"
	got.Email = newEmail
	got.AddJob("job-2")
	require.NoError(t, s.UpdateUser(ctx, got))

	_, err = s.GetUserByEmail(ctx, email)
	assert.ErrorIs(t, err, store.ErrNotFound)
	moved, err := s.GetUserByEmail(ctx, newEmail)
	require.NoError(t, err)
	assert.Equal(t, user.ID, moved.ID)
	assert.Equal(t, []string{"job-1", "job-2"}, moved.Jobs)

	require.NoError(t, s.DeleteUserByEmail(ctx, newEmail))
	assert.ErrorIs(t, s.DeleteUserByEmail(ctx, newEmail), store.ErrNotFound)
}

func testLedger(t *testing.T, s store.Store) {
	ctx := context.Background()
	taskID := uuid.New()
	params := store.JobRecordParams{
		TaskID:            taskID,
		TaskType:          "resume:evaluate",
		Payload:           []byte(`{"job_id":"j1"}`),
		Queue:             "resume_evaluation",
		Status:            models.JobStatusEnqueued,
		RelatedEntityType: models.EntityCandidate,
		RelatedEntityID:   "cand-1",
	}
	require.NoError(t, s.RecordJobEnqueue(ctx, params))
	// recording the same task twice keeps the first record
	require.NoError(t, s.RecordJobEnqueue(ctx, params))
	require.NoError(t, s.UpdateJobStatus(ctx, taskID, models.JobStatusCompleted))

	err := s.UpdateJobStatus(ctx, uuid.New(), models.JobStatusFailed)
	assert.ErrorIs(t, err, store.ErrNotFound)

	jobs, err := s.ListBackgroundJobs(ctx, 1000, 0)
	require.NoError(t, err)
	var matches []*models.BackgroundJob
	for _, j := range jobs {
		if j.TaskID == taskID {
			matches = append(matches, j)
		}
	}
	require.Len(t, matches, 1)
	rec := matches[0]
	assert.Equal(t, models.JobStatusCompleted, rec.Status)
	assert.Equal(t, "resume_evaluation", rec.Queue)
	require.NotNil(t, rec.RelatedEntityID)
	assert.Equal(t, "cand-1", *rec.RelatedEntityID)
}
