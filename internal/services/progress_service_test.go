package services_test

import (
	"context"
	"testing"

	"aicruit/internal/models"
	"aicruit/internal/services"
	"aicruit/internal/store"
	"aicruit/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateState(t *testing.T) {
	score := 7.0
	tests := []struct {
		name string
		c    models.Candidate
		want string
	}{
		{"new", models.Candidate{}, services.StatePending},
		{"queue failure", models.Candidate{Flags: []string{models.FlagEvaluationPending}}, services.StatePending},
		{"requeued", models.Candidate{Flags: []string{models.FlagRequeued}}, services.StateRequeued},
		{"failed", models.Candidate{Flags: []string{models.FlagRequeued, models.FlagEvaluationFailed}}, services.StateFailed},
		{"scored", models.Candidate{Score: &score, Flags: []string{models.FlagRequeued}}, services.StateScored},
		{"scored with partial identity", models.Candidate{Score: &score, Flags: []string{models.FlagEvaluationFailed}}, services.StateScored},
		{"duplicate", models.Candidate{Score: &score, Flags: []string{models.FlagDuplicateSkipped}}, services.StateDuplicateSkipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.CandidateState(&tt.c))
		})
	}
}

func TestProgressService_JobProgress(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	job := &models.Job{Title: "Backend Engineer"}
	require.NoError(t, st.CreateJobPosting(ctx, job))

	score := 8.0
	for _, c := range []*models.Candidate{
		{Email: "a@corp.io", Score: &score},
		{Email: "b@corp.io", Flags: []string{models.FlagRequeued}},
		{Email: "c@corp.io", Flags: []string{models.FlagEvaluationFailed}},
		{Email: "d@corp.io"},
	} {
		_, err := st.AppendCandidate(ctx, job.JobID, c)
		require.NoError(t, err)
	}

	svc := services.NewProgressService(st)
	p, err := svc.JobProgress(ctx, job.JobID)
	require.NoError(t, err)

	assert.Equal(t, services.ProgressCounts{Total: 4, Scored: 1, Requeued: 1, Failed: 1, Pending: 1}, p.Counts)
	require.Len(t, p.Candidates, 4)
	assert.Equal(t, "a@corp.io", p.Candidates[0].Email)
	assert.Equal(t, services.StateScored, p.Candidates[0].State)
	assert.Equal(t, models.JobPostingOngoing, p.Status)

	_, err = svc.JobProgress(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
