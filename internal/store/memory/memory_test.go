package memory_test

import (
	"context"
	"testing"

	"aicruit/internal/models"
	"aicruit/internal/store/memory"
	"aicruit/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, memory.New())
}

func TestGetJobPostingReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	job := &models.Job{Title: "SRE"}
	require.NoError(t, s.CreateJobPosting(ctx, job))
	_, err := s.AppendCandidate(ctx, job.JobID, &models.Candidate{Email: "a@example.org"})
	require.NoError(t, err)

	got, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	got.Candidates[0].Email = "changed@example.org"
	got.Candidates[0].AddFlags(models.FlagRequeued)

	again, err := s.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.org", again.Candidates[0].Email)
	assert.Empty(t, again.Candidates[0].Flags)
}

func TestListBackgroundJobsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	for _, id := range []string{"11111111-1111-1111-1111-111111111111", "22222222-2222-2222-2222-222222222222"} {
		require.NoError(t, s.RecordJobEnqueue(ctx, recordParams(t, id)))
	}

	jobs, err := s.ListBackgroundJobs(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", jobs[0].TaskID.String())

	jobs, err = s.ListBackgroundJobs(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", jobs[0].TaskID.String())

	jobs, err = s.ListBackgroundJobs(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
