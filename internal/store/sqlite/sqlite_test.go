package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"aicruit/internal/models"
	"aicruit/internal/store/sqlite"
	"aicruit/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, dsn string) *sqlite.Store {
	t.Helper()
	ctx := context.Background()
	s, err := sqlite.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, newStore(t, ":memory:"))
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := sqlite.New(context.Background(), "")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newStore(t, ":memory:")
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestFileDatabaseSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "aicruit.db")

	s := newStore(t, path)
	job := &models.Job{Title: "Data Engineer"}
	require.NoError(t, s.CreateJobPosting(ctx, job))
	_, err := s.AppendCandidate(ctx, job.JobID, &models.Candidate{Email: "a@example.org"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := newStore(t, path)
	got, err := reopened.GetJobPosting(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", got.Title)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "a@example.org", got.Candidates[0].Email)
}
