package memory_test

import (
	"testing"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func recordParams(t *testing.T, id string) store.JobRecordParams {
	t.Helper()
	taskID, err := uuid.Parse(id)
	require.NoError(t, err)
	return store.JobRecordParams{
		TaskID:   taskID,
		TaskType: "resume:evaluate",
		Queue:    "resume_evaluation",
		Status:   models.JobStatusEnqueued,
	}
}
