package primary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// --- Job Store Implementation ---

// RecordJobEnqueue inserts a record into the background_jobs table.
func (s *StoreImpl) RecordJobEnqueue(ctx context.Context, params store.JobRecordParams) error {
	query := `
		INSERT INTO background_jobs (task_id, task_type, payload, queue, status, related_entity_type, related_entity_id, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (task_id) DO NOTHING -- the same task may be recorded twice after a client retry
		RETURNING id`

	now := time.Now()
	var insertedID int64

	payloadJSON := "{}"
	if len(params.Payload) > 0 && json.Valid(params.Payload) {
		payloadJSON = string(params.Payload)
	}

	err := s.db.QueryRow(ctx, query,
		params.TaskID,
		params.TaskType,
		payloadJSON,
		params.Queue,
		params.Status,
		nullableString(params.RelatedEntityType),
		nullableString(params.RelatedEntityID),
		now,
		now,
	).Scan(&insertedID)

	if err != nil {
		// ON CONFLICT DO NOTHING returns no row; the task was already recorded.
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debugf("Task %s already recorded, skipping insertion.", params.TaskID)
			return nil
		}
		return fmt.Errorf("failed to record job enqueue event for task %s: %w", params.TaskID, err)
	}

	log.Debugf("Recorded job enqueue event for task %s with DB ID %d", params.TaskID, insertedID)
	return nil
}

// UpdateJobStatus updates the status of a job given its Asynq Task UUID.
func (s *StoreImpl) UpdateJobStatus(ctx context.Context, taskID uuid.UUID, status string) error {
	query := `UPDATE background_jobs SET status = $1, updated_at = $2 WHERE task_id = $3`
	cmdTag, err := s.db.Exec(ctx, query, status, time.Now(), taskID)
	if err != nil {
		return fmt.Errorf("failed to update job status for task %s: %w", taskID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("task %s not found to update status: %w", taskID, store.ErrNotFound)
	}
	return nil
}

// ListBackgroundJobs returns recorded jobs, newest first.
func (s *StoreImpl) ListBackgroundJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error) {
	query := `
		SELECT id, task_id, task_type, payload, queue, status, related_entity_type, related_entity_id, created_at, updated_at
		FROM background_jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query background jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.BackgroundJob
	for rows.Next() {
		job := &models.BackgroundJob{}
		var payload []byte
		err := rows.Scan(
			&job.ID, &job.TaskID, &job.TaskType, &payload, &job.Queue, &job.Status,
			&job.RelatedEntityType, &job.RelatedEntityID, &job.CreatedAt, &job.UpdatedAt,
		)
		if err != nil {
			return jobs, fmt.Errorf("failed to scan background job row: %w", err)
		}
		job.Payload = json.RawMessage(payload)
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return jobs, fmt.Errorf("error iterating background job rows: %w", err)
	}
	return jobs, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure StoreImpl satisfies the JobStore interface
var _ store.JobStore = (*StoreImpl)(nil)
