package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
)

func (s *Store) RecordJobEnqueue(ctx context.Context, params store.JobRecordParams) error {
	payload := "{}"
	if len(params.Payload) > 0 && json.Valid(params.Payload) {
		payload = string(params.Payload)
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO background_jobs (task_id, task_type, payload, queue, status, related_entity_type, related_entity_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (task_id) DO NOTHING`,
		params.TaskID.String(), params.TaskType, payload, params.Queue, params.Status,
		nullString(params.RelatedEntityType), nullString(params.RelatedEntityID), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to record job enqueue event for task %s: %w", params.TaskID, err)
	}
	return nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, taskID uuid.UUID, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE background_jobs SET status = ?, updated_at = ? WHERE task_id = ?`,
		status, time.Now().UTC(), taskID.String())
	if err != nil {
		return fmt.Errorf("failed to update job status for task %s: %w", taskID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s not found to update status: %w", taskID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListBackgroundJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, task_type, payload, queue, status, related_entity_type, related_entity_id, created_at, updated_at
		FROM background_jobs ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query background jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.BackgroundJob
	for rows.Next() {
		job := &models.BackgroundJob{}
		var taskID, payload string
		var relType, relID sql.NullString
		if err := rows.Scan(&job.ID, &taskID, &job.TaskType, &payload, &job.Queue, &job.Status,
			&relType, &relID, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return jobs, fmt.Errorf("failed to scan background job row: %w", err)
		}
		job.TaskID, _ = uuid.Parse(taskID)
		job.Payload = json.RawMessage(payload)
		if relType.Valid {
			job.RelatedEntityType = &relType.String
		}
		if relID.Valid {
			job.RelatedEntityID = &relID.String
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
