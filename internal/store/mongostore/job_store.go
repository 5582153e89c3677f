package mongostore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ledgerRecord is the stored form of a background job. The payload is kept as
// a string so it survives the round trip byte for byte.
type ledgerRecord struct {
	TaskID            string    `bson:"task_id"`
	TaskType          string    `bson:"task_type"`
	Payload           string    `bson:"payload"`
	Queue             string    `bson:"queue"`
	Status            string    `bson:"status"`
	RelatedEntityType *string   `bson:"related_entity_type,omitempty"`
	RelatedEntityID   *string   `bson:"related_entity_id,omitempty"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func (s *Store) RecordJobEnqueue(ctx context.Context, params store.JobRecordParams) error {
	now := time.Now().UTC()
	rec := ledgerRecord{
		TaskID:    params.TaskID.String(),
		TaskType:  params.TaskType,
		Payload:   string(params.Payload),
		Queue:     params.Queue,
		Status:    params.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if params.RelatedEntityType != "" {
		rec.RelatedEntityType = &params.RelatedEntityType
	}
	if params.RelatedEntityID != "" {
		rec.RelatedEntityID = &params.RelatedEntityID
	}
	// upsert with $setOnInsert keeps a second record of the same task a no-op
	_, err := s.ledger().UpdateOne(ctx,
		bson.M{"task_id": rec.TaskID},
		bson.M{"$setOnInsert": rec},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to record job enqueue event for task %s: %w", params.TaskID, err)
	}
	return nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, taskID uuid.UUID, status string) error {
	res, err := s.ledger().UpdateOne(ctx,
		bson.M{"task_id": taskID.String()},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update job status for task %s: %w", taskID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("task %s not found to update status: %w", taskID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListBackgroundJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)).SetSkip(int64(offset))
	cur, err := s.ledger().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query background jobs: %w", err)
	}
	var recs []ledgerRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode background jobs: %w", err)
	}
	jobs := make([]*models.BackgroundJob, 0, len(recs))
	for _, r := range recs {
		id, _ := uuid.Parse(r.TaskID)
		jobs = append(jobs, &models.BackgroundJob{
			TaskID:            id,
			TaskType:          r.TaskType,
			Payload:           json.RawMessage(r.Payload),
			Queue:             r.Queue,
			Status:            r.Status,
			RelatedEntityType: r.RelatedEntityType,
			RelatedEntityID:   r.RelatedEntityID,
			CreatedAt:         r.CreatedAt,
			UpdatedAt:         r.UpdatedAt,
		})
	}
	return jobs, nil
}
