package store

import (
	"context"
	"fmt"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// Ensure AsynqJobClient implements JobClient
var _ JobClient = (*AsynqJobClient)(nil)

// AsynqJobClient enqueues tasks and records them to the JobStore.
type AsynqJobClient struct {
	client   *asynq.Client
	jobStore JobStore
	opts     EnqueueOptions
}

// EnqueueOptions are the queue-level delivery settings for evaluation tasks.
type EnqueueOptions struct {
	MaxRetry int           // queue-level retries after the first attempt
	Timeout  time.Duration // per-attempt processing deadline
}

func NewAsynqJobClient(redisOpt asynq.RedisClientOpt, js JobStore, opts EnqueueOptions) (*AsynqJobClient, error) {
	if js == nil {
		return nil, fmt.Errorf("JobStore cannot be nil for AsynqJobClient")
	}
	if redisOpt.Addr == "" {
		return nil, fmt.Errorf("redis address is required for AsynqJobClient")
	}
	return &AsynqJobClient{client: asynq.NewClient(redisOpt), jobStore: js, opts: opts}, nil
}

func (jc *AsynqJobClient) Close() error {
	return jc.client.Close()
}

// Enqueue enqueues a task and records the event to the JobStore.
func (jc *AsynqJobClient) Enqueue(ctx context.Context, task *asynq.Task, relatedEntityType, relatedEntityID string, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if jc.client == nil {
		return nil, fmt.Errorf("AsynqJobClient internal client is not initialized")
	}
	info, err := jc.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		log.WithError(err).WithField("task_type", task.Type()).Error("Failed to enqueue task")
		return nil, err
	}
	log.WithFields(log.Fields{"task_type": task.Type(), "task_id": info.ID, "queue": info.Queue}).Debug("Enqueued task")

	// The task is already enqueued at this point; ledger failures are logged only.
	taskUUID, err := uuid.Parse(info.ID)
	if err != nil {
		log.Errorf("Failed to parse Asynq Task ID '%s' to UUID: %v. Job record might be incomplete.", info.ID, err)
	}
	recordParams := JobRecordParams{
		TaskID:            taskUUID,
		TaskType:          task.Type(),
		Payload:           task.Payload(),
		Queue:             info.Queue,
		Status:            models.JobStatusEnqueued,
		RelatedEntityType: relatedEntityType,
		RelatedEntityID:   relatedEntityID,
	}
	if err := jc.jobStore.RecordJobEnqueue(ctx, recordParams); err != nil {
		log.Errorf("Failed to record job enqueue event for Task ID %s: %v", info.ID, err)
	}
	return info, nil
}

// EnqueueResumeEvaluation enqueues a new evaluation task. Every call produces a
// fresh task, so a requeue carries its own delay and requeue counter.
func (jc *AsynqJobClient) EnqueueResumeEvaluation(ctx context.Context, payload tasks.EvaluationPayload, delay time.Duration) (string, error) {
	task, err := tasks.NewResumeEvaluationTask(payload)
	if err != nil {
		return "", err
	}
	opts := []asynq.Option{
		asynq.Queue(tasks.QueueResumeEvaluation),
		asynq.MaxRetry(jc.opts.MaxRetry),
	}
	if jc.opts.Timeout > 0 {
		opts = append(opts, asynq.Timeout(jc.opts.Timeout))
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	relatedID := payload.CandidateID
	if relatedID == "" {
		relatedID = payload.Ref().String()
	}
	info, err := jc.Enqueue(ctx, task, models.EntityCandidate, relatedID, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue resume evaluation for job %s candidate %s: %w", payload.JobID, payload.Ref(), err)
	}
	return info.ID, nil
}
