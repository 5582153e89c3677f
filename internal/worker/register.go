package worker

import (
	"context"
	"fmt"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"
	"aicruit/internal/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// RegisterHandlers registers the evaluation handler on mux.
func RegisterHandlers(mux *asynq.ServeMux, p *Processor, ledger store.JobStore) {
	log.Infof("Registering %s handler", tasks.TypeResumeEvaluation)
	mux.HandleFunc(tasks.TypeResumeEvaluation, NewEvaluationHandler(p, ledger))
}

// NewEvaluationHandler adapts a Processor to asynq. Fatal errors are wrapped
// with asynq.SkipRetry so the task is archived at once; retryable errors use
// the queue's retry budget. ledger may be nil.
func NewEvaluationHandler(p *Processor, ledger store.JobStore) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		taskID, _ := asynq.GetTaskID(ctx)
		logger := log.WithFields(log.Fields{"task_id": taskID, "task_type": t.Type()})

		payload, err := tasks.ParseEvaluationPayload(t.Payload())
		if err != nil {
			logger.WithError(err).Error("Dropping task with invalid payload")
			setLedgerStatus(ctx, ledger, taskID, models.JobStatusFailed)
			return fmt.Errorf("%v: %w", fatal("parse payload", err), asynq.SkipRetry)
		}

		setLedgerStatus(ctx, ledger, taskID, models.JobStatusRunning)
		outcome, err := p.Process(ctx, payload)
		if err == nil {
			status := models.JobStatusCompleted
			if outcome == OutcomeRequeued {
				status = models.JobStatusRequeued
			}
			setLedgerStatus(ctx, ledger, taskID, status)
			return nil
		}

		if IsFatal(err) {
			setLedgerStatus(ctx, ledger, taskID, models.JobStatusFailed)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if isFinalAttempt(ctx) {
			setLedgerStatus(ctx, ledger, taskID, models.JobStatusFailed)
		}
		return err
	}
}

func isFinalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

// setLedgerStatus records a task's status in background_jobs. The ledger is
// informational, so failures are only logged.
func setLedgerStatus(ctx context.Context, ledger store.JobStore, taskID, status string) {
	if ledger == nil || taskID == "" {
		return
	}
	id, err := uuid.Parse(taskID)
	if err != nil {
		log.WithField("task_id", taskID).Debug("Task id is not a UUID, ledger not updated")
		return
	}
	if err := ledger.UpdateJobStatus(ctx, id, status); err != nil {
		log.WithError(err).WithFields(log.Fields{"task_id": taskID, "status": status}).Warn("Failed to update job ledger")
	}
}

// RetryDelay returns an asynq RetryDelayFunc computing base * 2^n.
func RetryDelay(base time.Duration) asynq.RetryDelayFunc {
	return func(n int, err error, t *asynq.Task) time.Duration {
		if base <= 0 {
			return asynq.DefaultRetryDelayFunc(n, err, t)
		}
		if n > 16 {
			n = 16
		}
		return base << n
	}
}
