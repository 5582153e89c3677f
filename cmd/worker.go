package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aicruit/internal/app"
	"aicruit/internal/worker"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var workerConcurrency int

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the resume evaluation worker",
	Long:  `Starts the Asynq worker process that consumes the resume_evaluation queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get application context: %w", err)
		}

		if err := runWorker(appInstance); err != nil {
			log.WithError(err).Error("Worker exited with error")
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 0, "Override worker.concurrency")
}

// runWorker initializes and runs the Asynq worker server.
func runWorker(appInstance *app.App) error {
	cfg := appInstance.Config
	concurrency := cfg.Worker.Concurrency
	if workerConcurrency > 0 {
		concurrency = workerConcurrency
	}

	srv := asynq.NewServer(
		appInstance.RedisOpt(),
		asynq.Config{
			Concurrency:    concurrency,
			Queues:         cfg.Worker.Queues,
			RetryDelayFunc: worker.RetryDelay(cfg.Evaluation.QueueRetryBaseDelay),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID, _ := asynq.GetTaskID(ctx)
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.WithError(err).WithFields(log.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retried":   retried,
					"max_retry": maxRetry,
					"fatal":     worker.IsFatal(err),
				}).Error("Asynq task failed")
			}),
			Logger: log.StandardLogger(),
		},
	)

	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, appInstance.Processor, appInstance.Store)

	log.WithFields(log.Fields{"concurrency": concurrency, "queues": cfg.Worker.Queues}).Info("Starting Asynq worker server")
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start Asynq server: %w", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	log.Info("Shutdown signal received. Initiating graceful shutdown...")
	srv.Stop()
	srv.Shutdown()

	log.Info("Worker shutdown complete.")
	return nil
}
