package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"aicruit/internal/clix"
	"aicruit/internal/tasks"

	"github.com/hibiken/asynq"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	queueName    string
	failedLimit  int
	listRetrying bool
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the evaluation queue",
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts of the evaluation queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		info, err := appInstance.Inspector.GetQueueInfo(queueName)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			fmt.Printf("Queue %q has not received any task yet.\n", queueName)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read queue %s: %w", queueName, err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Queue", "Pending", "Active", "Scheduled", "Retry", "Archived", "Processed Today", "Failed Today", "Paused"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.Append([]string{
			info.Queue,
			strconv.Itoa(info.Pending),
			strconv.Itoa(info.Active),
			strconv.Itoa(info.Scheduled),
			strconv.Itoa(info.Retry),
			strconv.Itoa(info.Archived),
			strconv.Itoa(info.Processed),
			strconv.Itoa(info.Failed),
			strconv.FormatBool(info.Paused),
		})
		table.Render()
		return nil
	},
}

var queueFailedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List archived (or, with --retry, retrying) evaluation tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		var list []*asynq.TaskInfo
		if listRetrying {
			list, err = appInstance.Inspector.ListRetryTasks(queueName, asynq.PageSize(failedLimit))
		} else {
			list, err = appInstance.Inspector.ListArchivedTasks(queueName, asynq.PageSize(failedLimit))
		}
		if errors.Is(err, asynq.ErrQueueNotFound) {
			list, err = nil, nil
		}
		if err != nil {
			return fmt.Errorf("failed to list tasks in %s: %w", queueName, err)
		}
		if len(list) == 0 {
			fmt.Println("No failed tasks.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Task ID", "Job", "Candidate", "Requeues", "Retried", "Last Error", "Failed At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetColWidth(60)
		for _, t := range list {
			job, cand, requeues := "?", "?", "?"
			if p, err := tasks.ParseEvaluationPayload(t.Payload); err == nil {
				job, cand, requeues = p.JobID, p.Ref().String(), strconv.Itoa(p.RequeueCount)
			}
			failedAt := ""
			if !t.LastFailedAt.IsZero() {
				failedAt = t.LastFailedAt.Format("2006-01-02 15:04:05")
			}
			table.Append([]string{
				t.ID,
				job,
				cand,
				requeues,
				fmt.Sprintf("%d/%d", t.Retried, t.MaxRetry),
				t.LastErr,
				failedAt,
			})
		}
		table.Render()
		return nil
	},
}

var queueHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded background jobs from the job ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		pagination, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return err
		}

		jobs, err := appInstance.Store.ListBackgroundJobs(cmd.Context(), pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("error listing background jobs: %w", err)
		}
		if len(jobs) == 0 {
			fmt.Println("No background jobs recorded.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Task ID", "Type", "Queue", "Status", "Candidate", "Updated At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, j := range jobs {
			related := ""
			if j.RelatedEntityID != nil {
				related = *j.RelatedEntityID
			}
			table.Append([]string{
				strconv.FormatInt(j.ID, 10),
				j.TaskID.String(),
				j.TaskType,
				j.Queue,
				statusColor(j.Status),
				related,
				j.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	queueCmd.PersistentFlags().StringVar(&queueName, "queue", tasks.QueueResumeEvaluation, "Queue to inspect")
	queueFailedCmd.Flags().IntVarP(&failedLimit, "limit", "n", 20, "Maximum number of tasks to show")
	queueFailedCmd.Flags().BoolVar(&listRetrying, "retry", false, "List tasks waiting for a retry instead of archived ones")
	queueHistoryCmd.Flags().IntP("limit", "l", 20, "Number of entries to display")
	queueHistoryCmd.Flags().IntP("offset", "o", 0, "Number of entries to skip")

	queueCmd.AddCommand(queueStatsCmd, queueFailedCmd, queueHistoryCmd)
	rootCmd.AddCommand(queueCmd)
}
