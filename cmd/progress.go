package cmd

import (
	"fmt"
	"os"
	"strconv"

	"aicruit/internal/services"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress <jobId>",
	Short: "Show the evaluation progress of a job's candidates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p, err := appInstance.ProgressService.JobProgress(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to read progress: %w", err)
		}
		fmt.Printf("%s (%s)\n", p.Title, p.JobID)
		renderProgress(p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
}

func renderProgress(p *services.JobProgress) {
	if len(p.Candidates) == 0 {
		fmt.Println("No candidates yet.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Candidate", "Email", "Score", "State", "Requeues", "Status"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, c := range p.Candidates {
		score := "-"
		if c.Score != nil {
			score = strconv.FormatFloat(*c.Score, 'f', -1, 64)
		}
		table.Append([]string{
			c.ID,
			c.Email,
			score,
			statusColor(c.State),
			strconv.Itoa(c.EvalRetryCount),
			c.ApplicationStatus,
		})
	}
	table.Render()

	n := p.Counts
	fmt.Printf("\n%d candidates: %d scored, %d requeued, %d failed, %d duplicate, %d pending\n",
		n.Total, n.Scored, n.Requeued, n.Failed, n.DuplicateSkipped, n.Pending)
}

// statusColor colors a state or check result for terminal output.
func statusColor(s string) string {
	switch s {
	case services.StateScored, "OK", "completed":
		return color.GreenString(s)
	case services.StateRequeued, services.StatePending, "enqueued", "running", "scheduled", "retry":
		return color.YellowString(s)
	case services.StateFailed, services.StateDuplicateSkipped, "FAIL", "archived":
		return color.RedString(s)
	default:
		return s
	}
}
