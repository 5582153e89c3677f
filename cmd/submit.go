package cmd

import (
	"fmt"

	"aicruit/internal/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	submitEmail string
	submitRole  string
	enqueueRole string
)

var submitCmd = &cobra.Command{
	Use:   "submit <jobId> <cvLink>",
	Short: "Submit a candidate resume to a job and queue its evaluation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		res, err := appInstance.SubmissionService.SubmitCandidate(cmd.Context(), services.SubmitCandidateParams{
			JobID:         args[0],
			Email:         submitEmail,
			CVLink:        args[1],
			SubmitterRole: submitRole,
		})
		if res != nil {
			fmt.Printf("Candidate %s (%s) added at position %d\n", res.Candidate.ID, res.Candidate.Email, res.Index)
		}
		if err != nil {
			if res != nil {
				fmt.Printf("  - %s: evaluation not queued, candidate marked pending\n", color.RedString("ERROR"))
			}
			return fmt.Errorf("failed to submit candidate: %w", err)
		}
		fmt.Printf("Evaluation queued: %s\n", color.GreenString(res.TaskID))
		return nil
	},
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <jobId> <candidateId>",
	Short: "Queue a fresh evaluation for an existing candidate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		taskID, err := appInstance.SubmissionService.Reevaluate(cmd.Context(), args[0], args[1], enqueueRole)
		if err != nil {
			return fmt.Errorf("failed to queue evaluation: %w", err)
		}
		fmt.Printf("Evaluation queued: %s\n", color.GreenString(taskID))
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitEmail, "email", "", "Candidate email (a placeholder is generated when empty)")
	submitCmd.Flags().StringVar(&submitRole, "role", "", "Role of the submitting user, e.g. Recruiter")
	enqueueCmd.Flags().StringVar(&enqueueRole, "role", "", "Role of the requesting user, e.g. Recruiter")

	rootCmd.AddCommand(submitCmd, enqueueCmd)
}
