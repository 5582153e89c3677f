package cmd

import (
	"fmt"

	"aicruit/internal/fileingest"
	"aicruit/internal/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var submitDirRole string

// submitDirCmd submits every resume found under a directory to one job.
var submitDirCmd = &cobra.Command{
	Use:   "submit-dir <jobId> <directory>",
	Short: "Recursively submit every resume document in a directory",
	Long: `Finds PDF, DOCX, HTML and text resumes under the directory and submits each
one to the job with a placeholder email. The real address is filled in from the
resume during evaluation.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, dir := args[0], args[1]
		ctx := cmd.Context()
		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}
		files, err := fileingest.DiscoverResumes(ctx, dir)
		if err != nil {
			return fmt.Errorf("failed to discover resumes: %w", err)
		}
		if len(files) == 0 {
			fmt.Printf("No resumes found under %s\n", dir)
			return nil
		}
		fmt.Printf("Discovered %d resumes under %s\n", len(files), dir)

		var successCount, errorCount int
		defer func() {
			fmt.Printf("\nSubmitted %d files: %d queued, %d failed\n",
				len(files), successCount, errorCount)
		}()

		for _, f := range files {
			fmt.Printf("\nSubmitting: %s\n", f.Path)
			res, err := appInstance.SubmissionService.SubmitCandidate(ctx, services.SubmitCandidateParams{
				JobID:         jobID,
				CVLink:        f.Path,
				SubmitterRole: submitDirRole,
			})
			if err != nil {
				errorCount++
				fmt.Printf("  - %s: %v\n", color.RedString("ERROR"), err)
				continue
			}
			fmt.Printf("  - %s candidate %s task %s\n", color.GreenString("Queued"), res.Candidate.ID, res.TaskID)
			successCount++
		}
		return nil
	},
}

func init() {
	submitDirCmd.Flags().StringVar(&submitDirRole, "role", "", "Role of the submitting user, e.g. Recruiter")
	rootCmd.AddCommand(submitDirCmd)
}
