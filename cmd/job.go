package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"aicruit/internal/clix"
	"aicruit/internal/models"
	"aicruit/internal/services"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	jobTitle       string
	jobCompany     string
	jobDescription string
	jobJSON        bool
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage job postings",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job posting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		must, err := clix.ParseList(cmd.Flags(), "must")
		if err != nil {
			return err
		}
		nice, err := clix.ParseList(cmd.Flags(), "nice")
		if err != nil {
			return err
		}
		owners, err := clix.ParseList(cmd.Flags(), "owner")
		if err != nil {
			return err
		}

		job, err := appInstance.SubmissionService.CreateJob(cmd.Context(), services.CreateJobParams{
			Title:       jobTitle,
			Company:     jobCompany,
			Description: jobDescription,
			Owners:      owners,
			Criteria:    models.EvaluationCriteria{NonNegotiable: must, Additional: nice},
		})
		if err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}

		fmt.Printf("Created job %s\n", job.JobID)
		fmt.Printf("Submission link: %s\n", job.JobLink)
		return nil
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List job postings",
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

		jobs, err := appInstance.Store.ListJobPostings(cmd.Context(), pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs found.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Job ID", "Title", "Company", "Status", "Candidates", "Created At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, j := range jobs {
			table.Append([]string{
				j.JobID,
				j.Title,
				j.Company,
				j.Status,
				strconv.Itoa(len(j.Candidates)),
				j.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

var jobShowCmd = &cobra.Command{
	Use:   "show <jobId>",
	Short: "Show a job posting with its candidates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		job, err := appInstance.Store.GetJobPosting(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get job %s: %w", args[0], err)
		}
		if jobJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(job)
		}

		fmt.Printf("Job:      %s (%s)\n", job.Title, job.JobID)
		fmt.Printf("Company:  %s\n", job.Company)
		fmt.Printf("Status:   %s\n", job.Status)
		fmt.Printf("Link:     %s\n", job.JobLink)
		fmt.Printf("Must:     %v\n", job.Criteria.NonNegotiable)
		fmt.Printf("Nice:     %v\n\n", job.Criteria.Additional)
		renderProgress(services.Progress(job))
		return nil
	},
}

func init() {
	jobCreateCmd.Flags().StringVar(&jobTitle, "title", "", "Job title (required)")
	jobCreateCmd.Flags().StringVar(&jobCompany, "company", "", "Company name")
	jobCreateCmd.Flags().StringVar(&jobDescription, "description", "", "Job description")
	jobCreateCmd.Flags().String("must", "", "Comma-separated non-negotiable requirements")
	jobCreateCmd.Flags().StringSlice("nice", nil, "Additional requirement (repeatable or comma-separated)")
	jobCreateCmd.Flags().StringSlice("owner", nil, "Owner email (repeatable)")
	_ = jobCreateCmd.MarkFlagRequired("title")

	jobListCmd.Flags().IntP("limit", "l", 20, "Number of jobs to display")
	jobListCmd.Flags().IntP("offset", "o", 0, "Number of jobs to skip")

	jobShowCmd.Flags().BoolVar(&jobJSON, "json", false, "Print the raw job document")

	jobCmd.AddCommand(jobCreateCmd, jobListCmd, jobShowCmd)
	rootCmd.AddCommand(jobCmd)
}
