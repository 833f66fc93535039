package main

import (
	"encoding/json"
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/cli"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect import jobs",
	}
	cmd.AddCommand(jobsListCmd())
	cmd.AddCommand(jobsShowCmd())
	cmd.AddCommand(jobsLogsCmd())
	return cmd
}

func jobsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List import jobs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			jobs, err := a.engine.ListJobs(cmd.Context(), service.ImportJobFilter{Status: model.ImportStatus(status), Limit: limit})
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				cmd.Println(cli.FormatInfo("No import jobs found"))
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, j := range jobs {
				confidence := ""
				if j.ConfidenceScore != nil {
					confidence = fmt.Sprintf("%.0f%%", *j.ConfidenceScore*100)
				}
				rows = append(rows, []string{
					j.ID,
					j.StartedAt.Local().Format("2006-01-02 15:04"),
					string(j.SourceType),
					statusLabel(j.Status),
					j.LLMModel,
					confidence,
				})
			}
			cmd.Println(cli.RenderTable([]string{"Job", "Started", "Source", "Status", "Extractor", "Confidence"}, rows))
			return nil
		},
	}
	cmd.Flags().String("status", "", "only jobs with this status (pending_review, approved, rejected, failed)")
	cmd.Flags().Int("limit", 20, "maximum number of jobs")
	return cmd
}

func jobsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job with its attachments and preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			detail, err := a.engine.GetJobDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(detail.Preview)
			}

			job := detail.Job
			summary := fmt.Sprintf("Status: %s\nSource: %s\nStarted: %s",
				statusLabel(job.Status), job.SourceType, job.StartedAt.Local().Format("2006-01-02 15:04:05"))
			if job.ErrorLog != "" {
				summary += "\nError: " + truncate(job.ErrorLog, 500)
			}
			for _, f := range detail.Attachments {
				summary += fmt.Sprintf("\nAttachment: %s (%s)", f.StoragePath, f.FileType)
			}
			cmd.Println(cli.RenderBox("Job "+job.ID, summary))
			if len(detail.Preview) > 0 {
				cmd.Println(previewTable(detail.Preview))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the preview records as JSON")
	return cmd
}

func jobsLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs <job-id>",
		Short: "Show the confirmation audit trail of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			logs, err := a.engine.ListConfirmationLogs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(logs) == 0 {
				cmd.Println(cli.FormatInfo("No decisions recorded for this job"))
				return nil
			}

			rows := make([][]string, 0, len(logs))
			for _, l := range logs {
				recordID := "-"
				if l.RecordID != nil {
					recordID = *l.RecordID
				}
				rows = append(rows, []string{
					l.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					string(l.Action),
					string(l.RecordType),
					recordID,
					l.ActorID,
					l.Comment,
				})
			}
			cmd.Println(cli.RenderTable([]string{"Time", "Action", "Type", "Record", "Actor", "Comment"}, rows))
			return nil
		},
	}
}

func statusLabel(status model.ImportStatus) string {
	switch status {
	case model.StatusApproved:
		return cli.SuccessStyle.Render(string(status))
	case model.StatusFailed:
		return cli.ErrorStyle.Render(string(status))
	case model.StatusRejected:
		return cli.SubtleStyle.Render(string(status))
	default:
		return cli.WarningStyle.Render(string(status))
	}
}
