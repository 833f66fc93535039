package main

import (
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/cli"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <job-id>",
		Short: "Review a pending import job record by record",
		Long: `Walk through every preview record of a pending job and approve, edit,
overwrite or reject it. Decisions are submitted together at the end, so
quitting early leaves the job untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: runReview,
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	a, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	job, err := a.engine.GetJob(cmd.Context(), jobID)
	if err != nil {
		return err
	}
	if job.Status != model.StatusPendingReview {
		return fmt.Errorf("job %s is %s and cannot be reviewed", jobID, job.Status)
	}
	preview, err := a.engine.LoadPreview(cmd.Context(), jobID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Reviewing job %s (%d records)", jobID, len(preview)))); err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(out)
	ctx := interrupts.HandleInterrupts(cmd.Context(), jobID)
	defer interrupts.Stop()

	reviewer := cli.NewReviewer(cmd.InOrStdin(), out)
	actions, err := reviewer.Review(ctx, preview)
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return err
	}
	interrupts.Stop()
	reviewer.ShowCompletion()

	result, err := a.engine.ApplyConfirmation(cmd.Context(), jobID, actions)
	if err != nil {
		return describeConfirmError(err)
	}
	_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Job %s is %s: %d approved, %d rejected",
		jobID, statusAfter(result), result.ApprovedCount, result.RejectedCount)))
	return err
}

func statusAfter(result *model.ConfirmationResult) model.ImportStatus {
	if result.ApprovedCount > 0 {
		return model.StatusApproved
	}
	return model.StatusRejected
}
