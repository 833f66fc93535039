package main

import (
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/plaid"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Create an import job from the linked Plaid item",
		Long: `Pull current balances and recent incoming payments from Plaid into a new
import job. Balances are summed into one account balance record; each
incoming payment becomes a revenue record. The job then awaits review
like any other import.`,
		RunE: runSync,
	}
	cmd.Flags().Int("days", 30, "how many days of incoming payments to pull")
	cmd.Flags().Bool("approve", false, "approve every extracted record right away")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	days, _ := cmd.Flags().GetInt("days")
	approve, _ := cmd.Flags().GetBool("approve")
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	client, err := plaid.NewClient(plaid.Config{
		ClientID:    a.settings.Plaid.ClientID,
		Secret:      a.settings.Plaid.Secret,
		Environment: a.settings.Plaid.Environment,
		AccessToken: a.settings.Plaid.AccessToken,
	})
	if err != nil {
		return common.NewUserError("Plaid is not configured (set plaid.client_id, plaid.secret and plaid.access_token)", err)
	}

	extractor := plaid.NewExtractor(client, daysToDuration(days))
	result, err := a.engine.Ingest(ctx, a.ingestRequest(extractor, extract.Input{}, model.SourceAPISync))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printIngestResult(out, result); err != nil {
		return err
	}
	if approve && result.Job.Status == model.StatusPendingReview {
		return approveAll(ctx, a, out, result.Job.ID, result.Preview, false)
	}
	return nil
}
