package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/cli"
	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/reconcile"
	"github.com/spf13/cobra"
)

func confirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <job-id>",
		Short: "Apply review decisions to a pending import job",
		Long: `Approve or reject the records of a pending import job in one step.

Either approve or reject every preview record, or pass a JSON file with
an "actions" array in the same shape the HTTP API accepts. A duplicate
conflict or invalid record aborts the whole confirmation; nothing is
written and the job stays pending.`,
		Args: cobra.ExactArgs(1),
		RunE: runConfirm,
	}

	cmd.Flags().Bool("approve-all", false, "approve every preview record")
	cmd.Flags().Bool("reject-all", false, "reject every preview record")
	cmd.Flags().String("actions", "", "JSON file with review actions (- for standard input)")
	cmd.Flags().Bool("overwrite", false, "with --approve-all, replace existing ledger entries")
	cmd.MarkFlagsMutuallyExclusive("approve-all", "reject-all", "actions")
	cmd.MarkFlagsOneRequired("approve-all", "reject-all", "actions")

	return cmd
}

func runConfirm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobID := args[0]
	approveAll, _ := cmd.Flags().GetBool("approve-all")
	rejectAll, _ := cmd.Flags().GetBool("reject-all")
	actionsPath, _ := cmd.Flags().GetString("actions")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var actions []model.ConfirmationAction
	switch {
	case actionsPath != "":
		if actions, err = readActions(cmd.InOrStdin(), actionsPath); err != nil {
			return err
		}
	default:
		preview, err := a.engine.LoadPreview(ctx, jobID)
		if err != nil {
			return err
		}
		op := model.OperationApprove
		if rejectAll {
			op = model.OperationReject
		}
		actions = engine.BulkActions(preview, op, overwrite && approveAll)
	}

	result, err := a.engine.ApplyConfirmation(ctx, jobID, actions)
	if err != nil {
		return describeConfirmError(err)
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Job %s confirmed: %d approved, %d rejected",
		jobID, result.ApprovedCount, result.RejectedCount))); err != nil {
		return err
	}
	if len(result.UpdatedRecords) > 0 {
		_, err = fmt.Fprintln(out, previewTable(result.UpdatedRecords))
	}
	return err
}

func readActions(stdin io.Reader, path string) ([]model.ConfirmationAction, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read actions: %w", err)
	}

	var body struct {
		Actions []model.ConfirmationAction `json:"actions"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to parse actions: %w", err)
	}
	if len(body.Actions) == 0 {
		return nil, fmt.Errorf("actions file contains no actions")
	}
	return body.Actions, nil
}

// describeConfirmError spells out the conflicting key of a duplicate record.
func describeConfirmError(err error) error {
	var dup *reconcile.DuplicateRecordError
	if !errors.As(err, &dup) {
		return err
	}

	keys := make([]string, 0, len(dup.Conflict))
	for k := range dup.Conflict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := dup.Conflict[k]; v != nil && v != "" {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return fmt.Errorf("%w\n  existing entry: %s\n  rerun with --overwrite to replace it", err, strings.Join(parts, ", "))
}

// previewTable renders candidate records one per row.
func previewTable(records []model.CandidateRecord) string {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			string(r.RecordType),
			firstValue(r.Payload, "occurred_on", "reported_at", "month", "cash_in_date", "cash_out_date", "date"),
			firstValue(r.Payload, "amount", "expected_amount", "total_balance", "cash_balance"),
			firstValue(r.Payload, "category_path", "category", "description"),
			firstValue(r.Payload, "company_id"),
		})
	}
	return cli.RenderTable([]string{"#", "Type", "Date", "Amount", "Category", "Company"}, rows)
}

func firstValue(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		if parts, ok := v.([]any); ok {
			segments := make([]string, len(parts))
			for i, p := range parts {
				segments[i] = fmt.Sprint(p)
			}
			return strings.Join(segments, "/")
		}
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return ""
}
