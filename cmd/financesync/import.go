package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cchome2024/FinanceSync/internal/cli"
	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Create import jobs from statements, spreadsheets or JSON",
		Long: `Extract candidate records into new import jobs awaiting review.

Each file becomes its own job. OFX/QFX statements, Excel workbooks, CSV
files and JSON record lists are supported. Use --text (or "-" to read
standard input) for JSON produced elsewhere, for example by an LLM.

Examples:
  financesync import ~/Downloads/*.qfx --company C1
  financesync import march.xlsx
  financesync import --text '[{"recordType":"revenue","payload":{...}}]'
  cat records.json | financesync import -`,
		RunE: runImport,
	}

	cmd.Flags().String("company", "", "default company for records without company_id")
	cmd.Flags().String("text", "", "JSON text to extract records from")
	cmd.Flags().Bool("approve", false, "approve every extracted record right away")
	cmd.Flags().Bool("overwrite", false, "with --approve, replace existing ledger entries")

	_ = viper.BindPFlag("import.company_id", cmd.Flags().Lookup("company"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text, _ := cmd.Flags().GetString("text")
	approve, _ := cmd.Flags().GetBool("approve")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	var paths []string
	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read standard input: %w", err)
			}
			text = string(data)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				slog.Warn("No files found matching pattern", "pattern", arg)
				continue
			}
			matches = []string{arg}
		}
		paths = append(paths, matches...)
	}
	if text == "" && len(paths) == 0 {
		return common.NewUserError("Nothing to import: pass files, --text or -", nil)
	}

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var requests []engine.IngestRequest
	if text != "" {
		requests = append(requests, a.ingestRequest(extract.NewJSONExtractor(), extract.Input{Text: text}, model.SourceAIChat))
	}
	for _, p := range paths {
		files, err := readFiles([]string{p})
		if err != nil {
			return err
		}
		extractor := extractorFor(files)
		if extractor == nil {
			slog.Warn("Skipping unsupported file", "file", p)
			continue
		}
		requests = append(requests, a.ingestRequest(extractor, extract.Input{Files: files}, model.SourceManualUpload))
	}

	out := cmd.OutOrStdout()
	var bar *progressbar.ProgressBar
	if len(requests) > 1 {
		bar = progressbar.NewOptions(len(requests),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Importing"),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]*engine.IngestResult, 0, len(requests))
	for _, req := range requests {
		result, err := a.engine.Ingest(ctx, req)
		if err != nil {
			return err
		}
		results = append(results, result)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	for _, result := range results {
		if err := printIngestResult(out, result); err != nil {
			return err
		}
		if approve && result.Job.Status == model.StatusPendingReview {
			if err := approveAll(ctx, a, out, result.Job.ID, result.Preview, overwrite); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) ingestRequest(extractor extract.Extractor, in extract.Input, source model.ImportSource) engine.IngestRequest {
	return engine.IngestRequest{
		Extractor:     extractor,
		Input:         in,
		Source:        source,
		CompanyID:     a.settings.Import.CompanyID,
		InitiatorID:   a.settings.Import.InitiatorID,
		InitiatorRole: "cli",
	}
}

func printIngestResult(w io.Writer, result *engine.IngestResult) error {
	job := result.Job
	if job.Status == model.StatusFailed {
		_, err := fmt.Fprintln(w, cli.FormatError(fmt.Sprintf("Job %s failed: %s", job.ID, truncate(job.ErrorLog, 200))))
		return err
	}

	if _, err := fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Job %s: %d record(s) pending review", job.ID, len(result.Preview)))); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, previewTable(result.Preview))
	return err
}

func approveAll(ctx context.Context, a *app, w io.Writer, jobID string, preview []model.CandidateRecord, overwrite bool) error {
	actions := engine.BulkActions(preview, model.OperationApprove, overwrite)
	result, err := a.engine.ApplyConfirmation(ctx, jobID, actions)
	if err != nil {
		return describeConfirmError(err)
	}
	_, err = fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Job %s approved: %d record(s) written", jobID, result.ApprovedCount)))
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
