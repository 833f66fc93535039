package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/schollz/progressbar/v3"
)

// ReviewStats counts the decisions of one session.
type ReviewStats struct {
	Duration    time.Duration
	Total       int
	Approved    int
	Edited      int
	Overwritten int
	Rejected    int
}

// Reviewer walks a reviewer through a job preview one record at a time.
// Every action it returns carries its record's payload, so actions bind
// to records by content rather than by preview position.
type Reviewer struct {
	startTime   time.Time
	writer      io.Writer
	reader      *NonBlockingReader
	progressBar *progressbar.ProgressBar
	stats       ReviewStats
}

// NewReviewer creates a reviewer reading from reader and writing to writer.
func NewReviewer(reader io.Reader, writer io.Writer) *Reviewer {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Reviewer{
		reader:    NewNonBlockingReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// Review prompts for every record and returns the resulting actions in preview order.
func (r *Reviewer) Review(ctx context.Context, preview []model.CandidateRecord) ([]model.ConfirmationAction, error) {
	r.stats.Total = len(preview)
	r.initProgressBar(len(preview))

	actions := make([]model.ConfirmationAction, 0, len(preview))
	for i, rec := range preview {
		action, err := r.ReviewRecord(ctx, i+1, len(preview), rec)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
		if r.progressBar != nil {
			if err := r.progressBar.Add(1); err != nil {
				slog.Debug("Failed to update progress bar", "error", err)
			}
		}
	}
	return actions, nil
}

// ReviewRecord prompts for a decision on one record.
func (r *Reviewer) ReviewRecord(ctx context.Context, position, total int, rec model.CandidateRecord) (model.ConfirmationAction, error) {
	if err := ctx.Err(); err != nil {
		return model.ConfirmationAction{}, err
	}

	title := fmt.Sprintf("Record %d of %d: %s", position, total, rec.RecordType)
	if _, err := fmt.Fprintln(r.writer, RenderBox(title, FormatRecord(rec))); err != nil {
		return model.ConfirmationAction{}, fmt.Errorf("failed to write record box: %w", err)
	}

	options := []string{
		"  [A] Approve",
		"  [O] Approve, replacing an existing entry",
		"  [E] Edit fields, then approve",
		"  [R] Reject",
	}
	if _, err := fmt.Fprintln(r.writer, FormatPrompt("Options:")+"\n"+strings.Join(options, "\n")+"\n"); err != nil {
		return model.ConfirmationAction{}, fmt.Errorf("failed to write options: %w", err)
	}

	choice, err := r.promptChoice(ctx, "Choice [A/O/E/R]", []string{"a", "o", "e", "r"})
	if err != nil {
		return model.ConfirmationAction{}, err
	}

	action := model.ConfirmationAction{
		RecordType: rec.RecordType,
		Payload:    copyPayload(rec.Payload),
	}
	switch choice {
	case "a":
		action.Operation = model.OperationApprove
		r.stats.Approved++
	case "o":
		action.Operation = model.OperationApprove
		action.Overwrite = true
		r.stats.Approved++
		r.stats.Overwritten++
	case "e":
		if err := r.promptEdits(ctx, action.Payload); err != nil {
			return model.ConfirmationAction{}, err
		}
		action.Operation = model.OperationEdit
		r.stats.Approved++
		r.stats.Edited++
	case "r":
		action.Operation = model.OperationReject
		comment, err := r.promptLine(ctx, "Reason (optional)")
		if err != nil {
			return model.ConfirmationAction{}, err
		}
		action.Comment = comment
		r.stats.Rejected++
	}
	return action, nil
}

// Stats returns the counts of the session so far.
func (r *Reviewer) Stats() ReviewStats {
	stats := r.stats
	stats.Duration = time.Since(r.startTime)
	return stats
}

// ShowCompletion finishes the progress bar and prints a summary.
func (r *Reviewer) ShowCompletion() {
	if r.progressBar != nil {
		if err := r.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}

	stats := r.Stats()
	summary := fmt.Sprintf("  • Records reviewed: %d\n", stats.Total) +
		fmt.Sprintf("  • Approved: %d (%d edited, %d replacing existing entries)\n", stats.Approved, stats.Edited, stats.Overwritten) +
		fmt.Sprintf("  • Rejected: %d\n", stats.Rejected) +
		fmt.Sprintf("  • Time taken: %s", stats.Duration.Round(time.Second))

	if _, err := fmt.Fprintln(r.writer, RenderBox("Review Complete", summary)); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}

// FormatRecord lists a record's confidence, warnings and payload fields.
func FormatRecord(rec model.CandidateRecord) string {
	var b strings.Builder
	if rec.Confidence != nil {
		fmt.Fprintf(&b, "Confidence: %.0f%%\n", *rec.Confidence*100)
	}
	for _, w := range rec.Warnings {
		b.WriteString(FormatWarning(w))
		b.WriteString("\n")
	}

	keys := make([]string, 0, len(rec.Payload))
	for k := range rec.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(rec.Payload[k])})
	}
	b.WriteString(RenderTable([]string{"Field", "Value"}, rows))
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return SubtleStyle.Render("(empty)")
	case []any:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, " / ")
	default:
		return fmt.Sprint(val)
	}
}

func (r *Reviewer) initProgressBar(total int) {
	if total == 0 {
		return
	}
	r.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Reviewing records...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(r.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// promptEdits reads field=value lines until an empty line. An empty value removes the field.
func (r *Reviewer) promptEdits(ctx context.Context, payload map[string]any) error {
	if _, err := fmt.Fprintln(r.writer, SubtleStyle.Render("Enter field=value, one per line. Empty value removes a field, empty line finishes.")); err != nil {
		return fmt.Errorf("failed to write edit help: %w", err)
	}
	for {
		line, err := r.promptLine(ctx, "Edit")
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			if _, err := fmt.Fprintln(r.writer, FormatError("Expected field=value.")); err != nil {
				slog.Warn("Failed to write error message", "error", err)
			}
			continue
		}

		value = strings.TrimSpace(value)
		if value == "" {
			delete(payload, key)
			continue
		}
		if strings.Contains(value, "/") && strings.HasSuffix(key, "_path") {
			segments := strings.Split(value, "/")
			path := make([]any, 0, len(segments))
			for _, s := range segments {
				if s = strings.TrimSpace(s); s != "" {
					path = append(path, s)
				}
			}
			payload[key] = path
			continue
		}
		payload[key] = value
	}
}

func (r *Reviewer) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		input, err := r.promptLine(ctx, prompt)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(r.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

func (r *Reviewer) promptLine(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprintf(r.writer, "%s: ", FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := r.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input terminated")
		}
		return "", err
	}
	return line, nil
}

func copyPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
