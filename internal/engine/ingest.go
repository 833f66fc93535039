package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
)

// maxSnapshotBytes caps the text kept with an attachment.
const maxSnapshotBytes = 64 << 10

// IngestRequest is one extraction run.
type IngestRequest struct {
	Extractor     extract.Extractor
	Input         extract.Input
	Source        model.ImportSource
	CompanyID     string
	InitiatorID   string
	InitiatorRole string
}

// IngestResult is the job produced by Ingest. Preview is empty when the job failed.
type IngestResult struct {
	Job         *model.ImportJob
	Attachments []model.Attachment
	Preview     []model.CandidateRecord
}

// Ingest creates a job, stores the input files, runs the extractor and
// attaches its records as the preview. Output the extractor cannot parse
// leaves the job failed with the raw text in its error log and is not an
// error of Ingest. Any other extractor error also fails the job and is returned.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}

	job, err := e.CreateJob(ctx, JobRequest{
		Source:        req.Source,
		InitiatorID:   req.InitiatorID,
		InitiatorRole: req.InitiatorRole,
		LLMModel:      req.Extractor.Name(),
	})
	if err != nil {
		return nil, err
	}
	result := &IngestResult{Job: job}

	for _, f := range req.Input.Files {
		attachment, err := e.AddAttachment(ctx, job.ID, f, textSnapshot(f.Data))
		if err != nil {
			return nil, err
		}
		result.Attachments = append(result.Attachments, *attachment)
	}

	records, err := req.Extractor.Extract(ctx, req.Input)
	if err != nil {
		var parseErr *extract.ParseError
		raw := ""
		if errors.As(err, &parseErr) {
			raw = parseErr.Raw
		}
		if markErr := e.MarkFailed(ctx, job.ID, raw, err); markErr != nil {
			return nil, markErr
		}
		failed, getErr := e.GetJob(ctx, job.ID)
		if getErr != nil {
			return nil, getErr
		}
		result.Job = failed
		if parseErr != nil {
			return result, nil
		}
		return nil, fmt.Errorf("extraction failed for job %s: %w", job.ID, err)
	}

	if result.Job, err = e.AttachPreview(ctx, job.ID, records, req.CompanyID); err != nil {
		return nil, err
	}
	if result.Preview, err = e.LoadPreview(ctx, job.ID); err != nil {
		return nil, err
	}

	slog.Info("ingested import job",
		"job_id", job.ID,
		"extractor", req.Extractor.Name(),
		"records", len(result.Preview),
		"attachments", len(result.Attachments))
	return result, nil
}

// textSnapshot keeps the leading text of a file when it is valid UTF-8.
func textSnapshot(data []byte) string {
	if len(data) > maxSnapshotBytes {
		data = data[:maxSnapshotBytes]
		for i := 0; i < utf8.UTFMax && len(data) > 0 && !utf8.Valid(data); i++ {
			data = data[:len(data)-1]
		}
	}
	if !utf8.Valid(data) {
		return ""
	}
	return string(data)
}
