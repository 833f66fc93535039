// Package engine drives import jobs from extraction through review to the ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cchome2024/FinanceSync/internal/attachments"
	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
)

// ErrJobNotPending is returned when a job has already left pending_review.
var ErrJobNotPending = errors.New("import job is not pending review")

// Engine owns the import job lifecycle.
type Engine struct {
	storage service.Storage
	blobs   attachments.Store
}

// New creates an engine. blobs may be nil, in which case attachments are
// recorded with their original file name as the storage path.
func New(storage service.Storage, blobs attachments.Store) *Engine {
	return &Engine{
		storage: storage,
		blobs:   blobs,
	}
}

// JobRequest describes a new import job.
type JobRequest struct {
	Source        model.ImportSource
	InitiatorID   string
	InitiatorRole string
	LLMModel      string
}

// JobDetail is a job with its attachments and decoded preview.
type JobDetail struct {
	Job         *model.ImportJob
	Attachments []model.Attachment
	Preview     []model.CandidateRecord
}

// CreateJob starts a job in pending_review with an empty preview.
func (e *Engine) CreateJob(ctx context.Context, req JobRequest) (*model.ImportJob, error) {
	if !req.Source.Valid() {
		return nil, common.NewValidationError("source", fmt.Sprintf("unknown source %q", req.Source))
	}

	job := &model.ImportJob{
		SourceType:    req.Source,
		Status:        model.StatusPendingReview,
		InitiatorID:   req.InitiatorID,
		InitiatorRole: req.InitiatorRole,
		LLMModel:      req.LLMModel,
		StartedAt:     time.Now().UTC(),
		RawPayloadRef: "[]",
	}
	if err := e.storage.CreateImportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}

	slog.Info("created import job", "job_id", job.ID, "source", job.SourceType)
	return job, nil
}

// AttachPreview stores records as the job's preview. When companyID is set it
// becomes the company of every record that names none.
func (e *Engine) AttachPreview(ctx context.Context, jobID string, records []model.CandidateRecord, companyID string) (*model.ImportJob, error) {
	job, err := e.pendingJob(ctx, e.storage, jobID)
	if err != nil {
		return nil, err
	}

	records = model.WithDefaultCompany(records, companyID)
	encoded, err := model.EncodePreview(records)
	if err != nil {
		return nil, err
	}
	job.RawPayloadRef = encoded
	job.ConfidenceScore = model.AverageConfidence(records)

	if err := e.storage.UpdateImportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to store preview: %w", err)
	}

	slog.Info("attached preview", "job_id", job.ID, "records", len(records))
	return job, nil
}

// AddAttachment stores a source file and records it on the job.
func (e *Engine) AddAttachment(ctx context.Context, jobID string, file extract.File, textSnapshot string) (*model.Attachment, error) {
	location := file.Name
	if location == "" {
		location = "inline"
	}
	if e.blobs != nil {
		var err error
		location, err = e.blobs.Put(ctx, attachments.Key(jobID, file.Name), file.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment %q: %w", file.Name, err)
		}
	}

	fileType := file.Ext()
	if fileType == "" {
		fileType = file.ContentType
	}

	attachment := &model.Attachment{
		ImportJobID:  jobID,
		FileType:     fileType,
		StoragePath:  location,
		TextSnapshot: textSnapshot,
		Checksum:     attachments.Checksum(file.Data),
	}
	if err := e.storage.CreateAttachment(ctx, attachment); err != nil {
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}
	return attachment, nil
}

// MarkFailed moves a pending job to failed, keeping raw as its error log.
func (e *Engine) MarkFailed(ctx context.Context, jobID, raw string, cause error) error {
	job, err := e.pendingJob(ctx, e.storage, jobID)
	if err != nil {
		return err
	}

	job.ErrorLog = raw
	if job.ErrorLog == "" && cause != nil {
		job.ErrorLog = cause.Error()
	}
	job.Status = model.StatusFailed
	completed := time.Now().UTC()
	job.CompletedAt = &completed

	if err := e.storage.UpdateImportJob(ctx, job); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	slog.Warn("import job failed", "job_id", job.ID, "error", cause)
	return nil
}

// GetJob returns a job or an error wrapping common.ErrNotFound.
func (e *Engine) GetJob(ctx context.Context, jobID string) (*model.ImportJob, error) {
	return e.loadJob(ctx, e.storage, jobID)
}

// GetJobDetail returns a job with its attachments and preview.
func (e *Engine) GetJobDetail(ctx context.Context, jobID string) (*JobDetail, error) {
	job, err := e.loadJob(ctx, e.storage, jobID)
	if err != nil {
		return nil, err
	}
	files, err := e.storage.GetAttachments(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}
	preview, err := model.DecodePreview(job.RawPayloadRef)
	if err != nil {
		return nil, err
	}
	return &JobDetail{Job: job, Attachments: files, Preview: preview}, nil
}

// ListJobs lists jobs newest first.
func (e *Engine) ListJobs(ctx context.Context, filter service.ImportJobFilter) ([]model.ImportJob, error) {
	jobs, err := e.storage.ListImportJobs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	return jobs, nil
}

// LoadPreview decodes the preview stored on a job.
func (e *Engine) LoadPreview(ctx context.Context, jobID string) ([]model.CandidateRecord, error) {
	job, err := e.loadJob(ctx, e.storage, jobID)
	if err != nil {
		return nil, err
	}
	return model.DecodePreview(job.RawPayloadRef)
}

// ListConfirmationLogs returns the audit trail of a job.
func (e *Engine) ListConfirmationLogs(ctx context.Context, jobID string) ([]model.ConfirmationLog, error) {
	if _, err := e.loadJob(ctx, e.storage, jobID); err != nil {
		return nil, err
	}
	logs, err := e.storage.GetConfirmationLogs(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmation logs: %w", err)
	}
	return logs, nil
}

// ListCategories returns the category tree of one type ordered by path.
func (e *Engine) ListCategories(ctx context.Context, categoryType model.CategoryType) ([]model.FinanceCategory, error) {
	if !categoryType.Valid() {
		return nil, common.NewValidationError("type", fmt.Sprintf("unknown category type %q", categoryType))
	}
	categories, err := e.storage.GetCategories(ctx, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

type jobReader interface {
	GetImportJob(ctx context.Context, id string) (*model.ImportJob, error)
}

func (e *Engine) loadJob(ctx context.Context, store jobReader, jobID string) (*model.ImportJob, error) {
	job, err := store.GetImportJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load import job: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("import job %s: %w", jobID, common.ErrNotFound)
	}
	return job, nil
}

func (e *Engine) pendingJob(ctx context.Context, store jobReader, jobID string) (*model.ImportJob, error) {
	job, err := e.loadJob(ctx, store, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.StatusPendingReview {
		return nil, fmt.Errorf("import job %s is %s: %w", jobID, job.Status, ErrJobNotPending)
	}
	return job, nil
}
