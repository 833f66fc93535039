package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/reconcile"
	"github.com/cchome2024/FinanceSync/internal/record"
)

// ApplyConfirmation applies reviewer actions to a pending job in one
// transaction. Actions run in order. A duplicate conflict or a validation
// error rolls back every write of the call and leaves the job pending.
func (e *Engine) ApplyConfirmation(ctx context.Context, jobID string, actions []model.ConfirmationAction) (*model.ConfirmationResult, error) {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	job, err := e.pendingJob(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	preview, err := model.DecodePreview(job.RawPayloadRef)
	if err != nil {
		return nil, err
	}

	queue := newPreviewQueue(preview)
	writer := reconcile.NewWriter(tx, job.ID)
	result := &model.ConfirmationResult{UpdatedRecords: []model.CandidateRecord{}}

	for i, action := range actions {
		if !action.Operation.Valid() {
			return nil, actionError(i, common.NewValidationError("operation", fmt.Sprintf("unknown operation %q", action.Operation)))
		}
		if !action.RecordType.Valid() {
			return nil, actionError(i, common.NewValidationError("recordType", fmt.Sprintf("unsupported record type %q", action.RecordType)))
		}

		entry := &model.ConfirmationLog{
			ImportJobID:  job.ID,
			RecordType:   action.RecordType,
			ActorID:      job.InitiatorID,
			ActorRole:    job.InitiatorRole,
			Action:       action.Operation,
			DiffSnapshot: action.Payload,
			Comment:      action.Comment,
		}

		// Rejections never consume a preview record.
		if action.Operation == model.OperationReject {
			result.RejectedCount++
			if err := tx.CreateConfirmationLog(ctx, entry); err != nil {
				return nil, fmt.Errorf("failed to log rejection: %w", err)
			}
			continue
		}

		candidate := model.CandidateRecord{RecordType: action.RecordType, Payload: action.Payload}
		if action.Payload == nil {
			next, ok := queue.next(action.RecordType)
			if !ok {
				return nil, actionError(i, common.NewValidationError("payload", fmt.Sprintf("no preview %s record left", action.RecordType)))
			}
			candidate = next
		}
		if candidate.Payload == nil {
			candidate.Payload = map[string]any{}
		}

		fields, err := record.Normalize(action.RecordType, candidate.Payload)
		if err != nil {
			return nil, actionError(i, err)
		}
		recordID, err := writer.Persist(ctx, fields, action.Overwrite)
		if err != nil {
			return nil, actionError(i, err)
		}

		result.ApprovedCount++
		entry.RecordID = &recordID
		if err := tx.CreateConfirmationLog(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to log approval: %w", err)
		}

		result.UpdatedRecords = append(result.UpdatedRecords, model.CandidateRecord{
			RecordType: action.RecordType,
			Payload:    record.Canonical(candidate.Payload, fields),
			Confidence: candidate.Confidence,
			Warnings:   candidate.Warnings,
		})
	}

	job.Status = model.StatusRejected
	if result.ApprovedCount > 0 {
		job.Status = model.StatusApproved
	}
	completed := time.Now().UTC()
	job.CompletedAt = &completed
	if err := tx.UpdateImportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to finalize import job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}

	slog.Info("confirmed import job",
		"job_id", job.ID,
		"status", job.Status,
		"approved", result.ApprovedCount,
		"rejected", result.RejectedCount,
		"unreviewed", queue.remaining())
	return result, nil
}

// BulkActions builds one action per preview record carrying that record's
// payload, so the audit log shows what each decision covered.
func BulkActions(preview []model.CandidateRecord, op model.ConfirmationOperation, overwrite bool) []model.ConfirmationAction {
	actions := make([]model.ConfirmationAction, 0, len(preview))
	for _, r := range preview {
		actions = append(actions, model.ConfirmationAction{
			RecordType: r.RecordType,
			Operation:  op,
			Payload:    r.Payload,
			Overwrite:  overwrite,
		})
	}
	return actions
}

// actionError prefixes err with the action position. Sentinels and typed
// errors such as *reconcile.DuplicateRecordError stay reachable.
func actionError(index int, err error) error {
	return fmt.Errorf("action %d: %w", index, err)
}
