package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportJobs_Lifecycle(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	job := createTestJob(t, store)
	require.NotEmpty(t, job.ID)

	got, err := store.GetImportJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusPendingReview, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.ConfidenceScore)

	score := 0.8
	completed := time.Now().UTC()
	got.Status = model.StatusApproved
	got.ConfidenceScore = &score
	got.CompletedAt = &completed
	got.RawPayloadRef = `[]`
	require.NoError(t, store.UpdateImportJob(ctx, got))

	updated, err := store.GetImportJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.WithinDuration(t, completed, *updated.CompletedAt, time.Second)
	require.NotNil(t, updated.ConfidenceScore)
	assert.InDelta(t, 0.8, *updated.ConfidenceScore, 1e-9)

	missing, err := store.GetImportJob(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = store.UpdateImportJob(ctx, &model.ImportJob{ID: "nope", SourceType: model.SourceAIChat, Status: model.StatusFailed})
	assert.Error(t, err)
}

func TestImportJobs_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	err := store.CreateImportJob(ctx, &model.ImportJob{SourceType: "fax", Status: model.StatusPendingReview})
	assert.True(t, errors.Is(err, ErrInvalidSource))

	err = store.CreateImportJob(ctx, &model.ImportJob{SourceType: model.SourceAIChat, Status: "done"})
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestListImportJobs_Filter(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []model.ImportStatus{model.StatusPendingReview, model.StatusFailed, model.StatusPendingReview} {
		job := &model.ImportJob{
			SourceType: model.SourceWatchedDir,
			Status:     status,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.CreateImportJob(ctx, job))
	}

	pending, err := store.ListImportJobs(ctx, service.ImportJobFilter{Status: model.StatusPendingReview})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.True(t, pending[0].StartedAt.After(pending[1].StartedAt), "newest first")

	limited, err := store.ListImportJobs(ctx, service.ImportJobFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAttachmentsAndLogs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	job := createTestJob(t, store)

	att := &model.Attachment{ImportJobID: job.ID, FileType: "xlsx", StoragePath: "storage/a.xlsx", Checksum: "abc"}
	require.NoError(t, store.CreateAttachment(ctx, att))

	attachments, err := store.GetAttachments(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "storage/a.xlsx", attachments[0].StoragePath)
	assert.Equal(t, "abc", attachments[0].Checksum)

	recordID := "row-1"
	entries := []*model.ConfirmationLog{
		{ImportJobID: job.ID, RecordType: model.RecordTypeRevenue, RecordID: &recordID, Action: model.OperationApprove,
			ActorID: "user-1", DiffSnapshot: map[string]any{"amount": "10.00"}},
		{ImportJobID: job.ID, RecordType: model.RecordTypeExpense, Action: model.OperationReject, Comment: "duplicate"},
	}
	for _, entry := range entries {
		require.NoError(t, store.CreateConfirmationLog(ctx, entry))
	}

	logs, err := store.GetConfirmationLogs(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "row-1", *logs[0].RecordID)
	assert.Equal(t, "10.00", logs[0].DiffSnapshot["amount"])
	assert.Nil(t, logs[1].RecordID)
	assert.Nil(t, logs[1].DiffSnapshot)
	assert.Equal(t, "duplicate", logs[1].Comment)

	err = store.CreateConfirmationLog(ctx, &model.ConfirmationLog{ImportJobID: job.ID, Action: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidLogEntry)
}
