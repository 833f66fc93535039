package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
)

const importJobColumns = `id, source_type, status, initiator_id, initiator_role, llm_model,
	confidence_score, started_at, completed_at, raw_payload_ref, error_log`

// CreateImportJob inserts a job. An empty ID is filled in.
func (s *SQLiteStorage) CreateImportJob(ctx context.Context, job *model.ImportJob) error {
	return s.createImportJobTx(ctx, s.db, job)
}

// GetImportJob returns a job by id, or nil if none exists.
func (s *SQLiteStorage) GetImportJob(ctx context.Context, id string) (*model.ImportJob, error) {
	return s.getImportJobTx(ctx, s.db, id)
}

// ListImportJobs returns jobs newest first.
func (s *SQLiteStorage) ListImportJobs(ctx context.Context, filter service.ImportJobFilter) ([]model.ImportJob, error) {
	return s.listImportJobsTx(ctx, s.db, filter)
}

// UpdateImportJob persists every mutable job column.
func (s *SQLiteStorage) UpdateImportJob(ctx context.Context, job *model.ImportJob) error {
	return s.updateImportJobTx(ctx, s.db, job)
}

// CreateAttachment inserts an attachment row.
func (s *SQLiteStorage) CreateAttachment(ctx context.Context, attachment *model.Attachment) error {
	return s.createAttachmentTx(ctx, s.db, attachment)
}

// GetAttachments returns a job's attachments in creation order.
func (s *SQLiteStorage) GetAttachments(ctx context.Context, jobID string) ([]model.Attachment, error) {
	return s.getAttachmentsTx(ctx, s.db, jobID)
}

func (t *sqliteTransaction) CreateImportJob(ctx context.Context, job *model.ImportJob) error {
	return t.storage.createImportJobTx(ctx, t.tx, job)
}

func (t *sqliteTransaction) GetImportJob(ctx context.Context, id string) (*model.ImportJob, error) {
	return t.storage.getImportJobTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) ListImportJobs(ctx context.Context, filter service.ImportJobFilter) ([]model.ImportJob, error) {
	return t.storage.listImportJobsTx(ctx, t.tx, filter)
}

func (t *sqliteTransaction) UpdateImportJob(ctx context.Context, job *model.ImportJob) error {
	return t.storage.updateImportJobTx(ctx, t.tx, job)
}

func (t *sqliteTransaction) CreateAttachment(ctx context.Context, attachment *model.Attachment) error {
	return t.storage.createAttachmentTx(ctx, t.tx, attachment)
}

func (t *sqliteTransaction) GetAttachments(ctx context.Context, jobID string) ([]model.Attachment, error) {
	return t.storage.getAttachmentsTx(ctx, t.tx, jobID)
}

func (s *SQLiteStorage) createImportJobTx(ctx context.Context, q queryable, job *model.ImportJob) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImportJob(job); err != nil {
		return err
	}
	if job.ID == "" {
		job.ID = newID()
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = now()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO import_jobs (`+importJobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.SourceType, job.Status, job.InitiatorID, job.InitiatorRole, job.LLMModel,
		nullFloat(job.ConfidenceScore), job.StartedAt, job.CompletedAt, job.RawPayloadRef, job.ErrorLog,
	)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", mapConstraintError(err))
	}
	return nil
}

func (s *SQLiteStorage) getImportJobTx(ctx context.Context, q queryable, id string) (*model.ImportJob, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `SELECT `+importJobColumns+` FROM import_jobs WHERE id = ?`, id)
	job, err := scanImportJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query import job: %w", err)
	}
	return job, nil
}

func (s *SQLiteStorage) listImportJobsTx(ctx context.Context, q queryable, filter service.ImportJobFilter) ([]model.ImportJob, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Source != "" {
		where = append(where, "source_type = ?")
		args = append(args, filter.Source)
	}

	query := `SELECT ` + importJobColumns + ` FROM import_jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import jobs: %w", err)
	}
	return jobs, nil
}

func (s *SQLiteStorage) updateImportJobTx(ctx context.Context, q queryable, job *model.ImportJob) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImportJob(job); err != nil {
		return err
	}
	if err := validateString(job.ID, "job.ID"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE import_jobs
		SET status = ?, llm_model = ?, confidence_score = ?, completed_at = ?,
			raw_payload_ref = ?, error_log = ?
		WHERE id = ?`,
		job.Status, job.LLMModel, nullFloat(job.ConfidenceScore), job.CompletedAt,
		job.RawPayloadRef, job.ErrorLog, job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("import job %s: %w", job.ID, sql.ErrNoRows)
	}
	return nil
}

func (s *SQLiteStorage) createAttachmentTx(ctx context.Context, q queryable, attachment *model.Attachment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if attachment == nil {
		return fmt.Errorf("%w: attachment", ErrNilParameter)
	}
	if err := validateString(attachment.ImportJobID, "attachment.ImportJobID"); err != nil {
		return err
	}
	if err := validateString(attachment.StoragePath, "attachment.StoragePath"); err != nil {
		return err
	}
	if attachment.ID == "" {
		attachment.ID = newID()
	}
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = now()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO attachments (id, import_job_id, file_type, storage_path, text_snapshot, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attachment.ID, attachment.ImportJobID, attachment.FileType, attachment.StoragePath,
		attachment.TextSnapshot, attachment.Checksum, attachment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", mapConstraintError(err))
	}
	return nil
}

func (s *SQLiteStorage) getAttachmentsTx(ctx context.Context, q queryable, jobID string) ([]model.Attachment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(jobID, "jobID"); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, import_job_id, file_type, storage_path, text_snapshot, checksum, created_at
		FROM attachments
		WHERE import_job_id = ?
		ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		var snapshot, checksum sql.NullString
		if err := rows.Scan(&a.ID, &a.ImportJobID, &a.FileType, &a.StoragePath, &snapshot, &checksum, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		a.TextSnapshot = snapshot.String
		a.Checksum = checksum.String
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}
	return attachments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImportJob(row rowScanner) (*model.ImportJob, error) {
	var job model.ImportJob
	var initiatorID, initiatorRole, llmModel, payload, errorLog sql.NullString
	var confidence sql.NullFloat64
	var completedAt sql.NullTime

	if err := row.Scan(
		&job.ID, &job.SourceType, &job.Status, &initiatorID, &initiatorRole, &llmModel,
		&confidence, &job.StartedAt, &completedAt, &payload, &errorLog,
	); err != nil {
		return nil, err
	}

	job.InitiatorID = initiatorID.String
	job.InitiatorRole = initiatorRole.String
	job.LLMModel = llmModel.String
	job.ConfidenceScore = floatPtr(confidence)
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	job.RawPayloadRef = payload.String
	job.ErrorLog = errorLog.String
	return &job, nil
}
