package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/model"
)

// CreateConfirmationLog appends an audit entry.
func (s *SQLiteStorage) CreateConfirmationLog(ctx context.Context, log *model.ConfirmationLog) error {
	return s.createConfirmationLogTx(ctx, s.db, log)
}

// GetConfirmationLogs returns a job's audit trail in the order it was written.
func (s *SQLiteStorage) GetConfirmationLogs(ctx context.Context, jobID string) ([]model.ConfirmationLog, error) {
	return s.getConfirmationLogsTx(ctx, s.db, jobID)
}

func (t *sqliteTransaction) CreateConfirmationLog(ctx context.Context, log *model.ConfirmationLog) error {
	return t.storage.createConfirmationLogTx(ctx, t.tx, log)
}

func (t *sqliteTransaction) GetConfirmationLogs(ctx context.Context, jobID string) ([]model.ConfirmationLog, error) {
	return t.storage.getConfirmationLogsTx(ctx, t.tx, jobID)
}

func (s *SQLiteStorage) createConfirmationLogTx(ctx context.Context, q queryable, log *model.ConfirmationLog) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if log == nil {
		return fmt.Errorf("%w: confirmation log", ErrNilParameter)
	}
	if err := validateString(log.ImportJobID, "log.ImportJobID"); err != nil {
		return err
	}
	if !log.Action.Valid() {
		return fmt.Errorf("%w: action %q", ErrInvalidLogEntry, log.Action)
	}
	if log.ID == "" {
		log.ID = newID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now()
	}

	var snapshot sql.NullString
	if log.DiffSnapshot != nil {
		data, err := json.Marshal(log.DiffSnapshot)
		if err != nil {
			return fmt.Errorf("failed to encode diff snapshot: %w", err)
		}
		snapshot = sql.NullString{String: string(data), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO confirmation_logs (id, import_job_id, record_type, record_id, actor_id, actor_role,
			action, diff_snapshot, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.ImportJobID, log.RecordType, nullString(log.RecordID), log.ActorID, log.ActorRole,
		log.Action, snapshot, log.Comment, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create confirmation log: %w", mapConstraintError(err))
	}
	return nil
}

func (s *SQLiteStorage) getConfirmationLogsTx(ctx context.Context, q queryable, jobID string) ([]model.ConfirmationLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(jobID, "jobID"); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, import_job_id, record_type, record_id, actor_id, actor_role, action,
			diff_snapshot, comment, created_at
		FROM confirmation_logs
		WHERE import_job_id = ?
		ORDER BY rowid`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmation logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ConfirmationLog
	for rows.Next() {
		var entry model.ConfirmationLog
		var recordID, actorID, actorRole, snapshot, comment sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.ImportJobID, &entry.RecordType, &recordID, &actorID, &actorRole,
			&entry.Action, &snapshot, &comment, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation log: %w", err)
		}

		entry.RecordID = stringPtr(recordID)
		entry.ActorID = actorID.String
		entry.ActorRole = actorRole.String
		entry.Comment = comment.String
		if snapshot.Valid {
			if err := json.Unmarshal([]byte(snapshot.String), &entry.DiffSnapshot); err != nil {
				return nil, fmt.Errorf("failed to decode diff snapshot: %w", err)
			}
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating confirmation logs: %w", err)
	}
	return logs, nil
}
