package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/model"
)

const expenseColumns = `id, company_id, import_job_id, category_id, month, amount, currency,
	description, account_name, category_path_text, category_label, subcategory_label,
	confidence, notes, created_at, updated_at`

// CreateExpenseRecord inserts an expense row. Expense rows are never deduplicated.
func (s *SQLiteStorage) CreateExpenseRecord(ctx context.Context, record *model.ExpenseRecord) error {
	return s.createExpenseRecordTx(ctx, s.db, record)
}

// ListExpenseRecords lists expense rows by month. An empty companyID lists all companies.
func (s *SQLiteStorage) ListExpenseRecords(ctx context.Context, companyID string) ([]model.ExpenseRecord, error) {
	return s.listExpenseRecordsTx(ctx, s.db, companyID)
}

func (t *sqliteTransaction) CreateExpenseRecord(ctx context.Context, record *model.ExpenseRecord) error {
	return t.storage.createExpenseRecordTx(ctx, t.tx, record)
}

func (t *sqliteTransaction) ListExpenseRecords(ctx context.Context, companyID string) ([]model.ExpenseRecord, error) {
	return t.storage.listExpenseRecordsTx(ctx, t.tx, companyID)
}

func (s *SQLiteStorage) createExpenseRecordTx(ctx context.Context, q queryable, record *model.ExpenseRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: expense record", ErrNilParameter)
	}
	if err := validateLedgerRow(record.CompanyID, record.Month, "expense record"); err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = newID()
	}
	if record.Currency == "" {
		record.Currency = model.DefaultCurrency
	}
	record.CreatedAt = now()
	record.UpdatedAt = record.CreatedAt

	_, err := q.ExecContext(ctx, `
		INSERT INTO expense_records (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.CompanyID, nullString(record.ImportJobID), nullString(record.CategoryID),
		formatDate(record.Month), formatAmount(record.Amount), record.Currency,
		nullString(record.Description), nullString(record.AccountName), nullString(record.CategoryPathText),
		nullString(record.CategoryLabel), nullString(record.SubcategoryLabel),
		nullFloat(record.Confidence), nullString(record.Notes), record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense record: %w", mapConstraintError(err))
	}
	return nil
}

func (s *SQLiteStorage) listExpenseRecordsTx(ctx context.Context, q queryable, companyID string) ([]model.ExpenseRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args := withCompanyFilter(`SELECT `+expenseColumns+` FROM expense_records`, companyID)
	rows, err := q.QueryContext(ctx, query+` ORDER BY month, created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense records: %w", err)
	}
	defer rows.Close()

	var records []model.ExpenseRecord
	for rows.Next() {
		var r model.ExpenseRecord
		var month string
		var link categoryLinkColumns
		var jobID, description, account, notes sql.NullString
		var confidence sql.NullFloat64

		if err := rows.Scan(
			&r.ID, &r.CompanyID, &jobID, &link.categoryID, &month, &r.Amount, &r.Currency,
			&description, &account, &link.pathText, &link.label, &link.subcategory,
			&confidence, &notes, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense record: %w", err)
		}

		if r.Month, err = parseDate(month); err != nil {
			return nil, err
		}
		r.ImportJobID = stringPtr(jobID)
		r.Description = stringPtr(description)
		r.AccountName = stringPtr(account)
		r.CategoryLink = link.toModel()
		r.Confidence = floatPtr(confidence)
		r.Notes = stringPtr(notes)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense records: %w", err)
	}
	return records, nil
}
