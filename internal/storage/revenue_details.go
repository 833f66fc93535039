package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
)

const revenueColumns = `id, company_id, import_job_id, category_id, occurred_on, amount, currency,
	description, account_name, category_path_text, category_label, subcategory_label,
	confidence, notes, created_at, updated_at`

// FindRevenueDetail returns the oldest revenue row matching the natural key, or nil.
func (s *SQLiteStorage) FindRevenueDetail(ctx context.Context, match service.LedgerMatch) (*model.RevenueDetail, error) {
	return s.findRevenueDetailTx(ctx, s.db, match)
}

// CreateRevenueDetail inserts a revenue row.
func (s *SQLiteStorage) CreateRevenueDetail(ctx context.Context, detail *model.RevenueDetail) error {
	return s.createRevenueDetailTx(ctx, s.db, detail)
}

// UpdateRevenueDetail overwrites a revenue row in place.
func (s *SQLiteStorage) UpdateRevenueDetail(ctx context.Context, detail *model.RevenueDetail) error {
	return s.updateRevenueDetailTx(ctx, s.db, detail)
}

// ListRevenueDetails lists revenue rows by date. An empty companyID lists all companies.
func (s *SQLiteStorage) ListRevenueDetails(ctx context.Context, companyID string) ([]model.RevenueDetail, error) {
	return s.listRevenueDetailsTx(ctx, s.db, companyID)
}

func (t *sqliteTransaction) FindRevenueDetail(ctx context.Context, match service.LedgerMatch) (*model.RevenueDetail, error) {
	return t.storage.findRevenueDetailTx(ctx, t.tx, match)
}

func (t *sqliteTransaction) CreateRevenueDetail(ctx context.Context, detail *model.RevenueDetail) error {
	return t.storage.createRevenueDetailTx(ctx, t.tx, detail)
}

func (t *sqliteTransaction) UpdateRevenueDetail(ctx context.Context, detail *model.RevenueDetail) error {
	return t.storage.updateRevenueDetailTx(ctx, t.tx, detail)
}

func (t *sqliteTransaction) ListRevenueDetails(ctx context.Context, companyID string) ([]model.RevenueDetail, error) {
	return t.storage.listRevenueDetailsTx(ctx, t.tx, companyID)
}

func (s *SQLiteStorage) findRevenueDetailTx(ctx context.Context, q queryable, match service.LedgerMatch) (*model.RevenueDetail, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateMatch(match, "revenue detail"); err != nil {
		return nil, err
	}

	where, args := naturalKeyClause("occurred_on", "amount", match)
	row := q.QueryRowContext(ctx,
		`SELECT `+revenueColumns+` FROM revenue_details WHERE `+where+` ORDER BY created_at, id LIMIT 1`,
		args...)

	detail, err := scanRevenueDetail(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue detail: %w", err)
	}
	return detail, nil
}

func (s *SQLiteStorage) createRevenueDetailTx(ctx context.Context, q queryable, detail *model.RevenueDetail) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if detail == nil {
		return fmt.Errorf("%w: revenue detail", ErrNilParameter)
	}
	if err := validateLedgerRow(detail.CompanyID, detail.OccurredOn, "revenue detail"); err != nil {
		return err
	}
	if detail.ID == "" {
		detail.ID = newID()
	}
	if detail.Currency == "" {
		detail.Currency = model.DefaultCurrency
	}
	detail.CreatedAt = now()
	detail.UpdatedAt = detail.CreatedAt

	_, err := q.ExecContext(ctx, `
		INSERT INTO revenue_details (`+revenueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		detail.ID, detail.CompanyID, nullString(detail.ImportJobID), nullString(detail.CategoryID),
		formatDate(detail.OccurredOn), formatAmount(detail.Amount), detail.Currency,
		nullString(detail.Description), nullString(detail.AccountName), nullString(detail.CategoryPathText),
		nullString(detail.CategoryLabel), nullString(detail.SubcategoryLabel),
		nullFloat(detail.Confidence), nullString(detail.Notes), detail.CreatedAt, detail.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create revenue detail: %w", mapConstraintError(err))
	}
	return nil
}

func (s *SQLiteStorage) updateRevenueDetailTx(ctx context.Context, q queryable, detail *model.RevenueDetail) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if detail == nil {
		return fmt.Errorf("%w: revenue detail", ErrNilParameter)
	}
	if err := validateString(detail.ID, "detail.ID"); err != nil {
		return err
	}
	detail.UpdatedAt = now()

	_, err := q.ExecContext(ctx, `
		UPDATE revenue_details
		SET import_job_id = ?, category_id = ?, amount = ?, currency = ?, description = ?,
			account_name = ?, category_path_text = ?, category_label = ?, subcategory_label = ?,
			confidence = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		nullString(detail.ImportJobID), nullString(detail.CategoryID), formatAmount(detail.Amount), detail.Currency,
		nullString(detail.Description), nullString(detail.AccountName), nullString(detail.CategoryPathText),
		nullString(detail.CategoryLabel), nullString(detail.SubcategoryLabel),
		nullFloat(detail.Confidence), nullString(detail.Notes), detail.UpdatedAt, detail.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update revenue detail: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) listRevenueDetailsTx(ctx context.Context, q queryable, companyID string) ([]model.RevenueDetail, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args := withCompanyFilter(`SELECT `+revenueColumns+` FROM revenue_details`, companyID)
	rows, err := q.QueryContext(ctx, query+` ORDER BY occurred_on, created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue details: %w", err)
	}
	defer rows.Close()

	var details []model.RevenueDetail
	for rows.Next() {
		detail, err := scanRevenueDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revenue detail: %w", err)
		}
		details = append(details, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revenue details: %w", err)
	}
	return details, nil
}

func scanRevenueDetail(row rowScanner) (*model.RevenueDetail, error) {
	var d model.RevenueDetail
	var occurredOn string
	var link categoryLinkColumns
	var jobID, description, account, notes sql.NullString
	var confidence sql.NullFloat64

	if err := row.Scan(
		&d.ID, &d.CompanyID, &jobID, &link.categoryID, &occurredOn, &d.Amount, &d.Currency,
		&description, &account, &link.pathText, &link.label, &link.subcategory,
		&confidence, &notes, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}

	date, err := parseDate(occurredOn)
	if err != nil {
		return nil, err
	}
	d.OccurredOn = date
	d.ImportJobID = stringPtr(jobID)
	d.Description = stringPtr(description)
	d.AccountName = stringPtr(account)
	d.CategoryLink = link.toModel()
	d.Confidence = floatPtr(confidence)
	d.Notes = stringPtr(notes)
	return &d, nil
}

// categoryLinkColumns receives the four nullable category columns during a scan.
type categoryLinkColumns struct {
	categoryID  sql.NullString
	pathText    sql.NullString
	label       sql.NullString
	subcategory sql.NullString
}

func (c categoryLinkColumns) toModel() model.CategoryLink {
	return model.CategoryLink{
		CategoryID:       stringPtr(c.categoryID),
		CategoryPathText: stringPtr(c.pathText),
		CategoryLabel:    stringPtr(c.label),
		SubcategoryLabel: stringPtr(c.subcategory),
	}
}
