package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cchome2024/FinanceSync/internal/model"
)

// GetCompany returns a company by id, or nil if none exists.
func (s *SQLiteStorage) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	return s.getCompanyTx(ctx, s.db, id)
}

// GetCompanyByName returns the company with the given name, or nil if none exists.
func (s *SQLiteStorage) GetCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	return s.getCompanyByNameTx(ctx, s.db, name)
}

// CreateCompany inserts a company.
func (s *SQLiteStorage) CreateCompany(ctx context.Context, company *model.Company) error {
	return s.createCompanyTx(ctx, s.db, company)
}

func (t *sqliteTransaction) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	return t.storage.getCompanyTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	return t.storage.getCompanyByNameTx(ctx, t.tx, name)
}

func (t *sqliteTransaction) CreateCompany(ctx context.Context, company *model.Company) error {
	return t.storage.createCompanyTx(ctx, t.tx, company)
}

func (s *SQLiteStorage) getCompanyTx(ctx context.Context, q queryable, id string) (*model.Company, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	return scanCompany(q.QueryRowContext(ctx,
		`SELECT id, name, display_name, currency FROM companies WHERE id = ?`, id))
}

func (s *SQLiteStorage) getCompanyByNameTx(ctx context.Context, q queryable, name string) (*model.Company, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	return scanCompany(q.QueryRowContext(ctx,
		`SELECT id, name, display_name, currency FROM companies WHERE name = ?`, name))
}

func scanCompany(row *sql.Row) (*model.Company, error) {
	var company model.Company
	var displayName sql.NullString
	err := row.Scan(&company.ID, &company.Name, &displayName, &company.Currency)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company: %w", err)
	}

	company.DisplayName = displayName.String
	return &company, nil
}

func (s *SQLiteStorage) createCompanyTx(ctx context.Context, q queryable, company *model.Company) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if company == nil {
		return fmt.Errorf("%w: company", ErrNilParameter)
	}
	if err := validateString(company.ID, "company.ID"); err != nil {
		return err
	}
	if err := validateString(company.Name, "company.Name"); err != nil {
		return err
	}
	if company.Currency == "" {
		company.Currency = model.DefaultCurrency
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO companies (id, name, display_name, currency, created_at) VALUES (?, ?, ?, ?, ?)`,
		company.ID, company.Name, company.DisplayName, company.Currency, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", mapConstraintError(err))
	}

	slog.Debug("created company", "id", company.ID, "name", company.Name)
	return nil
}
