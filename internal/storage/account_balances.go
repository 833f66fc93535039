package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cchome2024/FinanceSync/internal/model"
)

const accountBalanceColumns = `id, company_id, import_job_id, reported_at, cash_balance,
	investment_balance, total_balance, currency, notes, created_at, updated_at`

// FindAccountBalance returns the balance reported for a company at exactly reportedAt.
func (s *SQLiteStorage) FindAccountBalance(ctx context.Context, companyID string, reportedAt time.Time) (*model.AccountBalance, error) {
	return s.findAccountBalanceTx(ctx, s.db, companyID, reportedAt)
}

// CreateAccountBalance inserts a balance snapshot.
func (s *SQLiteStorage) CreateAccountBalance(ctx context.Context, balance *model.AccountBalance) error {
	return s.createAccountBalanceTx(ctx, s.db, balance)
}

// UpdateAccountBalance overwrites a balance snapshot in place.
func (s *SQLiteStorage) UpdateAccountBalance(ctx context.Context, balance *model.AccountBalance) error {
	return s.updateAccountBalanceTx(ctx, s.db, balance)
}

// ListAccountBalances lists balances by report time. An empty companyID lists all companies.
func (s *SQLiteStorage) ListAccountBalances(ctx context.Context, companyID string) ([]model.AccountBalance, error) {
	return s.listAccountBalancesTx(ctx, s.db, companyID)
}

func (t *sqliteTransaction) FindAccountBalance(ctx context.Context, companyID string, reportedAt time.Time) (*model.AccountBalance, error) {
	return t.storage.findAccountBalanceTx(ctx, t.tx, companyID, reportedAt)
}

func (t *sqliteTransaction) CreateAccountBalance(ctx context.Context, balance *model.AccountBalance) error {
	return t.storage.createAccountBalanceTx(ctx, t.tx, balance)
}

func (t *sqliteTransaction) UpdateAccountBalance(ctx context.Context, balance *model.AccountBalance) error {
	return t.storage.updateAccountBalanceTx(ctx, t.tx, balance)
}

func (t *sqliteTransaction) ListAccountBalances(ctx context.Context, companyID string) ([]model.AccountBalance, error) {
	return t.storage.listAccountBalancesTx(ctx, t.tx, companyID)
}

func (s *SQLiteStorage) findAccountBalanceTx(ctx context.Context, q queryable, companyID string, reportedAt time.Time) (*model.AccountBalance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLedgerRow(companyID, reportedAt, "account balance"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx,
		`SELECT `+accountBalanceColumns+` FROM account_balances WHERE company_id = ? AND reported_at = ?`,
		companyID, formatTimestamp(reportedAt))

	balance, err := scanAccountBalance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account balance: %w", err)
	}
	return balance, nil
}

func (s *SQLiteStorage) createAccountBalanceTx(ctx context.Context, q queryable, balance *model.AccountBalance) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if balance == nil {
		return fmt.Errorf("%w: balance", ErrNilParameter)
	}
	if err := validateLedgerRow(balance.CompanyID, balance.ReportedAt, "account balance"); err != nil {
		return err
	}
	if balance.ID == "" {
		balance.ID = newID()
	}
	if balance.Currency == "" {
		balance.Currency = model.DefaultCurrency
	}
	balance.CreatedAt = now()
	balance.UpdatedAt = balance.CreatedAt

	_, err := q.ExecContext(ctx, `
		INSERT INTO account_balances (`+accountBalanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		balance.ID, balance.CompanyID, nullString(balance.ImportJobID), formatTimestamp(balance.ReportedAt),
		formatAmount(balance.CashBalance), formatAmount(balance.InvestmentBalance), formatAmount(balance.TotalBalance),
		balance.Currency, nullString(balance.Notes), balance.CreatedAt, balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account balance: %w", mapConstraintError(err))
	}
	return nil
}

func (s *SQLiteStorage) updateAccountBalanceTx(ctx context.Context, q queryable, balance *model.AccountBalance) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if balance == nil {
		return fmt.Errorf("%w: balance", ErrNilParameter)
	}
	if err := validateString(balance.ID, "balance.ID"); err != nil {
		return err
	}
	balance.UpdatedAt = now()

	_, err := q.ExecContext(ctx, `
		UPDATE account_balances
		SET import_job_id = ?, cash_balance = ?, investment_balance = ?, total_balance = ?,
			currency = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		nullString(balance.ImportJobID), formatAmount(balance.CashBalance), formatAmount(balance.InvestmentBalance),
		formatAmount(balance.TotalBalance), balance.Currency, nullString(balance.Notes), balance.UpdatedAt, balance.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) listAccountBalancesTx(ctx context.Context, q queryable, companyID string) ([]model.AccountBalance, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args := withCompanyFilter(`SELECT `+accountBalanceColumns+` FROM account_balances`, companyID)
	rows, err := q.QueryContext(ctx, query+` ORDER BY reported_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query account balances: %w", err)
	}
	defer rows.Close()

	var balances []model.AccountBalance
	for rows.Next() {
		balance, err := scanAccountBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account balance: %w", err)
		}
		balances = append(balances, *balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account balances: %w", err)
	}
	return balances, nil
}

func scanAccountBalance(row rowScanner) (*model.AccountBalance, error) {
	var b model.AccountBalance
	var jobID, notes sql.NullString
	var reportedAt string
	if err := row.Scan(
		&b.ID, &b.CompanyID, &jobID, &reportedAt, &b.CashBalance, &b.InvestmentBalance,
		&b.TotalBalance, &b.Currency, &notes, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t, err := parseTimestamp(reportedAt)
	if err != nil {
		return nil, err
	}
	b.ReportedAt = t
	b.ImportJobID = stringPtr(jobID)
	b.Notes = stringPtr(notes)
	return &b, nil
}
