package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Import jobs, attachments, categories and confirmation log",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS companies (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL UNIQUE,
					display_name TEXT,
					currency TEXT NOT NULL DEFAULT 'CNY',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS import_jobs (
					id TEXT PRIMARY KEY,
					source_type TEXT NOT NULL,
					status TEXT NOT NULL,
					initiator_id TEXT,
					initiator_role TEXT,
					llm_model TEXT,
					confidence_score REAL,
					started_at DATETIME NOT NULL,
					completed_at DATETIME,
					raw_payload_ref TEXT,
					error_log TEXT
				)`,
				`CREATE INDEX idx_import_jobs_status ON import_jobs(status)`,
				`CREATE INDEX idx_import_jobs_started ON import_jobs(started_at)`,

				`CREATE TABLE IF NOT EXISTS attachments (
					id TEXT PRIMARY KEY,
					import_job_id TEXT NOT NULL REFERENCES import_jobs(id) ON DELETE CASCADE,
					file_type TEXT NOT NULL,
					storage_path TEXT NOT NULL,
					text_snapshot TEXT,
					checksum TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_attachments_job ON attachments(import_job_id)`,

				`CREATE TABLE IF NOT EXISTS finance_categories (
					id TEXT PRIMARY KEY,
					category_type TEXT NOT NULL,
					name TEXT NOT NULL,
					parent_id TEXT REFERENCES finance_categories(id),
					level INTEGER NOT NULL,
					full_path TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					UNIQUE(category_type, full_path)
				)`,
				`CREATE INDEX idx_finance_categories_parent ON finance_categories(parent_id)`,

				`CREATE TABLE IF NOT EXISTS confirmation_logs (
					id TEXT PRIMARY KEY,
					import_job_id TEXT NOT NULL REFERENCES import_jobs(id) ON DELETE CASCADE,
					record_type TEXT NOT NULL,
					record_id TEXT,
					actor_id TEXT,
					actor_role TEXT,
					action TEXT NOT NULL,
					diff_snapshot TEXT,
					comment TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_confirmation_logs_job ON confirmation_logs(import_job_id)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Account balances, revenue details and expense records",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS account_balances (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL REFERENCES companies(id),
					import_job_id TEXT REFERENCES import_jobs(id) ON DELETE SET NULL,
					reported_at TEXT NOT NULL,
					cash_balance TEXT NOT NULL DEFAULT '0.00',
					investment_balance TEXT NOT NULL DEFAULT '0.00',
					total_balance TEXT NOT NULL DEFAULT '0.00',
					currency TEXT NOT NULL DEFAULT 'CNY',
					notes TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					UNIQUE(company_id, reported_at)
				)`,

				`CREATE TABLE IF NOT EXISTS revenue_details (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL REFERENCES companies(id),
					import_job_id TEXT REFERENCES import_jobs(id) ON DELETE SET NULL,
					category_id TEXT REFERENCES finance_categories(id),
					occurred_on TEXT NOT NULL,
					amount TEXT NOT NULL,
					currency TEXT NOT NULL DEFAULT 'CNY',
					description TEXT,
					account_name TEXT,
					category_path_text TEXT,
					category_label TEXT,
					subcategory_label TEXT,
					confidence REAL,
					notes TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_revenue_details_key ON revenue_details(company_id, occurred_on, amount)`,

				`CREATE TABLE IF NOT EXISTS expense_records (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL REFERENCES companies(id),
					import_job_id TEXT REFERENCES import_jobs(id) ON DELETE SET NULL,
					category_id TEXT REFERENCES finance_categories(id),
					month TEXT NOT NULL,
					amount TEXT NOT NULL,
					currency TEXT NOT NULL DEFAULT 'CNY',
					description TEXT,
					account_name TEXT,
					category_path_text TEXT,
					category_label TEXT,
					subcategory_label TEXT,
					confidence REAL,
					notes TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_expense_records_company_month ON expense_records(company_id, month)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Income forecasts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				forecastTableDDL("income_forecasts", "cash_in_date"),
				`CREATE INDEX idx_income_forecasts_key ON income_forecasts(company_id, cash_in_date)`,
			})
		},
	},
	{
		Version:     4,
		Description: "Expense forecasts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				forecastTableDDL("expense_forecasts", "cash_out_date"),
				`CREATE INDEX idx_expense_forecasts_key ON expense_forecasts(company_id, cash_out_date)`,
			})
		},
	},
}

func forecastTableDDL(table, dateColumn string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id),
		import_job_id TEXT REFERENCES import_jobs(id) ON DELETE SET NULL,
		category_id TEXT REFERENCES finance_categories(id),
		%s TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'CNY',
		certainty TEXT NOT NULL DEFAULT 'certain',
		description TEXT,
		account_name TEXT,
		product_line TEXT,
		product_name TEXT,
		category_path_text TEXT,
		category_label TEXT,
		subcategory_label TEXT,
		confidence REAL,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`, table, dateColumn)
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the applied migration version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
