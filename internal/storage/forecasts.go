package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
)

// forecastColumns lists the shared columns; the date column is spliced in per table.
func forecastColumns(dateColumn string) string {
	return `id, company_id, import_job_id, category_id, ` + dateColumn + `, expected_amount, currency,
	certainty, description, account_name, product_line, product_name, category_path_text,
	category_label, subcategory_label, confidence, notes, created_at, updated_at`
}

// FindForecast returns the oldest forecast matching the natural key, or nil.
func (s *SQLiteStorage) FindForecast(ctx context.Context, direction model.ForecastDirection, match service.LedgerMatch) (*model.Forecast, error) {
	return s.findForecastTx(ctx, s.db, direction, match)
}

// CreateForecast inserts a forecast into the table selected by its Direction.
func (s *SQLiteStorage) CreateForecast(ctx context.Context, forecast *model.Forecast) error {
	return s.createForecastTx(ctx, s.db, forecast)
}

// UpdateForecast overwrites a forecast in place.
func (s *SQLiteStorage) UpdateForecast(ctx context.Context, forecast *model.Forecast) error {
	return s.updateForecastTx(ctx, s.db, forecast)
}

// GetForecast returns one forecast by id, or nil if none exists.
func (s *SQLiteStorage) GetForecast(ctx context.Context, direction model.ForecastDirection, id string) (*model.Forecast, error) {
	return s.getForecastTx(ctx, s.db, direction, id)
}

// DeleteForecast removes one forecast by id and reports whether it existed.
func (s *SQLiteStorage) DeleteForecast(ctx context.Context, direction model.ForecastDirection, id string) (bool, error) {
	return s.deleteForecastTx(ctx, s.db, direction, id)
}

// DeleteForecasts removes every forecast of one direction for a company.
func (s *SQLiteStorage) DeleteForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) (int64, error) {
	return s.deleteForecastsTx(ctx, s.db, direction, companyID)
}

// ListForecasts lists forecasts by cash date. An empty companyID lists all companies.
func (s *SQLiteStorage) ListForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) ([]model.Forecast, error) {
	return s.listForecastsTx(ctx, s.db, direction, companyID)
}

func (t *sqliteTransaction) FindForecast(ctx context.Context, direction model.ForecastDirection, match service.LedgerMatch) (*model.Forecast, error) {
	return t.storage.findForecastTx(ctx, t.tx, direction, match)
}

func (t *sqliteTransaction) CreateForecast(ctx context.Context, forecast *model.Forecast) error {
	return t.storage.createForecastTx(ctx, t.tx, forecast)
}

func (t *sqliteTransaction) UpdateForecast(ctx context.Context, forecast *model.Forecast) error {
	return t.storage.updateForecastTx(ctx, t.tx, forecast)
}

func (t *sqliteTransaction) GetForecast(ctx context.Context, direction model.ForecastDirection, id string) (*model.Forecast, error) {
	return t.storage.getForecastTx(ctx, t.tx, direction, id)
}

func (t *sqliteTransaction) DeleteForecast(ctx context.Context, direction model.ForecastDirection, id string) (bool, error) {
	return t.storage.deleteForecastTx(ctx, t.tx, direction, id)
}

func (t *sqliteTransaction) DeleteForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) (int64, error) {
	return t.storage.deleteForecastsTx(ctx, t.tx, direction, companyID)
}

func (t *sqliteTransaction) ListForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) ([]model.Forecast, error) {
	return t.storage.listForecastsTx(ctx, t.tx, direction, companyID)
}

func (s *SQLiteStorage) findForecastTx(ctx context.Context, q queryable, direction model.ForecastDirection, match service.LedgerMatch) (*model.Forecast, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	table, dateColumn, err := forecastTable(direction)
	if err != nil {
		return nil, err
	}
	if err := validateMatch(match, "forecast"); err != nil {
		return nil, err
	}

	where, args := naturalKeyClause(dateColumn, "expected_amount", match)
	row := q.QueryRowContext(ctx,
		`SELECT `+forecastColumns(dateColumn)+` FROM `+table+` WHERE `+where+` ORDER BY created_at, id LIMIT 1`,
		args...)

	forecast, err := scanForecast(row, direction)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return forecast, nil
}

func (s *SQLiteStorage) getForecastTx(ctx context.Context, q queryable, direction model.ForecastDirection, id string) (*model.Forecast, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	table, dateColumn, err := forecastTable(direction)
	if err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `SELECT `+forecastColumns(dateColumn)+` FROM `+table+` WHERE id = ?`, id)
	forecast, err := scanForecast(row, direction)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return forecast, nil
}

func (s *SQLiteStorage) createForecastTx(ctx context.Context, q queryable, f *model.Forecast) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: forecast", ErrNilParameter)
	}
	table, dateColumn, err := forecastTable(f.Direction)
	if err != nil {
		return err
	}
	if err := validateLedgerRow(f.CompanyID, f.CashDate, "forecast"); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = newID()
	}
	if f.Currency == "" {
		f.Currency = model.DefaultCurrency
	}
	if f.Certainty == "" {
		f.Certainty = model.CertaintyCertain
	}
	f.CreatedAt = now()
	f.UpdatedAt = f.CreatedAt

	_, err = q.ExecContext(ctx, `
		INSERT INTO `+table+` (`+forecastColumns(dateColumn)+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.CompanyID, nullString(f.ImportJobID), nullString(f.CategoryID), formatDate(f.CashDate),
		formatAmount(f.ExpectedAmount), f.Currency, f.Certainty, nullString(f.Description),
		nullString(f.AccountName), nullString(f.ProductLine), nullString(f.ProductName),
		nullString(f.CategoryPathText), nullString(f.CategoryLabel), nullString(f.SubcategoryLabel),
		nullFloat(f.Confidence), nullString(f.Notes), f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create %s row: %w", table, mapConstraintError(err))
	}
	return nil
}

func (s *SQLiteStorage) updateForecastTx(ctx context.Context, q queryable, f *model.Forecast) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: forecast", ErrNilParameter)
	}
	table, _, err := forecastTable(f.Direction)
	if err != nil {
		return err
	}
	if err := validateString(f.ID, "forecast.ID"); err != nil {
		return err
	}
	f.UpdatedAt = now()

	_, err = q.ExecContext(ctx, `
		UPDATE `+table+`
		SET import_job_id = ?, category_id = ?, expected_amount = ?, currency = ?, certainty = ?,
			description = ?, account_name = ?, product_line = ?, product_name = ?,
			category_path_text = ?, category_label = ?, subcategory_label = ?,
			confidence = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		nullString(f.ImportJobID), nullString(f.CategoryID), formatAmount(f.ExpectedAmount), f.Currency,
		f.Certainty, nullString(f.Description), nullString(f.AccountName), nullString(f.ProductLine),
		nullString(f.ProductName), nullString(f.CategoryPathText), nullString(f.CategoryLabel),
		nullString(f.SubcategoryLabel), nullFloat(f.Confidence), nullString(f.Notes), f.UpdatedAt, f.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s row: %w", table, err)
	}
	return nil
}

func (s *SQLiteStorage) deleteForecastTx(ctx context.Context, q queryable, direction model.ForecastDirection, id string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	table, _, err := forecastTable(direction)
	if err != nil {
		return false, err
	}
	if err := validateString(id, "id"); err != nil {
		return false, err
	}

	result, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s row: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted %s: %w", table, err)
	}
	return n > 0, nil
}

func (s *SQLiteStorage) deleteForecastsTx(ctx context.Context, q queryable, direction model.ForecastDirection, companyID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	table, _, err := forecastTable(direction)
	if err != nil {
		return 0, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return 0, err
	}

	result, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE company_id = ?`, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", table, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted %s: %w", table, err)
	}

	slog.Debug("cleared forecasts", "table", table, "company_id", companyID, "deleted", deleted)
	return deleted, nil
}

func (s *SQLiteStorage) listForecastsTx(ctx context.Context, q queryable, direction model.ForecastDirection, companyID string) ([]model.Forecast, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	table, dateColumn, err := forecastTable(direction)
	if err != nil {
		return nil, err
	}

	query, args := withCompanyFilter(`SELECT `+forecastColumns(dateColumn)+` FROM `+table, companyID)
	rows, err := q.QueryContext(ctx, query+` ORDER BY `+dateColumn+`, created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var forecasts []model.Forecast
	for rows.Next() {
		forecast, err := scanForecast(rows, direction)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		forecasts = append(forecasts, *forecast)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return forecasts, nil
}

func scanForecast(row rowScanner, direction model.ForecastDirection) (*model.Forecast, error) {
	f := model.Forecast{Direction: direction}
	var cashDate string
	var link categoryLinkColumns
	var jobID, description, account, productLine, productName, notes sql.NullString
	var confidence sql.NullFloat64

	if err := row.Scan(
		&f.ID, &f.CompanyID, &jobID, &link.categoryID, &cashDate, &f.ExpectedAmount, &f.Currency,
		&f.Certainty, &description, &account, &productLine, &productName, &link.pathText,
		&link.label, &link.subcategory, &confidence, &notes, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}

	date, err := parseDate(cashDate)
	if err != nil {
		return nil, err
	}
	f.CashDate = date
	f.ImportJobID = stringPtr(jobID)
	f.Description = stringPtr(description)
	f.AccountName = stringPtr(account)
	f.ProductLine = stringPtr(productLine)
	f.ProductName = stringPtr(productName)
	f.CategoryLink = link.toModel()
	f.Confidence = floatPtr(confidence)
	f.Notes = stringPtr(notes)
	return &f, nil
}
