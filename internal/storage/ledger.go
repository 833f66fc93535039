package storage

import (
	"fmt"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/shopspring/decimal"
)

// formatAmount is the canonical stored form of a money amount.
// Natural-key lookups compare this text, so every writer must use it.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func withCompanyFilter(query, companyID string) (string, []any) {
	if companyID == "" {
		return query, nil
	}
	return query + ` WHERE company_id = ?`, []any{companyID}
}

// naturalKeyClause builds the WHERE clause shared by revenue and forecast lookups.
func naturalKeyClause(dateColumn, amountColumn string, m service.LedgerMatch) (string, []any) {
	clauses := []string{"company_id = ?", dateColumn + " = ?"}
	args := []any{m.CompanyID, formatDate(m.Date)}
	if !m.IgnoreAmount {
		clauses = append(clauses, amountColumn+" = ?")
		args = append(args, formatAmount(m.Amount))
	}

	switch {
	case m.CategoryID != nil:
		clauses = append(clauses, "category_id = ?")
		args = append(args, *m.CategoryID)
	case m.CategoryPathText != nil:
		clauses = append(clauses, "category_path_text = ?")
		args = append(args, *m.CategoryPathText)
	default:
		clauses = append(clauses, "category_id IS NULL", "category_path_text IS NULL")
	}

	if m.Description != nil {
		clauses = append(clauses, "description = ?")
		args = append(args, *m.Description)
	} else {
		clauses = append(clauses, "description IS NULL")
	}

	if m.AccountName != nil {
		clauses = append(clauses, "account_name = ?")
		args = append(args, *m.AccountName)
	} else {
		clauses = append(clauses, "account_name IS NULL")
	}

	if m.ExcludeJobID != "" {
		clauses = append(clauses, "(import_job_id IS NULL OR import_job_id <> ?)")
		args = append(args, m.ExcludeJobID)
	}

	return strings.Join(clauses, " AND "), args
}

func validateMatch(m service.LedgerMatch, what string) error {
	return validateLedgerRow(m.CompanyID, m.Date, what)
}

// forecastTable maps a direction onto its table and date column.
func forecastTable(direction model.ForecastDirection) (table, dateColumn string, err error) {
	switch direction {
	case model.ForecastIncome:
		return "income_forecasts", "cash_in_date", nil
	case model.ForecastExpense:
		return "expense_forecasts", "cash_out_date", nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
}
