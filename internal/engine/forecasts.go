package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/reconcile"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/shopspring/decimal"
)

// ExpenseForecastInput is an expense forecast entered by hand.
// Month is YYYY-MM; the forecast falls on the first day of that month.
type ExpenseForecastInput struct {
	CategoryLabel *string
	Description   *string
	AccountName   *string
	Amount        decimal.Decimal
	Month         string
	CompanyID     string
	Certainty     model.Certainty
}

// ExpenseForecastPatch changes the non-nil fields of a forecast. An empty
// CategoryLabel clears the category.
type ExpenseForecastPatch struct {
	CategoryLabel *string
	Description   *string
	AccountName   *string
	Amount        *decimal.Decimal
	Certainty     *model.Certainty
}

// CreateExpenseForecast stores a manual expense forecast. An empty CompanyID
// files it under the placeholder company. The category is linked when the
// label names a node of the expense tree.
func (e *Engine) CreateExpenseForecast(ctx context.Context, in ExpenseForecastInput) (*model.Forecast, error) {
	month, err := time.Parse("2006-01", strings.TrimSpace(in.Month))
	if err != nil {
		return nil, common.NewValidationError("month", fmt.Sprintf("expected YYYY-MM, got %q", in.Month))
	}
	if !in.Amount.IsPositive() {
		return nil, common.NewValidationError("amount", "must be greater than zero")
	}
	certainty := in.Certainty
	if certainty == "" {
		certainty = model.CertaintyCertain
	}
	if !certainty.Valid() {
		return nil, common.NewValidationError("certainty", fmt.Sprintf("unknown certainty %q", certainty))
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	companyID, err := reconcile.ResolveCompany(ctx, tx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	link, err := expenseLink(ctx, tx, in.CategoryLabel)
	if err != nil {
		return nil, err
	}

	forecast := &model.Forecast{
		Direction:      model.ForecastExpense,
		CompanyID:      companyID,
		CashDate:       month,
		ExpectedAmount: in.Amount,
		Currency:       model.DefaultCurrency,
		Certainty:      certainty,
		Description:    in.Description,
		AccountName:    in.AccountName,
		CategoryLink:   link,
	}
	if err := tx.CreateForecast(ctx, forecast); err != nil {
		return nil, fmt.Errorf("failed to create expense forecast: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense forecast: %w", err)
	}

	slog.Info("created expense forecast", "id", forecast.ID, "company_id", companyID, "month", in.Month)
	return forecast, nil
}

// UpdateExpenseForecast applies patch to the forecast with the given id.
func (e *Engine) UpdateExpenseForecast(ctx context.Context, id string, patch ExpenseForecastPatch) (*model.Forecast, error) {
	if patch.Amount != nil && !patch.Amount.IsPositive() {
		return nil, common.NewValidationError("amount", "must be greater than zero")
	}
	if patch.Certainty != nil && !patch.Certainty.Valid() {
		return nil, common.NewValidationError("certainty", fmt.Sprintf("unknown certainty %q", *patch.Certainty))
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	forecast, err := expenseForecast(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		forecast.Description = patch.Description
	}
	if patch.AccountName != nil {
		forecast.AccountName = patch.AccountName
	}
	if patch.Amount != nil {
		forecast.ExpectedAmount = *patch.Amount
	}
	if patch.Certainty != nil {
		forecast.Certainty = *patch.Certainty
	}
	if patch.CategoryLabel != nil {
		link, err := expenseLink(ctx, tx, patch.CategoryLabel)
		if err != nil {
			return nil, err
		}
		link.SubcategoryLabel = forecast.SubcategoryLabel
		forecast.CategoryLink = link
	}

	if err := tx.UpdateForecast(ctx, forecast); err != nil {
		return nil, fmt.Errorf("failed to update expense forecast: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense forecast: %w", err)
	}

	slog.Info("updated expense forecast", "id", forecast.ID, "company_id", forecast.CompanyID)
	return forecast, nil
}

// DeleteExpenseForecast removes one expense forecast.
func (e *Engine) DeleteExpenseForecast(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return common.NewValidationError("id", "must not be empty")
	}
	deleted, err := e.storage.DeleteForecast(ctx, model.ForecastExpense, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense forecast: %w", err)
	}
	if !deleted {
		return fmt.Errorf("expense forecast %s: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted expense forecast", "id", id)
	return nil
}

// ListForecasts lists one direction of forecasts. An empty companyID lists
// every company.
func (e *Engine) ListForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) ([]model.Forecast, error) {
	forecasts, err := e.storage.ListForecasts(ctx, direction, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}
	return forecasts, nil
}

func expenseForecast(ctx context.Context, tx service.Transaction, id string) (*model.Forecast, error) {
	if strings.TrimSpace(id) == "" {
		return nil, common.NewValidationError("id", "must not be empty")
	}
	forecast, err := tx.GetForecast(ctx, model.ForecastExpense, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense forecast: %w", err)
	}
	if forecast == nil {
		return nil, fmt.Errorf("expense forecast %s: %w", id, common.ErrNotFound)
	}
	return forecast, nil
}

// expenseLink looks the label up among expense category names. An unknown
// label is kept as text with no category id.
func expenseLink(ctx context.Context, tx service.Transaction, label *string) (model.CategoryLink, error) {
	if label == nil || strings.TrimSpace(*label) == "" {
		return model.CategoryLink{}, nil
	}
	name := strings.TrimSpace(*label)

	categories, err := tx.GetCategories(ctx, model.CategoryTypeExpense)
	if err != nil {
		return model.CategoryLink{}, fmt.Errorf("failed to load expense categories: %w", err)
	}

	link := model.CategoryLink{CategoryLabel: &name}
	for i := range categories {
		if categories[i].Name == name {
			link.CategoryID = &categories[i].ID
			link.CategoryPathText = &categories[i].FullPath
			break
		}
	}
	return link, nil
}
