package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/cchome2024/FinanceSync/internal/category"
	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/reconcile"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateExpenseForecast(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	rent, err := category.ResolveOrCreate(ctx, store, []string{"办公费用", "房租"}, model.CategoryTypeExpense)
	require.NoError(t, err)

	created, err := e.CreateExpenseForecast(ctx, ExpenseForecastInput{
		Month:         "2025-06",
		CompanyID:     "C1",
		CategoryLabel: strPtr("房租"),
		Description:   strPtr("office rent"),
		Amount:        decimal.RequireFromString("12000.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.CertaintyCertain, created.Certainty)

	stored, err := store.GetForecast(ctx, model.ForecastExpense, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "C1", stored.CompanyID)
	assert.Equal(t, "2025-06-01", stored.CashDate.Format("2006-01-02"))
	assert.Equal(t, "12000.50", stored.ExpectedAmount.StringFixed(2))
	assert.Nil(t, stored.ImportJobID)
	require.NotNil(t, stored.CategoryID)
	assert.Equal(t, rent.ID, *stored.CategoryID)
	assert.Equal(t, "房租", *stored.CategoryLabel)
	assert.Equal(t, "办公费用/房租", *stored.CategoryPathText)

	unknown, err := e.CreateExpenseForecast(ctx, ExpenseForecastInput{
		Month:         "2025-07",
		CategoryLabel: strPtr("差旅"),
		Amount:        decimal.NewFromInt(300),
		Certainty:     model.CertaintyUncertain,
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.PlaceholderCompanyID, unknown.CompanyID)
	assert.Nil(t, unknown.CategoryID)
	assert.Equal(t, "差旅", *unknown.CategoryLabel)

	forecasts, err := e.ListForecasts(ctx, model.ForecastExpense, "")
	require.NoError(t, err)
	assert.Len(t, forecasts, 2)
}

func TestCreateExpenseForecastValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ExpenseForecastInput
		field string
	}{
		{name: "bad month", input: ExpenseForecastInput{Month: "June", Amount: decimal.NewFromInt(1)}, field: "month"},
		{name: "zero amount", input: ExpenseForecastInput{Month: "2025-06"}, field: "amount"},
		{name: "negative amount", input: ExpenseForecastInput{Month: "2025-06", Amount: decimal.NewFromInt(-5)}, field: "amount"},
		{name: "unknown certainty", input: ExpenseForecastInput{Month: "2025-06", Amount: decimal.NewFromInt(1), Certainty: "maybe"}, field: "certainty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateExpenseForecast(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation))
			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	forecasts, err := e.ListForecasts(ctx, model.ForecastExpense, "")
	require.NoError(t, err)
	assert.Empty(t, forecasts)
}

func TestUpdateExpenseForecast(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	travel, err := category.ResolveOrCreate(ctx, store, []string{"差旅"}, model.CategoryTypeExpense)
	require.NoError(t, err)

	created, err := e.CreateExpenseForecast(ctx, ExpenseForecastInput{
		Month:       "2025-06",
		CompanyID:   "C1",
		Description: strPtr("flights"),
		Amount:      decimal.NewFromInt(800),
	})
	require.NoError(t, err)

	amount := decimal.NewFromInt(950)
	uncertain := model.CertaintyUncertain
	updated, err := e.UpdateExpenseForecast(ctx, created.ID, ExpenseForecastPatch{
		Amount:        &amount,
		Certainty:     &uncertain,
		CategoryLabel: strPtr("差旅"),
	})
	require.NoError(t, err)
	assert.Equal(t, "950.00", updated.ExpectedAmount.StringFixed(2))

	stored, err := store.GetForecast(ctx, model.ForecastExpense, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CertaintyUncertain, stored.Certainty)
	assert.Equal(t, "flights", *stored.Description)
	require.NotNil(t, stored.CategoryID)
	assert.Equal(t, travel.ID, *stored.CategoryID)

	_, err = e.UpdateExpenseForecast(ctx, created.ID, ExpenseForecastPatch{CategoryLabel: strPtr("")})
	require.NoError(t, err)
	stored, err = store.GetForecast(ctx, model.ForecastExpense, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CategoryID)
	assert.Nil(t, stored.CategoryLabel)
	assert.Equal(t, "950.00", stored.ExpectedAmount.StringFixed(2))

	zero := decimal.Zero
	_, err = e.UpdateExpenseForecast(ctx, created.ID, ExpenseForecastPatch{Amount: &zero})
	assert.True(t, errors.Is(err, common.ErrValidation))

	_, err = e.UpdateExpenseForecast(ctx, "missing", ExpenseForecastPatch{Amount: &amount})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDeleteExpenseForecast(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	created, err := e.CreateExpenseForecast(ctx, ExpenseForecastInput{Month: "2025-06", CompanyID: "C1", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	require.NoError(t, e.DeleteExpenseForecast(ctx, created.ID))
	stored, err := store.GetForecast(ctx, model.ForecastExpense, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	assert.True(t, errors.Is(e.DeleteExpenseForecast(ctx, created.ID), common.ErrNotFound))
	assert.True(t, errors.Is(e.DeleteExpenseForecast(ctx, ""), common.ErrValidation))
}
