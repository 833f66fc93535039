package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/record"
	"github.com/cchome2024/FinanceSync/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(t *testing.T, recordType model.RecordType, payload map[string]any) record.Fields {
	t.Helper()
	f, err := record.Normalize(recordType, payload)
	require.NoError(t, err)
	return f
}

func revenuePayload(amount any) map[string]any {
	return map[string]any{
		"company_id":    "company-a",
		"occurred_on":   "2025-02-10",
		"amount":        amount,
		"category_path": []any{"Products", "Subscriptions"},
		"description":   "February subscriptions",
	}
}

func TestWriterRevenueConflictAndOverwrite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	first := db.MustCreateJob("[]")
	id, err := NewWriter(db.Storage, first.ID).Persist(ctx, normalize(t, model.RecordTypeRevenue, revenuePayload(123456.78)), false)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	second := db.MustCreateJob("[]")
	_, err = NewWriter(db.Storage, second.ID).Persist(ctx, normalize(t, model.RecordTypeRevenue, revenuePayload("123,456.78")), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDuplicateRecord))

	var dup *DuplicateRecordError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, model.RecordTypeRevenue, dup.RecordType)
	assert.Equal(t, "company-a", dup.Conflict["companyId"])
	assert.Equal(t, "2025-02-10", dup.Conflict["occurredOn"])
	assert.Equal(t, "Subscriptions", dup.Conflict["category"])
	assert.Equal(t, "Products/Subscriptions", dup.Conflict["categoryPath"])
	assert.Equal(t, "February subscriptions", dup.Conflict["description"])
	assert.Nil(t, dup.Conflict["accountName"])
	assert.InDelta(t, 123456.78, dup.Conflict["amount"], 0.001)

	payload := revenuePayload(123456.78)
	payload["notes"] = "corrected"
	overwritten, err := NewWriter(db.Storage, second.ID).Persist(ctx, normalize(t, model.RecordTypeRevenue, payload), true)
	require.NoError(t, err)
	assert.Equal(t, id, overwritten)

	details, err := db.Storage.ListRevenueDetails(ctx, "company-a")
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.NotNil(t, details[0].ImportJobID)
	assert.Equal(t, second.ID, *details[0].ImportJobID)
	require.NotNil(t, details[0].Notes)
	assert.Equal(t, "corrected", *details[0].Notes)
}

func TestWriterRevenueChangedAmountIsNotDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	first := db.MustCreateJob("[]")
	_, err := NewWriter(db.Storage, first.ID).Persist(ctx, normalize(t, model.RecordTypeRevenue, revenuePayload(123456.78)), false)
	require.NoError(t, err)

	second := db.MustCreateJob("[]")
	_, err = NewWriter(db.Storage, second.ID).Persist(ctx, normalize(t, model.RecordTypeRevenue, revenuePayload(999999.0)), false)
	require.NoError(t, err)

	details, err := db.Storage.ListRevenueDetails(ctx, "company-a")
	require.NoError(t, err)
	assert.Len(t, details, 2)
}

func TestWriterSameJobRowsDoNotConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	job := db.MustCreateJob("[]")
	w := NewWriter(db.Storage, job.ID)
	for i := 0; i < 2; i++ {
		_, err := w.Persist(ctx, normalize(t, model.RecordTypeRevenue, revenuePayload(100)), false)
		require.NoError(t, err)
	}

	details, err := db.Storage.ListRevenueDetails(ctx, "company-a")
	require.NoError(t, err)
	assert.Len(t, details, 2)
}

func TestWriterResolvesCategoryAndPlaceholderCompany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	job := db.MustCreateJob("[]")
	f := normalize(t, model.RecordTypeRevenue, map[string]any{
		"occurredOn":        "2025-03-01",
		"amount":            "12.5",
		"category":          "Services",
		"subcategory":       "Consulting",
		"subcategory_label": "Advisory",
	})
	_, err := NewWriter(db.Storage, job.ID).Persist(ctx, f, false)
	require.NoError(t, err)
	assert.Equal(t, PlaceholderCompanyID, f.Shared().CompanyID)

	company, err := db.Storage.GetCompany(ctx, PlaceholderCompanyID)
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, PlaceholderCompanyName, company.Name)

	leaf, err := db.Storage.GetCategoryByPath(ctx, model.CategoryTypeRevenue, "Services/Consulting")
	require.NoError(t, err)
	require.NotNil(t, leaf)
	assert.Equal(t, 2, leaf.Level)

	details, err := db.Storage.ListRevenueDetails(ctx, PlaceholderCompanyID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.NotNil(t, details[0].CategoryID)
	assert.Equal(t, leaf.ID, *details[0].CategoryID)
	assert.Equal(t, "Consulting", *details[0].CategoryLabel)
	assert.Equal(t, "Advisory", *details[0].SubcategoryLabel)
	assert.Equal(t, "Services/Consulting", *details[0].CategoryPathText)
	assert.True(t, decimal.RequireFromString("12.50").Equal(details[0].Amount))
}

func TestWriterAccountBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	payload := map[string]any{
		"company_id":   "company-a",
		"reported_at":  "2025-01-31T16:00:00Z",
		"cash_balance": 1000,
		"notes":        "month end",
	}

	first := db.MustCreateJob("[]")
	id, err := NewWriter(db.Storage, first.ID).Persist(ctx, normalize(t, model.RecordTypeAccountBalance, payload), false)
	require.NoError(t, err)

	second := db.MustCreateJob("[]")
	_, err = NewWriter(db.Storage, second.ID).Persist(ctx, normalize(t, model.RecordTypeAccountBalance, payload), false)
	var dup *DuplicateRecordError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "2025-01-31T16:00:00Z", dup.Conflict["reportedAt"])

	update := map[string]any{
		"company_id":    "company-a",
		"reported_at":   "2025-01-31T16:00:00Z",
		"total_balance": "5000",
	}
	got, err := NewWriter(db.Storage, second.ID).Persist(ctx, normalize(t, model.RecordTypeAccountBalance, update), true)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	balances, err := db.Storage.ListAccountBalances(ctx, "company-a")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	b := balances[0]
	assert.True(t, decimal.NewFromInt(1000).Equal(b.CashBalance), "unprovided fields keep stored values")
	assert.True(t, decimal.NewFromInt(5000).Equal(b.TotalBalance))
	assert.True(t, b.InvestmentBalance.IsZero())
	require.NotNil(t, b.Notes)
	assert.Equal(t, "month end", *b.Notes)
	assert.Equal(t, second.ID, *b.ImportJobID)
	assert.Equal(t, model.DefaultCurrency, b.Currency)
}

func TestWriterForecastReplacesSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	forecast := func(date string, amount float64) record.Fields {
		return normalize(t, model.RecordTypeIncomeForecast, map[string]any{
			"company_id":      "company-a",
			"cash_in_date":    date,
			"expected_amount": amount,
			"certainty":       "uncertain",
		})
	}

	first := db.MustCreateJob("[]")
	w := NewWriter(db.Storage, first.ID)
	for _, date := range []string{"2025-04-01", "2025-05-01", "2025-06-01"} {
		_, err := w.Persist(ctx, forecast(date, 100), false)
		require.NoError(t, err)
	}

	second := db.MustCreateJob("[]")
	w = NewWriter(db.Storage, second.ID)
	_, err := w.Persist(ctx, forecast("2025-04-01", 100), false)
	require.NoError(t, err, "reset runs before the duplicate check")
	_, err = w.Persist(ctx, forecast("2025-07-01", 250), false)
	require.NoError(t, err)

	rows, err := db.Storage.ListForecasts(ctx, model.ForecastIncome, "company-a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, second.ID, *row.ImportJobID)
		assert.Equal(t, model.CertaintyUncertain, row.Certainty)
	}
	assert.True(t, w.resets.Cleared(model.ForecastIncome, "company-a"))
	assert.False(t, w.resets.Cleared(model.ForecastExpense, "company-a"))
}

func TestWriterRevenueForecastAlias(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	job := db.MustCreateJob("[]")
	f := normalize(t, model.RecordTypeRevenueForecast, map[string]any{
		"company_id":   "company-b",
		"cash_in_date": "2025-08-15",
		"amount":       42,
	})
	assert.Equal(t, model.RecordTypeIncomeForecast, f.RecordType())

	_, err := NewWriter(db.Storage, job.ID).Persist(ctx, f, false)
	require.NoError(t, err)

	rows, err := db.Storage.ListForecasts(ctx, model.ForecastIncome, "company-b")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriterExpenseIsAlwaysInserted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	payload := map[string]any{
		"company_id": "company-a",
		"month":      "2025-02",
		"amount":     300,
		"category":   "Rent",
	}
	for i := 0; i < 2; i++ {
		job := db.MustCreateJob("[]")
		_, err := NewWriter(db.Storage, job.ID).Persist(ctx, normalize(t, model.RecordTypeExpense, payload), false)
		require.NoError(t, err)
	}

	rows, err := db.Storage.ListExpenseRecords(ctx, "company-a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-02-01", rows[0].Month.Format("2006-01-02"))
}

func TestWriterOverwriteReplacesChangedAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	first := db.MustCreateJob("[]")
	id, err := NewWriter(db.Storage, first.ID).Persist(ctx, normalize(t, model.RecordTypeRevenue, revenuePayload(123456.78)), false)
	require.NoError(t, err)

	second := db.MustCreateJob("[]")
	got, err := NewWriter(db.Storage, second.ID).Persist(ctx, normalize(t, model.RecordTypeRevenue, revenuePayload(999999.0)), true)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	details, err := db.Storage.ListRevenueDetails(ctx, "company-a")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "999999.00", details[0].Amount.StringFixed(2))
}

func TestWriterExpenseForecastUsesExpenseTree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	job := db.MustCreateJob("[]")
	f := normalize(t, model.RecordTypeExpenseForecast, map[string]any{
		"company_id":      "company-a",
		"cash_out_date":   "2025-09-01",
		"expected_amount": 800,
		"category_path":   []any{"办公费用", "房租"},
	})
	_, err := NewWriter(db.Storage, job.ID).Persist(ctx, f, false)
	require.NoError(t, err)

	expense, err := db.Storage.GetCategories(ctx, model.CategoryTypeExpense)
	require.NoError(t, err)
	assert.Len(t, expense, 2)

	forecast, err := db.Storage.GetCategories(ctx, model.CategoryTypeForecast)
	require.NoError(t, err)
	assert.Empty(t, forecast)

	rows, err := db.Storage.ListForecasts(ctx, model.ForecastExpense, "company-a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].CategoryID)
	leaf, err := db.Storage.GetCategoryByPath(ctx, model.CategoryTypeExpense, "办公费用/房租")
	require.NoError(t, err)
	require.NotNil(t, leaf)
	assert.Equal(t, leaf.ID, *rows[0].CategoryID)
}

func TestWriterForecastConflictReportsSubmittedType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	payload := map[string]any{
		"company_id":   "company-b",
		"cash_in_date": "2025-08-15",
		"amount":       42,
	}
	first := db.MustCreateJob("[]")
	_, err := NewWriter(db.Storage, first.ID).Persist(ctx, normalize(t, model.RecordTypeRevenueForecast, payload), false)
	require.NoError(t, err)

	second := db.MustCreateJob("[]")
	w := NewWriter(db.Storage, second.ID)
	// The company's forecast was already reset earlier in this call.
	w.resets.cleared[model.ForecastIncome] = map[string]bool{"company-b": true}
	_, err = w.Persist(ctx, normalize(t, model.RecordTypeRevenueForecast, payload), false)
	require.Error(t, err)

	var dup *DuplicateRecordError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, model.RecordTypeRevenueForecast, dup.RecordType)
	assert.Equal(t, "2025-08-15", dup.Conflict["cashInDate"])

	_, err = w.Persist(ctx, normalize(t, model.RecordTypeIncomeForecast, payload), false)
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, model.RecordTypeIncomeForecast, dup.RecordType)
}

func TestResolveCompanyAvoidsTakenName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	placeholder, err := ResolveCompany(ctx, db.Storage, "")
	require.NoError(t, err)
	require.Equal(t, PlaceholderCompanyID, placeholder)

	id, err := ResolveCompany(ctx, db.Storage, PlaceholderCompanyName)
	require.NoError(t, err)
	assert.Equal(t, PlaceholderCompanyName, id)

	company, err := db.Storage.GetCompany(ctx, PlaceholderCompanyName)
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, PlaceholderCompanyName+" (2)", company.Name)
	assert.Equal(t, PlaceholderCompanyName, company.DisplayName)

	again, err := ResolveCompany(ctx, db.Storage, PlaceholderCompanyName)
	require.NoError(t, err)
	assert.Equal(t, PlaceholderCompanyName, again)
}
