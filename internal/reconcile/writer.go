package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cchome2024/FinanceSync/internal/category"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/record"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/shopspring/decimal"
)

// Store is the storage a Writer needs. service.Transaction satisfies it.
type Store interface {
	category.Store
	CompanyStore
	ForecastStore

	FindAccountBalance(ctx context.Context, companyID string, reportedAt time.Time) (*model.AccountBalance, error)
	CreateAccountBalance(ctx context.Context, balance *model.AccountBalance) error
	UpdateAccountBalance(ctx context.Context, balance *model.AccountBalance) error

	FindRevenueDetail(ctx context.Context, match service.LedgerMatch) (*model.RevenueDetail, error)
	CreateRevenueDetail(ctx context.Context, detail *model.RevenueDetail) error
	UpdateRevenueDetail(ctx context.Context, detail *model.RevenueDetail) error

	CreateExpenseRecord(ctx context.Context, record *model.ExpenseRecord) error

	FindForecast(ctx context.Context, direction model.ForecastDirection, match service.LedgerMatch) (*model.Forecast, error)
	CreateForecast(ctx context.Context, forecast *model.Forecast) error
	UpdateForecast(ctx context.Context, forecast *model.Forecast) error
}

// Writer persists normalized records on behalf of one import job.
// A Writer carries per-call state and must not be reused across calls.
type Writer struct {
	store  Store
	resets *ForecastResets
	jobID  string
}

// NewWriter returns a Writer that attributes rows to jobID.
func NewWriter(store Store, jobID string) *Writer {
	return &Writer{
		store:  store,
		jobID:  jobID,
		resets: NewForecastResets(),
	}
}

// Persist writes f to its ledger table and returns the row id. When f
// matches an existing row, Persist overwrites it if overwrite is set and
// returns a *DuplicateRecordError otherwise. An overwrite that finds no exact
// match replaces the row with the same key apart from the amount, if any. The company and category
// fields of f are updated in place with their resolved values.
func (w *Writer) Persist(ctx context.Context, f record.Fields, overwrite bool) (string, error) {
	companyID, err := ResolveCompany(ctx, w.store, f.Shared().CompanyID)
	if err != nil {
		return "", err
	}
	f.Shared().CompanyID = companyID

	switch v := f.(type) {
	case *record.AccountBalanceFields:
		return w.persistAccountBalance(ctx, v, overwrite)
	case *record.RevenueFields:
		return w.persistRevenue(ctx, v, overwrite)
	case *record.ExpenseFields:
		return w.persistExpense(ctx, v)
	case *record.ForecastFields:
		return w.persistForecast(ctx, v, overwrite)
	default:
		return "", fmt.Errorf("unsupported record fields %T", f)
	}
}

func (w *Writer) persistAccountBalance(ctx context.Context, f *record.AccountBalanceFields, overwrite bool) (string, error) {
	existing, err := w.store.FindAccountBalance(ctx, f.CompanyID, f.ReportedAt)
	if err != nil {
		return "", err
	}

	if existing != nil {
		if !overwrite {
			return "", &DuplicateRecordError{
				RecordType: model.RecordTypeAccountBalance,
				Conflict: Conflict{
					"companyId":  f.CompanyID,
					"reportedAt": f.ReportedAt.Format(time.RFC3339),
				},
			}
		}
		existing.ImportJobID = w.jobRef()
		existing.CashBalance = decimalOr(f.CashBalance, existing.CashBalance)
		existing.InvestmentBalance = decimalOr(f.InvestmentBalance, existing.InvestmentBalance)
		existing.TotalBalance = decimalOr(f.TotalBalance, existing.TotalBalance)
		existing.Currency = f.CurrencyOr(existing.Currency)
		existing.Notes = stringOr(f.Notes, existing.Notes)
		if err := w.store.UpdateAccountBalance(ctx, existing); err != nil {
			return "", err
		}
		slog.Info("overwrote account balance", "id", existing.ID, "company_id", f.CompanyID, "job_id", w.jobID)
		return existing.ID, nil
	}

	balance := &model.AccountBalance{
		CompanyID:         f.CompanyID,
		ImportJobID:       w.jobRef(),
		ReportedAt:        f.ReportedAt,
		CashBalance:       decimalOr(f.CashBalance, decimal.Zero),
		InvestmentBalance: decimalOr(f.InvestmentBalance, decimal.Zero),
		TotalBalance:      decimalOr(f.TotalBalance, decimal.Zero),
		Currency:          f.CurrencyOr(model.DefaultCurrency),
		Notes:             f.Notes,
	}
	if err := w.store.CreateAccountBalance(ctx, balance); err != nil {
		return "", err
	}
	return balance.ID, nil
}

func (w *Writer) persistRevenue(ctx context.Context, f *record.RevenueFields, overwrite bool) (string, error) {
	link, err := w.resolveCategory(ctx, model.CategoryTypeRevenue, &f.Category)
	if err != nil {
		return "", err
	}

	match := w.match(f.CompanyID, f.OccurredOn, f.Amount, link, f.Description, f.AccountName)
	existing, err := w.store.FindRevenueDetail(ctx, match)
	if err != nil {
		return "", err
	}
	if existing == nil && overwrite {
		match.IgnoreAmount = true
		if existing, err = w.store.FindRevenueDetail(ctx, match); err != nil {
			return "", err
		}
	}

	if existing != nil {
		if !overwrite {
			return "", &DuplicateRecordError{
				RecordType: model.RecordTypeRevenue,
				Conflict:   ledgerConflict("occurredOn", f.CompanyID, f.OccurredOn, &f.Category, link, f.Description, f.AccountName, f.Amount),
			}
		}
		existing.ImportJobID = w.jobRef()
		existing.CategoryLink = mergeLink(link, existing.CategoryLink)
		existing.Amount = f.Amount
		existing.Currency = f.CurrencyOr(existing.Currency)
		existing.Description = f.Description
		existing.AccountName = f.AccountName
		existing.Confidence = floatOr(f.Confidence, existing.Confidence)
		existing.Notes = stringOr(f.Notes, existing.Notes)
		if err := w.store.UpdateRevenueDetail(ctx, existing); err != nil {
			return "", err
		}
		slog.Info("overwrote revenue detail", "id", existing.ID, "company_id", f.CompanyID, "job_id", w.jobID)
		return existing.ID, nil
	}

	detail := &model.RevenueDetail{
		CompanyID:    f.CompanyID,
		ImportJobID:  w.jobRef(),
		OccurredOn:   f.OccurredOn,
		Amount:       f.Amount,
		Currency:     f.CurrencyOr(model.DefaultCurrency),
		Description:  f.Description,
		AccountName:  f.AccountName,
		CategoryLink: link,
		Confidence:   f.Confidence,
		Notes:        f.Notes,
	}
	if err := w.store.CreateRevenueDetail(ctx, detail); err != nil {
		return "", err
	}
	return detail.ID, nil
}

func (w *Writer) persistExpense(ctx context.Context, f *record.ExpenseFields) (string, error) {
	link, err := w.resolveCategory(ctx, model.CategoryTypeExpense, &f.Category)
	if err != nil {
		return "", err
	}

	rec := &model.ExpenseRecord{
		CompanyID:    f.CompanyID,
		ImportJobID:  w.jobRef(),
		Month:        f.Month,
		Amount:       f.Amount,
		Currency:     f.CurrencyOr(model.DefaultCurrency),
		Description:  f.Description,
		AccountName:  f.AccountName,
		CategoryLink: link,
		Confidence:   f.Confidence,
		Notes:        f.Notes,
	}
	if err := w.store.CreateExpenseRecord(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (w *Writer) persistForecast(ctx context.Context, f *record.ForecastFields, overwrite bool) (string, error) {
	categoryType, _ := f.RecordType().CategoryType()
	link, err := w.resolveCategory(ctx, categoryType, &f.Category)
	if err != nil {
		return "", err
	}
	if err := w.resets.Ensure(ctx, w.store, f.Direction, f.CompanyID); err != nil {
		return "", err
	}

	match := w.match(f.CompanyID, f.CashDate, f.ExpectedAmount, link, f.Description, f.AccountName)
	existing, err := w.store.FindForecast(ctx, f.Direction, match)
	if err != nil {
		return "", err
	}
	if existing == nil && overwrite {
		match.IgnoreAmount = true
		if existing, err = w.store.FindForecast(ctx, f.Direction, match); err != nil {
			return "", err
		}
	}

	if existing != nil {
		if !overwrite {
			dateKey := "cashInDate"
			if f.Direction == model.ForecastExpense {
				dateKey = "cashOutDate"
			}
			return "", &DuplicateRecordError{
				RecordType: f.SubmittedType(),
				Conflict:   ledgerConflict(dateKey, f.CompanyID, f.CashDate, &f.Category, link, f.Description, f.AccountName, f.ExpectedAmount),
			}
		}
		existing.ImportJobID = w.jobRef()
		existing.CategoryLink = mergeLink(link, existing.CategoryLink)
		existing.ExpectedAmount = f.ExpectedAmount
		existing.Currency = f.CurrencyOr(existing.Currency)
		existing.Certainty = f.Certainty
		existing.Description = f.Description
		existing.AccountName = f.AccountName
		existing.ProductLine = stringOr(f.ProductLine, existing.ProductLine)
		existing.ProductName = stringOr(f.ProductName, existing.ProductName)
		existing.Confidence = floatOr(f.Confidence, existing.Confidence)
		existing.Notes = stringOr(f.Notes, existing.Notes)
		if err := w.store.UpdateForecast(ctx, existing); err != nil {
			return "", err
		}
		return existing.ID, nil
	}

	forecast := &model.Forecast{
		Direction:      f.Direction,
		CompanyID:      f.CompanyID,
		ImportJobID:    w.jobRef(),
		CashDate:       f.CashDate,
		ExpectedAmount: f.ExpectedAmount,
		Currency:       f.CurrencyOr(model.DefaultCurrency),
		Certainty:      f.Certainty,
		Description:    f.Description,
		AccountName:    f.AccountName,
		ProductLine:    f.ProductLine,
		ProductName:    f.ProductName,
		CategoryLink:   link,
		Confidence:     f.Confidence,
		Notes:          f.Notes,
	}
	if err := w.store.CreateForecast(ctx, forecast); err != nil {
		return "", err
	}
	return forecast.ID, nil
}

// resolveCategory creates the category path if needed and returns the link
// columns for the row. The label is the explicit category_label or the leaf.
func (w *Writer) resolveCategory(ctx context.Context, categoryType model.CategoryType, c *record.Category) (model.CategoryLink, error) {
	node, err := category.ResolveOrCreate(ctx, w.store, c.Names, categoryType)
	if err != nil {
		return model.CategoryLink{}, err
	}

	link := model.CategoryLink{
		CategoryPathText: c.ResolvedPathText(),
		CategoryLabel:    c.LabelOrLeaf(),
		SubcategoryLabel: c.Subcategory,
	}
	if node != nil {
		link.CategoryID = &node.ID
	}
	return link, nil
}

func (w *Writer) match(companyID string, date time.Time, amount decimal.Decimal, link model.CategoryLink, description, account *string) service.LedgerMatch {
	return service.LedgerMatch{
		CompanyID:        companyID,
		Date:             date,
		Amount:           amount,
		CategoryID:       link.CategoryID,
		CategoryPathText: link.CategoryPathText,
		Description:      description,
		AccountName:      account,
		ExcludeJobID:     w.jobID,
	}
}

func (w *Writer) jobRef() *string {
	if w.jobID == "" {
		return nil
	}
	id := w.jobID
	return &id
}

func ledgerConflict(dateKey, companyID string, date time.Time, c *record.Category, link model.CategoryLink, description, account *string, amount decimal.Decimal) Conflict {
	return Conflict{
		"companyId":     companyID,
		dateKey:         date.Format("2006-01-02"),
		"category":      deref(c.Leaf()),
		"categoryPath":  deref(link.CategoryPathText),
		"categoryLabel": deref(link.CategoryLabel),
		"subcategory":   deref(link.SubcategoryLabel),
		"description":   deref(description),
		"accountName":   deref(account),
		"amount":        amount.InexactFloat64(),
	}
}

// mergeLink keeps existing category columns where the new record has none.
func mergeLink(next, existing model.CategoryLink) model.CategoryLink {
	return model.CategoryLink{
		CategoryID:       stringOr(next.CategoryID, existing.CategoryID),
		CategoryPathText: stringOr(next.CategoryPathText, existing.CategoryPathText),
		CategoryLabel:    stringOr(next.CategoryLabel, existing.CategoryLabel),
		SubcategoryLabel: stringOr(next.SubcategoryLabel, existing.SubcategoryLabel),
	}
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringOr(v, fallback *string) *string {
	if v != nil {
		return v
	}
	return fallback
}

func floatOr(v, fallback *float64) *float64 {
	if v != nil {
		return v
	}
	return fallback
}

func decimalOr(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v != nil {
		return *v
	}
	return fallback
}
