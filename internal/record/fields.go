package record

import (
	"strings"
	"time"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
)

// Fields is the normalized form of a candidate payload. The concrete type
// is one of *AccountBalanceFields, *RevenueFields, *ExpenseFields or *ForecastFields.
type Fields interface {
	RecordType() model.RecordType
	Shared() *Common
	isFields()
}

// Common holds the fields every record type accepts.
// An empty CompanyID means the payload named no company.
type Common struct {
	Currency   *string
	Notes      *string
	Confidence *float64
	CompanyID  string
}

// Shared exposes the common block for in-place updates.
func (c *Common) Shared() *Common { return c }

// CurrencyOr returns the payload currency or fallback.
func (c *Common) CurrencyOr(fallback string) string {
	if c.Currency != nil {
		return *c.Currency
	}
	return fallback
}

// Category is the category reference of a payload before resolution.
// Names is the cleaned path, root first; it is empty when the payload names no category.
type Category struct {
	PathText    *string
	Label       *string
	Subcategory *string
	Names       []string
}

// ResolvedPathText is the "/"-joined path, or the payload's own path text when no names were given.
func (c *Category) ResolvedPathText() *string {
	if len(c.Names) > 0 {
		text := strings.Join(c.Names, "/")
		return &text
	}
	return c.PathText
}

// Leaf returns the deepest category name, or nil.
func (c *Category) Leaf() *string {
	if len(c.Names) == 0 {
		return nil
	}
	leaf := c.Names[len(c.Names)-1]
	return &leaf
}

// LabelOrLeaf is the label stored with a ledger row.
func (c *Category) LabelOrLeaf() *string {
	if c.Label != nil {
		return c.Label
	}
	return c.Leaf()
}

// AccountBalanceFields is a normalized account_balance payload.
// Nil balances were not provided and must not overwrite stored values.
type AccountBalanceFields struct {
	ReportedAt        time.Time
	CashBalance       *decimal.Decimal
	InvestmentBalance *decimal.Decimal
	TotalBalance      *decimal.Decimal
	Common
}

// RevenueFields is a normalized revenue payload.
type RevenueFields struct {
	OccurredOn  time.Time
	Description *string
	AccountName *string
	Category
	Common
	Amount decimal.Decimal
}

// ExpenseFields is a normalized expense payload.
type ExpenseFields struct {
	Month       time.Time
	Description *string
	AccountName *string
	Category
	Common
	Amount decimal.Decimal
}

// ForecastFields is a normalized income or expense forecast payload.
type ForecastFields struct {
	CashDate       time.Time
	Description    *string
	AccountName    *string
	ProductLine    *string
	ProductName    *string
	Category
	Common
	ExpectedAmount decimal.Decimal
	Direction      model.ForecastDirection
	Certainty      model.Certainty
	// Submitted is the record type as the caller sent it, before alias folding.
	Submitted      model.RecordType
}

func (*AccountBalanceFields) RecordType() model.RecordType { return model.RecordTypeAccountBalance }
func (*RevenueFields) RecordType() model.RecordType        { return model.RecordTypeRevenue }
func (*ExpenseFields) RecordType() model.RecordType        { return model.RecordTypeExpense }

// SubmittedType returns the caller's record type, falling back to the
// canonical one when Submitted is unset.
func (f *ForecastFields) SubmittedType() model.RecordType {
	if f.Submitted != "" {
		return f.Submitted
	}
	return f.RecordType()
}

func (f *ForecastFields) RecordType() model.RecordType {
	if f.Direction == model.ForecastExpense {
		return model.RecordTypeExpenseForecast
	}
	return model.RecordTypeIncomeForecast
}

func (*AccountBalanceFields) isFields() {}
func (*RevenueFields) isFields()        {}
func (*ExpenseFields) isFields()        {}
func (*ForecastFields) isFields()       {}
