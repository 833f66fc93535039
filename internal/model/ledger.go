package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied when a payload names none.
const DefaultCurrency = "CNY"

// Company owns every ledger row.
type Company struct {
	ID          string
	Name        string
	DisplayName string
	Currency    string
}

// Certainty grades a forecast.
type Certainty string

const (
	CertaintyCertain   Certainty = "certain"
	CertaintyUncertain Certainty = "uncertain"
)

// Valid reports whether c is a known certainty level.
func (c Certainty) Valid() bool {
	return c == CertaintyCertain || c == CertaintyUncertain
}

// ForecastDirection selects the income or expense forecast table.
type ForecastDirection string

const (
	ForecastIncome  ForecastDirection = "income"
	ForecastExpense ForecastDirection = "expense"
)

// CategoryLink is the category reference shared by categorized ledger rows.
// CategoryID may be nil while CategoryPathText still carries the flat text.
type CategoryLink struct {
	CategoryID       *string
	CategoryPathText *string
	CategoryLabel    *string
	SubcategoryLabel *string
}

// AccountBalance is a point-in-time balance snapshot for a company.
type AccountBalance struct {
	ReportedAt        time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ImportJobID       *string
	Notes             *string
	CashBalance       decimal.Decimal
	InvestmentBalance decimal.Decimal
	TotalBalance      decimal.Decimal
	ID                string
	CompanyID         string
	Currency          string
}

// RevenueDetail is one dated revenue line.
type RevenueDetail struct {
	OccurredOn  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ImportJobID *string
	Description *string
	AccountName *string
	Confidence  *float64
	Notes       *string
	CategoryLink
	Amount    decimal.Decimal
	ID        string
	CompanyID string
	Currency  string
}

// ExpenseRecord is a monthly expense line. Expense records have no natural key.
type ExpenseRecord struct {
	Month       time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ImportJobID *string
	Description *string
	AccountName *string
	Confidence  *float64
	Notes       *string
	CategoryLink
	Amount    decimal.Decimal
	ID        string
	CompanyID string
	Currency  string
}

// Forecast is an expected cash-in or cash-out. Direction picks the table.
type Forecast struct {
	CashDate       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ImportJobID    *string
	Description    *string
	AccountName    *string
	ProductLine    *string
	ProductName    *string
	Confidence     *float64
	Notes          *string
	CategoryLink
	ExpectedAmount decimal.Decimal
	ID             string
	CompanyID      string
	Currency       string
	Certainty      Certainty
	Direction      ForecastDirection
}
