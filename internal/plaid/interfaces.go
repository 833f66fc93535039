package plaid

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Account is the balance of one linked account.
type Account struct {
	ID       string
	Name     string
	Mask     string
	Type     string
	Currency string
	Current  decimal.Decimal
}

// Transaction is a posted transaction. Plaid reports money leaving the
// account as positive amounts, so incoming funds are negative.
type Transaction struct {
	Date         time.Time
	ID           string
	AccountID    string
	Name         string
	MerchantName string
	Currency     string
	Category     []string
	Amount       decimal.Decimal
}

// Fetcher defines the contract for pulling account data.
// This interface allows for easy mocking in tests.
type Fetcher interface {
	GetBalances(ctx context.Context) ([]Account, error)
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]Transaction, error)
}
