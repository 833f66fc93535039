package plaid

import (
	"context"
	"time"
)

// MockClient is a Fetcher whose behavior tests control.
type MockClient struct {
	GetBalancesFn     func(ctx context.Context) ([]Account, error)
	GetTransactionsFn func(ctx context.Context, startDate, endDate time.Time) ([]Transaction, error)

	// Call tracking
	GetTransactionsCalls []GetTransactionsCall
	GetBalancesCalls     int
}

// GetTransactionsCall records the parameters of a GetTransactions call.
type GetTransactionsCall struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{
		GetTransactionsCalls: []GetTransactionsCall{},
	}
}

// GetBalances implements Fetcher.
func (m *MockClient) GetBalances(ctx context.Context) ([]Account, error) {
	m.GetBalancesCalls++

	if m.GetBalancesFn != nil {
		return m.GetBalancesFn(ctx)
	}
	return []Account{}, nil
}

// GetTransactions implements Fetcher.
func (m *MockClient) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]Transaction, error) {
	m.GetTransactionsCalls = append(m.GetTransactionsCalls, GetTransactionsCall{
		StartDate: startDate,
		EndDate:   endDate,
	})

	if m.GetTransactionsFn != nil {
		return m.GetTransactionsFn(ctx, startDate, endDate)
	}
	return []Transaction{}, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.GetTransactionsCalls = []GetTransactionsCall{}
	m.GetBalancesCalls = 0
}

var _ Fetcher = (*MockClient)(nil)
