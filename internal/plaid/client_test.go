package plaid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		ClientID:    "test-client-id",
		Secret:      "test-secret",
		Environment: "sandbox",
		AccessToken: "test-token",
	}

	tests := []struct {
		mutate  func(c *Config)
		name    string
		errMsg  string
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "production", mutate: func(c *Config) { c.Environment = "production" }},
		{name: "missing client ID", mutate: func(c *Config) { c.ClientID = "" }, wantErr: true, errMsg: "plaid client ID is required"},
		{name: "missing secret", mutate: func(c *Config) { c.Secret = "" }, wantErr: true, errMsg: "plaid secret is required"},
		{name: "missing access token", mutate: func(c *Config) { c.AccessToken = "" }, wantErr: true, errMsg: "plaid access token is required"},
		{name: "missing environment", mutate: func(c *Config) { c.Environment = "" }, wantErr: true, errMsg: "plaid environment is required"},
		{name: "invalid environment", mutate: func(c *Config) { c.Environment = "development" }, wantErr: true, errMsg: "invalid Plaid environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{ClientID: "id"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingConfig))

	client, err := NewClient(Config{
		ClientID:    "test-client-id",
		Secret:      "test-secret",
		Environment: "sandbox",
		AccessToken: "test-token",
	})
	require.NoError(t, err)
	assert.NotNil(t, client.client)
	assert.Equal(t, "test-token", client.accessToken)
	assert.Equal(t, 3, client.retryOpts.MaxAttempts)
}

func TestCleanMerchantName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ACME TRADING LLC", "Acme Trading"},
		{"shanghai data co", "Shanghai Data"},
		{"STRIPE TRANSFER 12345678", "Stripe Transfer"},
		{"Globex Corp Inc", "Globex"},
		{"  whitespace   test  ", "Whitespace Test"},
		{"store 42", "Store 42"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMerchantName(tt.input))
		})
	}
}

func TestIsAllDigits(t *testing.T) {
	assert.True(t, isAllDigits("123456"))
	assert.True(t, isAllDigits(""))
	assert.False(t, isAllDigits("12a456"))
	assert.False(t, isAllDigits("-1"))
}

func TestMockClient(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()

	accounts, err := mock.GetBalances(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.Equal(t, 1, mock.GetBalancesCalls)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	_, err = mock.GetTransactions(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, mock.GetTransactionsCalls, 1)
	assert.Equal(t, start, mock.GetTransactionsCalls[0].StartDate)

	mock.GetBalancesFn = func(context.Context) ([]Account, error) {
		return nil, errors.New("boom")
	}
	_, err = mock.GetBalances(ctx)
	assert.Error(t, err)

	mock.Reset()
	assert.Empty(t, mock.GetTransactionsCalls)
	assert.Zero(t, mock.GetBalancesCalls)
}

func TestExtractor(t *testing.T) {
	now := time.Date(2024, 3, 15, 8, 30, 45, 999, time.UTC)

	mock := NewMockClient()
	mock.GetBalancesFn = func(context.Context) ([]Account, error) {
		return []Account{
			{ID: "a1", Name: "Checking", Mask: "0001", Type: "depository", Currency: "USD", Current: decimal.RequireFromString("1000.50")},
			{ID: "a2", Name: "Savings", Type: "depository", Currency: "USD", Current: decimal.RequireFromString("200.00")},
			{ID: "a3", Name: "Brokerage", Type: "investment", Currency: "USD", Current: decimal.RequireFromString("5000.00")},
			{ID: "a4", Name: "Card", Type: "credit", Currency: "USD", Current: decimal.RequireFromString("300.00")},
			{ID: "a5", Name: "HK", Type: "depository", Currency: "HKD", Current: decimal.RequireFromString("9.00")},
		}, nil
	}
	mock.GetTransactionsFn = func(context.Context, time.Time, time.Time) ([]Transaction, error) {
		return []Transaction{
			{
				ID: "t1", AccountID: "a1", Name: "ACME PAYMENT", MerchantName: "Acme",
				Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Currency: "USD",
				Category: []string{"Transfer", "Deposit"}, Amount: decimal.RequireFromString("-1500.00"),
			},
			{
				ID: "t2", AccountID: "a1", Name: "COFFEE",
				Date: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("4.50"),
			},
		}, nil
	}

	e := NewExtractor(mock, 0)
	e.now = func() time.Time { return now }
	assert.Equal(t, "plaid", e.Name())

	records, err := e.Extract(context.Background(), extract.Input{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Len(t, mock.GetTransactionsCalls, 1)
	assert.Equal(t, now.Truncate(time.Second).Add(-DefaultLookback), mock.GetTransactionsCalls[0].StartDate)

	balance := records[0]
	assert.Equal(t, model.RecordTypeAccountBalance, balance.RecordType)
	assert.Equal(t, "2024-03-15T08:30:45Z", balance.Payload["reported_at"])
	assert.Equal(t, "1200.50", balance.Payload["cash_balance"])
	assert.Equal(t, "5000.00", balance.Payload["investment_balance"])
	assert.Equal(t, "6200.50", balance.Payload["total_balance"])
	assert.Equal(t, "USD", balance.Payload["currency"])
	assert.Equal(t, "Plaid balance: Checking ****0001, Savings, Brokerage", balance.Payload["notes"])
	require.Len(t, balance.Warnings, 1)
	assert.Contains(t, balance.Warnings[0], "HKD")

	revenue := records[1]
	assert.Equal(t, model.RecordTypeRevenue, revenue.RecordType)
	assert.Equal(t, "2024-03-10", revenue.Payload["occurred_on"])
	assert.Equal(t, "1500.00", revenue.Payload["amount"])
	assert.Equal(t, "Acme", revenue.Payload["description"])
	assert.Equal(t, "Checking ****0001", revenue.Payload["account_name"])
	assert.Equal(t, []any{"Transfer", "Deposit"}, revenue.Payload["category_path"])
	assert.Equal(t, "plaid:t1", revenue.Payload["notes"])
	assert.Empty(t, revenue.Warnings)
}

func TestExtractor_Errors(t *testing.T) {
	mock := NewMockClient()
	mock.GetBalancesFn = func(context.Context) ([]Account, error) {
		return nil, common.ErrPlaidConnection
	}
	_, err := NewExtractor(mock, time.Hour).Extract(context.Background(), extract.Input{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPlaidConnection))

	mock = NewMockClient()
	records, err := NewExtractor(mock, time.Hour).Extract(context.Background(), extract.Input{})
	require.NoError(t, err)
	assert.Empty(t, records)
}
