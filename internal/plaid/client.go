// Package plaid pulls balances and incoming payments from the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("plaid client ID is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("plaid secret is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("plaid access token is required")
	}
	if c.Environment == "" {
		return fmt.Errorf("plaid environment is required")
	}
	if c.Environment != "sandbox" && c.Environment != "production" {
		return fmt.Errorf("invalid Plaid environment: must be sandbox or production")
	}
	return nil
}

// Client implements Fetcher against the Plaid API.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   service.RetryOptions
	accessToken string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMissingConfig, err)
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetBalances fetches real-time balances of every linked account.
func (c *Client) GetBalances(ctx context.Context) ([]Account, error) {
	c.logger.Info("Fetching balances from Plaid")

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsBalanceGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsBalanceGet(ctx).AccountsBalanceGetRequest(*request).Execute()
		if err != nil {
			return c.classifyError(err, "failed to fetch balances")
		}
		accounts = resp.GetAccounts()
		return nil
	}, c.retryOpts)
	if retryErr != nil {
		return nil, retryErr
	}

	result := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		balances := a.GetBalances()
		result = append(result, Account{
			ID:       a.GetAccountId(),
			Name:     a.GetName(),
			Mask:     a.GetMask(),
			Type:     string(a.GetType()),
			Currency: balances.GetIsoCurrencyCode(),
			Current:  decimal.NewFromFloat(balances.GetCurrent()).Round(2),
		})
	}

	c.logger.Info("Fetched balances", "accounts", len(result))
	return result, nil
}

// GetTransactions fetches transactions from Plaid within the specified date range.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]Transaction, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	var all []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	for {
		var page []plaid.Transaction

		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				startDate.Format("2006-01-02"),
				endDate.Format("2006-01-02"),
			)
			request.SetOptions(plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			})

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				return c.classifyError(err, "failed to fetch transactions")
			}

			page = resp.GetTransactions()
			c.logger.Debug("Fetched transaction batch",
				"count", len(page),
				"offset", offset,
				"total", resp.GetTotalTransactions())
			return nil
		}, c.retryOpts)
		if retryErr != nil {
			return nil, retryErr
		}

		all = append(all, page...)
		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	c.logger.Info("Fetched all transactions", "count", len(all))

	transactions := make([]Transaction, 0, len(all))
	for _, pt := range all {
		transactions = append(transactions, c.mapPlaidTransaction(pt))
	}
	return transactions, nil
}

// classifyError marks rate limits as retryable.
func (c *Client) classifyError(err error, what string) error {
	if plaidError := extractPlaidError(err); plaidError != nil {
		if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
			c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
			return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidError.ErrorMessage), Retryable: true}
		}
		return fmt.Errorf("%w: %s - %s", common.ErrPlaidConnection, plaidError.ErrorCode, plaidError.ErrorMessage)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// mapPlaidTransaction converts a Plaid transaction to our internal type.
func (c *Client) mapPlaidTransaction(pt plaid.Transaction) Transaction {
	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		c.logger.Error("Failed to parse transaction date", "date", pt.GetDate(), "error", err)
	}

	merchantName := pt.GetMerchantName()
	if merchantName == "" {
		merchantName = pt.GetName()
	}

	return Transaction{
		Date:         date,
		ID:           pt.GetTransactionId(),
		AccountID:    pt.GetAccountId(),
		Name:         pt.GetName(),
		MerchantName: cleanMerchantName(merchantName),
		Currency:     pt.GetIsoCurrencyCode(),
		Category:     pt.GetCategory(),
		Amount:       decimal.NewFromFloat(pt.GetAmount()).Round(2),
	}
}

// cleanMerchantName standardizes merchant names by removing common suffixes and normalizing format.
func cleanMerchantName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		runes := []rune(word)
		for j := range runes {
			if j == 0 || !isLetter(runes[j-1]) {
				runes[j] = toUpper(runes[j])
			}
		}
		words[i] = string(runes)
	}

	// A trailing run of more than five digits is a transaction reference.
	if len(words) > 1 {
		last := words[len(words)-1]
		if len(last) > 5 && isAllDigits(last) {
			words = words[:len(words)-1]
		}
	}
	name = strings.Join(words, " ")

	suffixes := []string{
		" Llc",
		" Inc",
		" Corp",
		" Corporation",
		" Company",
		" Co",
		" Ltd",
		" Limited",
	}

	changed := true
	for changed {
		changed = false
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				changed = true
			}
		}
	}

	return strings.TrimSpace(name)
}

// isAllDigits checks if a string contains only digits.
func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

var _ Fetcher = (*Client)(nil)
