package plaid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultLookback is how far back incoming payments are pulled.
const DefaultLookback = 30 * 24 * time.Hour

const incomeConfidence = 0.7

// Extractor turns a Plaid snapshot into candidate records: one aggregated
// account_balance plus a revenue candidate per incoming payment.
type Extractor struct {
	fetcher  Fetcher
	now      func() time.Time
	lookback time.Duration
}

// NewExtractor wraps f. A zero lookback uses DefaultLookback.
func NewExtractor(f Fetcher, lookback time.Duration) *Extractor {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Extractor{fetcher: f, lookback: lookback, now: time.Now}
}

// Name implements extract.Extractor.
func (e *Extractor) Name() string {
	return "plaid"
}

// Extract ignores its input; the data comes from the linked item.
func (e *Extractor) Extract(ctx context.Context, _ extract.Input) ([]model.CandidateRecord, error) {
	accounts, err := e.fetcher.GetBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balances: %w", err)
	}

	now := e.now().UTC().Truncate(time.Second)
	txns, err := e.fetcher.GetTransactions(ctx, now.Add(-e.lookback), now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	var records []model.CandidateRecord
	if balance, ok := balanceRecord(accounts, now); ok {
		records = append(records, balance)
	}

	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = accountLabel(a)
	}
	for _, t := range txns {
		if !t.Amount.IsNegative() {
			continue
		}
		records = append(records, revenueRecord(t, names[t.AccountID]))
	}
	return records, nil
}

// balanceRecord sums accounts sharing the first account's currency.
// Credit and loan balances are owed, so they do not count.
func balanceRecord(accounts []Account, at time.Time) (model.CandidateRecord, bool) {
	if len(accounts) == 0 {
		return model.CandidateRecord{}, false
	}

	currency := accounts[0].Currency
	cash := decimal.Zero
	investment := decimal.Zero
	var included []string
	var warnings []string
	for _, a := range accounts {
		if a.Currency != currency {
			warnings = append(warnings, fmt.Sprintf("skipped %s: currency %s", accountLabel(a), a.Currency))
			continue
		}
		switch a.Type {
		case "depository":
			cash = cash.Add(a.Current)
		case "investment", "brokerage":
			investment = investment.Add(a.Current)
		default:
			continue
		}
		included = append(included, accountLabel(a))
	}
	if len(included) == 0 {
		return model.CandidateRecord{}, false
	}

	payload := map[string]any{
		"reported_at":        at.Format(time.RFC3339),
		"cash_balance":       cash.StringFixed(2),
		"investment_balance": investment.StringFixed(2),
		"total_balance":      cash.Add(investment).StringFixed(2),
		"notes":              "Plaid balance: " + strings.Join(included, ", "),
	}
	if currency != "" {
		payload["currency"] = currency
	}
	confidence := 1.0
	return model.CandidateRecord{
		RecordType: model.RecordTypeAccountBalance,
		Payload:    payload,
		Confidence: &confidence,
		Warnings:   warnings,
	}, true
}

func revenueRecord(t Transaction, account string) model.CandidateRecord {
	description := t.MerchantName
	if description == "" {
		description = t.Name
	}
	payload := map[string]any{
		"occurred_on": t.Date.Format("2006-01-02"),
		"amount":      t.Amount.Neg().StringFixed(2),
		"description": description,
		"notes":       "plaid:" + t.ID,
	}
	if account != "" {
		payload["account_name"] = account
	}
	if t.Currency != "" {
		payload["currency"] = t.Currency
	}

	var warnings []string
	if len(t.Category) > 0 {
		path := make([]any, len(t.Category))
		for i, c := range t.Category {
			path[i] = c
		}
		payload["category_path"] = path
	} else {
		warnings = append(warnings, "category not assigned")
	}

	confidence := incomeConfidence
	return model.CandidateRecord{
		RecordType: model.RecordTypeRevenue,
		Payload:    payload,
		Confidence: &confidence,
		Warnings:   warnings,
	}
}

func accountLabel(a Account) string {
	if a.Mask == "" {
		return a.Name
	}
	return a.Name + " ****" + a.Mask
}

var _ extract.Extractor = (*Extractor)(nil)
