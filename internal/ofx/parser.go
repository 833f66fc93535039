// Package ofx extracts balance and income candidates from OFX/QFX statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
)

// creditConfidence is attached to income lines, which still need a category from the reviewer.
const creditConfidence = 0.6

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements extract.Extractor for OFX/QFX files.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// IsStatement reports whether name looks like an OFX or QFX file.
func IsStatement(name string) bool {
	ext := (extract.File{Name: name}).Ext()
	return ext == "ofx" || ext == "qfx"
}

// Name implements extract.Extractor.
func (p *Parser) Name() string {
	return "ofx"
}

// Extract parses every OFX/QFX file in the input. Balances are summed
// across files by as-of time.
func (p *Parser) Extract(ctx context.Context, in extract.Input) ([]model.CandidateRecord, error) {
	balances := newBalanceSet()
	var credits []model.CandidateRecord
	var seen int
	for _, f := range in.Files {
		if !IsStatement(f.Name) {
			continue
		}
		seen++
		parsed, err := p.parse(ctx, strings.NewReader(string(f.Data)), balances)
		if err != nil {
			return nil, &extract.ParseError{Err: fmt.Errorf("%s: %w", f.Name, err), Raw: snippet(string(f.Data))}
		}
		credits = append(credits, parsed...)
	}
	if seen == 0 {
		return nil, &extract.ParseError{Err: fmt.Errorf("no OFX statement in input")}
	}
	return append(balances.records(), credits...), nil
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes drop the closing bracket of a bare opening tag.
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses one statement file. Ledger balances that share an as-of
// time are summed into one account_balance record; incoming transactions
// become revenue records.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.CandidateRecord, error) {
	balances := newBalanceSet()
	credits, err := p.parse(ctx, reader, balances)
	if err != nil {
		return nil, err
	}
	return append(balances.records(), credits...), nil
}

func (p *Parser) parse(ctx context.Context, reader io.Reader, balances *balanceSet) ([]model.CandidateRecord, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var credits []model.CandidateRecord
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		bankStmts++
		account := string(stmt.BankAcctFrom.AcctID)
		balances.add(stmt.DtAsOf.Time, ratToDecimal(stmt.BalAmt), currencyOf(stmt.CurDef), account)
		if stmt.BankTranList != nil {
			credits = append(credits, p.convertCredits(stmt.BankTranList.Transactions, account, currencyOf(stmt.CurDef))...)
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		ccStmts++
		account := string(stmt.CCAcctFrom.AcctID)
		balances.add(stmt.DtAsOf.Time, ratToDecimal(stmt.BalAmt), currencyOf(stmt.CurDef), account)
	}

	slog.Info("Parsed OFX file",
		"income_lines", len(credits),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return credits, nil
}

// convertCredits turns incoming bank transactions into revenue candidates.
func (p *Parser) convertCredits(txns []ofxgo.Transaction, account, currency string) []model.CandidateRecord {
	var records []model.CandidateRecord
	for _, tx := range txns {
		amount := ratToDecimal(tx.TrnAmt)
		if !amount.IsPositive() {
			continue
		}

		payload := map[string]any{
			"occurred_on":  tx.DtPosted.Time.Format("2006-01-02"),
			"amount":       amount.StringFixed(2),
			"account_name": account,
			"description":  p.extractMerchantName(tx),
			"notes":        "FITID " + string(tx.FiTID),
		}
		if currency != "" {
			payload["currency"] = currency
		}

		var warnings []string
		switch tx.TrnType {
		case ofxgo.TrnTypeInt, ofxgo.TrnTypeDiv:
			payload["category_path"] = []any{"Income", "Interest"}
		default:
			warnings = append(warnings, "category not assigned")
		}

		confidence := creditConfidence
		records = append(records, model.CandidateRecord{
			RecordType: model.RecordTypeRevenue,
			Payload:    payload,
			Confidence: &confidence,
			Warnings:   warnings,
		})
	}
	return records
}

// extractMerchantName tries to get a clean counterparty name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"ACH CREDIT ",
		"CHECK CARD ",
		"DEPOSIT FROM ",
		"WIRE FROM ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// "MM/DD " date prefix
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"DEPOSIT",
		"PAYMENT",
		"TRANSFER",
		"DIRECT DEPOSIT",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

type balanceEntry struct {
	asOf     time.Time
	total    decimal.Decimal
	currency string
	accounts []string
}

// balanceSet sums ledger balances by as-of time, since a company has one
// balance row per reported_at.
type balanceSet struct {
	byTime map[time.Time]*balanceEntry
}

func newBalanceSet() *balanceSet {
	return &balanceSet{byTime: make(map[time.Time]*balanceEntry)}
}

func (s *balanceSet) add(asOf time.Time, amount decimal.Decimal, currency, account string) {
	if asOf.IsZero() {
		return
	}
	asOf = asOf.UTC()
	entry, ok := s.byTime[asOf]
	if !ok {
		entry = &balanceEntry{asOf: asOf, currency: currency}
		s.byTime[asOf] = entry
	}
	entry.total = entry.total.Add(amount)
	entry.accounts = append(entry.accounts, account)
}

func (s *balanceSet) records() []model.CandidateRecord {
	entries := make([]*balanceEntry, 0, len(s.byTime))
	for _, e := range s.byTime {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].asOf.Before(entries[j].asOf) })

	records := make([]model.CandidateRecord, 0, len(entries))
	for _, e := range entries {
		payload := map[string]any{
			"reported_at":   e.asOf.Format(time.RFC3339),
			"cash_balance":  e.total.StringFixed(2),
			"total_balance": e.total.StringFixed(2),
			"notes":         "OFX ledger balance: " + strings.Join(e.accounts, ", "),
		}
		if e.currency != "" {
			payload["currency"] = e.currency
		}
		confidence := 1.0
		records = append(records, model.CandidateRecord{
			RecordType: model.RecordTypeAccountBalance,
			Payload:    payload,
			Confidence: &confidence,
		})
	}
	return records
}

func ratToDecimal(a ofxgo.Amount) decimal.Decimal {
	d, err := decimal.NewFromString(a.FloatString(2))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func currencyOf(c ofxgo.CurrSymbol) string {
	s := c.String()
	if s == "XXX" {
		return ""
	}
	return s
}

func snippet(s string) string {
	const limit = 4096
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
