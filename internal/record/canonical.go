package record

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Canonical returns a copy of payload with the normalized values of f written
// under their canonical snake_case keys. Category path keys are replaced by
// category (the leaf) and category_path_text.
func Canonical(payload map[string]any, f Fields) map[string]any {
	out := make(map[string]any, len(payload)+4)
	for k, v := range payload {
		out[k] = v
	}
	for _, k := range consumedKeys {
		delete(out, k)
	}

	shared := f.Shared()
	if shared.CompanyID != "" {
		out["company_id"] = shared.CompanyID
	}

	recordType := f.RecordType()
	switch v := f.(type) {
	case *AccountBalanceFields:
		out[canonicalDateKey[recordType]] = v.ReportedAt.Format("2006-01-02T15:04:05Z07:00")
		setAmount(out, "cash_balance", v.CashBalance)
		setAmount(out, "investment_balance", v.InvestmentBalance)
		setAmount(out, "total_balance", v.TotalBalance)
	case *RevenueFields:
		out[canonicalDateKey[recordType]] = v.OccurredOn.Format("2006-01-02")
		setAmount(out, canonicalAmountKey[recordType], &v.Amount)
		setCategory(out, &v.Category)
	case *ExpenseFields:
		out[canonicalDateKey[recordType]] = v.Month.Format("2006-01-02")
		setAmount(out, canonicalAmountKey[recordType], &v.Amount)
		setCategory(out, &v.Category)
	case *ForecastFields:
		out[canonicalDateKey[recordType]] = v.CashDate.Format("2006-01-02")
		setAmount(out, canonicalAmountKey[recordType], &v.ExpectedAmount)
		out["certainty"] = string(v.Certainty)
		setCategory(out, &v.Category)
	}
	return out
}

func setAmount(out map[string]any, key string, d *decimal.Decimal) {
	if d == nil {
		return
	}
	out[key] = json.Number(d.StringFixed(2))
}

func setCategory(out map[string]any, c *Category) {
	if leaf := c.Leaf(); leaf != nil {
		out["category"] = *leaf
	}
	if text := c.ResolvedPathText(); text != nil {
		out["category_path_text"] = *text
	}
}
