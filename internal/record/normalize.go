package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
)

// Normalize classifies payload as recordType and extracts its typed fields.
// It fails with common.ErrValidation when the type is unknown or a required
// date or amount is missing or unparsable. The payload is not modified.
func Normalize(recordType model.RecordType, payload map[string]any) (Fields, error) {
	if !recordType.Valid() {
		return nil, common.NewValidationError("recordType", fmt.Sprintf("unsupported record type %q", recordType))
	}
	canonical := recordType.Canonical()

	shared, err := normalizeCommon(payload)
	if err != nil {
		return nil, err
	}

	switch canonical {
	case model.RecordTypeAccountBalance:
		return normalizeAccountBalance(payload, shared)
	case model.RecordTypeRevenue:
		date, amount, err := requiredDateAndAmount(canonical, payload, parseDate)
		if err != nil {
			return nil, err
		}
		return &RevenueFields{
			Common:      shared,
			Category:    normalizeCategory(canonical, payload),
			OccurredOn:  date,
			Amount:      amount,
			Description: optionalString(payload, descriptionKeys),
			AccountName: optionalString(payload, accountKeys),
		}, nil
	case model.RecordTypeExpense:
		date, amount, err := requiredDateAndAmount(canonical, payload, parseMonth)
		if err != nil {
			return nil, err
		}
		return &ExpenseFields{
			Common:      shared,
			Category:    normalizeCategory(canonical, payload),
			Month:       date,
			Amount:      amount,
			Description: optionalString(payload, descriptionKeys),
			AccountName: optionalString(payload, accountKeys),
		}, nil
	default:
		return normalizeForecast(canonical, recordType, payload, shared)
	}
}

func normalizeCommon(payload map[string]any) (Common, error) {
	var c Common
	if id := optionalString(payload, companyKeys); id != nil {
		c.CompanyID = *id
	}
	c.Currency = optionalString(payload, currencyKeys)
	c.Notes = optionalString(payload, notesKeys)

	if raw, key, ok := lookup(payload, confidenceKeys); ok {
		amount, err := parseAmount(raw)
		if err != nil {
			return c, common.NewValidationError(key, err.Error())
		}
		f := amount.InexactFloat64()
		c.Confidence = &f
	}
	return c, nil
}

func normalizeAccountBalance(payload map[string]any, shared Common) (Fields, error) {
	keys := dateKeys[model.RecordTypeAccountBalance]
	raw, key, ok := lookup(payload, keys)
	if !ok {
		return nil, common.NewValidationError(keys[0], "missing date")
	}
	reportedAt, err := parseTimestamp(raw)
	if err != nil {
		return nil, common.NewValidationError(key, err.Error())
	}

	f := &AccountBalanceFields{Common: shared, ReportedAt: reportedAt}
	for _, target := range []struct {
		dest **decimal.Decimal
		keys []string
	}{
		{&f.CashBalance, cashBalanceKeys},
		{&f.InvestmentBalance, investmentKeys},
		{&f.TotalBalance, totalBalanceKeys},
	} {
		v, key, ok := lookup(payload, target.keys)
		if !ok {
			continue
		}
		amount, err := parseAmount(v)
		if err != nil {
			return nil, common.NewValidationError(key, err.Error())
		}
		*target.dest = &amount
	}
	return f, nil
}

func normalizeForecast(recordType, submitted model.RecordType, payload map[string]any, shared Common) (Fields, error) {
	date, amount, err := requiredDateAndAmount(recordType, payload, parseDate)
	if err != nil {
		return nil, err
	}

	certainty := model.CertaintyCertain
	if v := optionalString(payload, certaintyKeys); v != nil {
		certainty = model.Certainty(strings.ToLower(*v))
		if !certainty.Valid() {
			return nil, common.NewValidationError("certainty", fmt.Sprintf("unknown certainty %q", *v))
		}
	}

	direction := model.ForecastIncome
	if recordType == model.RecordTypeExpenseForecast {
		direction = model.ForecastExpense
	}

	return &ForecastFields{
		Common:         shared,
		Category:       normalizeCategory(recordType, payload),
		Direction:      direction,
		Submitted:      submitted,
		CashDate:       date,
		ExpectedAmount: amount,
		Certainty:      certainty,
		Description:    optionalString(payload, descriptionKeys),
		AccountName:    optionalString(payload, accountKeys),
		ProductLine:    optionalString(payload, productLineKeys),
		ProductName:    optionalString(payload, productNameKeys),
	}, nil
}

func requiredDateAndAmount(recordType model.RecordType, payload map[string]any, parse func(any) (time.Time, error)) (time.Time, decimal.Decimal, error) {
	keys := dateKeys[recordType]
	raw, key, ok := lookup(payload, keys)
	if !ok {
		return time.Time{}, decimal.Zero, common.NewValidationError(keys[0], "missing date")
	}
	date, err := parse(raw)
	if err != nil {
		return time.Time{}, decimal.Zero, common.NewValidationError(key, err.Error())
	}

	keys = amountKeys[recordType]
	raw, key, ok = lookup(payload, keys)
	if !ok {
		return time.Time{}, decimal.Zero, common.NewValidationError(keys[0], "missing amount")
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return time.Time{}, decimal.Zero, common.NewValidationError(key, err.Error())
	}
	return date, amount, nil
}

// normalizeCategory reads category_path (a "/"-separated string or a list)
// and falls back to the flat category keys of the record type.
func normalizeCategory(recordType model.RecordType, payload map[string]any) Category {
	c := Category{
		PathText:    optionalString(payload, categoryPathTextKeys),
		Label:       optionalString(payload, categoryLabelKeys),
		Subcategory: optionalString(payload, subcategoryKeys),
	}

	if raw, _, ok := lookup(payload, categoryPathKeys); ok {
		c.Names = splitPath(raw)
	}
	if len(c.Names) == 0 {
		for _, key := range categoryFallbackKeys[recordType] {
			if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
				c.Names = append(c.Names, strings.TrimSpace(s))
			}
		}
	}
	return c
}

func splitPath(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, "/")
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		return nil
	}

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// lookup returns the first key whose value is present, non-null and not blank.
func lookup(payload map[string]any, keys []string) (any, string, bool) {
	for _, key := range keys {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, key, true
	}
	return nil, "", false
}

func optionalString(payload map[string]any, keys []string) *string {
	v, _, ok := lookup(payload, keys)
	if !ok {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parseAmount(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	var err error
	switch t := v.(type) {
	case decimal.Decimal:
		d = t
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, fmt.Errorf("amount is not finite")
		}
		d = decimal.NewFromFloat(t)
	case float32:
		d = decimal.NewFromFloat32(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		d, err = decimal.NewFromString(cleaned)
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %v: %w", v, err)
	}
	return d.Round(2), nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

func parseTime(v any, layouts []string) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

// parseDate keeps only the calendar date, in the zone it was written in.
func parseDate(v any) (time.Time, error) {
	t, err := parseTime(v, dateLayouts)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseMonth also accepts "2006-01", which means the first day of that month.
func parseMonth(v any) (time.Time, error) {
	t, err := parseTime(v, append([]string{"2006-01"}, dateLayouts...))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseTimestamp treats values without an offset as UTC.
func parseTimestamp(v any) (time.Time, error) {
	t, err := parseTime(v, dateLayouts)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
