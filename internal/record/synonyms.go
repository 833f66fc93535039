// Package record classifies candidate payloads into typed field sets.
//
// Extractors produce loosely keyed payloads. The tables in this file list,
// in precedence order, every key accepted for each logical field; the first
// present, non-null key wins.
package record

import "github.com/cchome2024/FinanceSync/internal/model"

var dateKeys = map[model.RecordType][]string{
	model.RecordTypeAccountBalance: {"reported_at", "reportedAt"},
	model.RecordTypeRevenue:        {"occurred_on", "occurredOn", "date"},
	model.RecordTypeExpense:        {"month", "occurred_on", "occurredOn"},
	model.RecordTypeIncomeForecast: {
		"cash_in_date", "cashInDate", "occurred_on", "occurredOn", "forecast_date", "forecastDate",
	},
	model.RecordTypeExpenseForecast: {
		"cash_out_date", "cashOutDate", "occurred_on", "occurredOn", "forecast_date", "forecastDate",
	},
}

// canonicalDateKey is the key written back into confirmed payloads.
var canonicalDateKey = map[model.RecordType]string{
	model.RecordTypeAccountBalance:  "reported_at",
	model.RecordTypeRevenue:         "occurred_on",
	model.RecordTypeExpense:         "month",
	model.RecordTypeIncomeForecast:  "cash_in_date",
	model.RecordTypeExpenseForecast: "cash_out_date",
}

var amountKeys = map[model.RecordType][]string{
	model.RecordTypeRevenue:         {"amount"},
	model.RecordTypeExpense:         {"amount"},
	model.RecordTypeIncomeForecast:  {"expected_amount", "expectedAmount", "amount"},
	model.RecordTypeExpenseForecast: {"expected_amount", "expectedAmount", "amount"},
}

var canonicalAmountKey = map[model.RecordType]string{
	model.RecordTypeRevenue:         "amount",
	model.RecordTypeExpense:         "amount",
	model.RecordTypeIncomeForecast:  "expected_amount",
	model.RecordTypeExpenseForecast: "expected_amount",
}

// categoryFallbackKeys are flat category fields used when no category_path is given.
var categoryFallbackKeys = map[model.RecordType][]string{
	model.RecordTypeRevenue: {
		"category", "subcategory",
		"category_level1", "categoryLevel1", "category_level2", "categoryLevel2",
		"category_level3", "categoryLevel3", "category_level4", "categoryLevel4",
	},
	model.RecordTypeExpense: {"category"},
	model.RecordTypeIncomeForecast: {
		"category", "subcategory",
		"category_level1", "categoryLevel1", "category_level2", "categoryLevel2",
		"category_level3", "categoryLevel3", "category_level4", "categoryLevel4",
	},
	model.RecordTypeExpenseForecast: {
		"category", "subcategory",
		"category_level1", "categoryLevel1", "category_level2", "categoryLevel2",
		"category_level3", "categoryLevel3", "category_level4", "categoryLevel4",
	},
}

var (
	companyKeys          = []string{"company_id", "companyId"}
	categoryPathKeys     = []string{"category_path", "categoryPath"}
	categoryPathTextKeys = []string{"category_path_text", "categoryPathText"}
	categoryLabelKeys    = []string{"category_label", "categoryLabel"}
	subcategoryKeys      = []string{"subcategory_label", "subcategoryLabel", "subcategory"}
	descriptionKeys      = []string{"description", "item", "item_name", "itemName"}
	accountKeys          = []string{"account_name", "account", "accountName"}
	currencyKeys         = []string{"currency"}
	notesKeys            = []string{"notes", "note"}
	confidenceKeys       = []string{"confidence"}
	certaintyKeys        = []string{"certainty"}
	productLineKeys      = []string{"product_line", "productLine"}
	productNameKeys      = []string{"product_name", "productName"}
	cashBalanceKeys      = []string{"cash_balance", "cashBalance"}
	investmentKeys       = []string{"investment_balance", "investmentBalance"}
	totalBalanceKeys     = []string{"total_balance", "totalBalance"}
)

// consumedKeys are replaced by canonical keys when a confirmed payload is rewritten.
var consumedKeys = []string{"category_path", "categoryPath", "companyId"}
