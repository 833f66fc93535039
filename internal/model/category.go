package model

import "time"

// CategoryType partitions the category taxonomy into independent trees.
type CategoryType string

const (
	// CategoryTypeRevenue is the tree used by revenue details.
	CategoryTypeRevenue CategoryType = "revenue"
	// CategoryTypeExpense is the tree used by expense records.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeForecast is the tree of income forecasts. Expense forecasts
	// use the expense tree.
	CategoryTypeForecast CategoryType = "forecast"
)

// Valid reports whether t names a known category tree.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeRevenue, CategoryTypeExpense, CategoryTypeForecast:
		return true
	}
	return false
}

// FinanceCategory is one node of a hierarchical category tree.
// FullPath is the "/"-joined chain of names from the root down to this node
// and is unique within a CategoryType.
type FinanceCategory struct {
	CreatedAt time.Time
	ParentID  *string
	ID        string
	Name      string
	FullPath  string
	Type      CategoryType
	Level     int
}

// IsRoot returns true if the category has no parent.
func (c *FinanceCategory) IsRoot() bool {
	return c.ParentID == nil
}
