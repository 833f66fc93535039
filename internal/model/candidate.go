package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RecordType classifies a candidate record and selects the ledger table it lands in.
type RecordType string

const (
	RecordTypeAccountBalance  RecordType = "account_balance"
	RecordTypeRevenue         RecordType = "revenue"
	RecordTypeExpense         RecordType = "expense"
	RecordTypeIncomeForecast  RecordType = "income_forecast"
	RecordTypeExpenseForecast RecordType = "expense_forecast"
	// RecordTypeRevenueForecast is accepted from extractors and stored as an income forecast.
	RecordTypeRevenueForecast RecordType = "revenue_forecast"
)

// RecordTypes returns every record type in a stable order.
func RecordTypes() []RecordType {
	return []RecordType{
		RecordTypeAccountBalance,
		RecordTypeRevenue,
		RecordTypeExpense,
		RecordTypeIncomeForecast,
		RecordTypeExpenseForecast,
		RecordTypeRevenueForecast,
	}
}

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	for _, known := range RecordTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Canonical folds aliases onto the type whose table stores them.
func (t RecordType) Canonical() RecordType {
	if t == RecordTypeRevenueForecast {
		return RecordTypeIncomeForecast
	}
	return t
}

// CategoryType returns the category tree used by this record type.
// Expense forecasts share the expense tree. Account balances are not categorized.
func (t RecordType) CategoryType() (CategoryType, bool) {
	switch t.Canonical() {
	case RecordTypeRevenue:
		return CategoryTypeRevenue, true
	case RecordTypeExpense, RecordTypeExpenseForecast:
		return CategoryTypeExpense, true
	case RecordTypeIncomeForecast:
		return CategoryTypeForecast, true
	}
	return "", false
}

// IsForecast returns true for both forecast directions.
func (t RecordType) IsForecast() bool {
	switch t.Canonical() {
	case RecordTypeIncomeForecast, RecordTypeExpenseForecast:
		return true
	}
	return false
}

// CandidateRecord is an unconfirmed record proposed by an extractor.
// Payload keys are not fixed; see the record package for the accepted synonyms.
type CandidateRecord struct {
	Payload    map[string]any `json:"payload"`
	Confidence *float64       `json:"confidence"`
	RecordType RecordType     `json:"recordType"`
	Warnings   []string       `json:"warnings"`
}

// UnmarshalJSON accepts both recordType and record_type and keeps numbers
// as json.Number so amounts survive without float rounding.
func (c *CandidateRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Payload       map[string]any `json:"payload"`
		Confidence    *float64       `json:"confidence"`
		RecordType    RecordType     `json:"recordType"`
		RecordTypeAlt RecordType     `json:"record_type"`
		Warnings      []string       `json:"warnings"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode candidate record: %w", err)
	}

	c.RecordType = raw.RecordType
	if c.RecordType == "" {
		c.RecordType = raw.RecordTypeAlt
	}
	c.Payload = raw.Payload
	c.Confidence = raw.Confidence
	c.Warnings = raw.Warnings
	return nil
}

// ConfirmationOperation is the reviewer's decision for one record.
type ConfirmationOperation string

const (
	OperationApprove ConfirmationOperation = "approve"
	OperationEdit    ConfirmationOperation = "edit"
	OperationReject  ConfirmationOperation = "reject"
)

// Valid reports whether o is a known operation.
func (o ConfirmationOperation) Valid() bool {
	switch o {
	case OperationApprove, OperationEdit, OperationReject:
		return true
	}
	return false
}

// ConfirmationAction is one reviewer decision submitted against a job.
// A nil Payload on approve or edit consumes the next preview record of the same type.
type ConfirmationAction struct {
	RecordID   *string               `json:"recordId,omitempty"`
	Payload    map[string]any        `json:"payload,omitempty"`
	RecordType RecordType            `json:"recordType"`
	Operation  ConfirmationOperation `json:"operation"`
	Comment    string                `json:"comment,omitempty"`
	Overwrite  bool                  `json:"overwrite,omitempty"`
}

// UnmarshalJSON mirrors CandidateRecord and accepts snake_case keys.
func (a *ConfirmationAction) UnmarshalJSON(data []byte) error {
	var raw struct {
		RecordID      *string               `json:"recordId"`
		RecordIDAlt   *string               `json:"record_id"`
		Payload       map[string]any        `json:"payload"`
		RecordType    RecordType            `json:"recordType"`
		RecordTypeAlt RecordType            `json:"record_type"`
		Operation     ConfirmationOperation `json:"operation"`
		Comment       *string               `json:"comment"`
		Overwrite     *bool                 `json:"overwrite"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode confirmation action: %w", err)
	}

	a.RecordID = raw.RecordID
	if a.RecordID == nil {
		a.RecordID = raw.RecordIDAlt
	}
	a.RecordType = raw.RecordType
	if a.RecordType == "" {
		a.RecordType = raw.RecordTypeAlt
	}
	a.Payload = raw.Payload
	a.Operation = raw.Operation
	a.Comment = ""
	if raw.Comment != nil {
		a.Comment = *raw.Comment
	}
	a.Overwrite = raw.Overwrite != nil && *raw.Overwrite
	return nil
}

// ConfirmationResult summarizes one applied confirmation call.
type ConfirmationResult struct {
	UpdatedRecords []CandidateRecord `json:"updatedRecords"`
	ApprovedCount  int               `json:"approvedCount"`
	RejectedCount  int               `json:"rejectedCount"`
}
