package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestPreview_RoundTrip(t *testing.T) {
	preview := []CandidateRecord{
		{
			RecordType: RecordTypeRevenue,
			Payload: map[string]any{
				"occurred_on":   "2025-02-10",
				"amount":        json.Number("123456.78"),
				"category_path": []any{"主营业务收入", "产品销售"},
				"description":   "测试收入",
			},
			Confidence: floatPtr(0.9),
			Warnings:   []string{"amount inferred from total row"},
		},
		{
			RecordType: RecordTypeExpenseForecast,
			Payload: map[string]any{
				"cash_out_date":   "2025-03-01",
				"expected_amount": json.Number("1000"),
				"certainty":       "uncertain",
			},
			Warnings: []string{},
		},
	}

	encoded, err := EncodePreview(preview)
	require.NoError(t, err)

	decoded, err := DecodePreview(encoded)
	require.NoError(t, err)
	assert.Equal(t, preview, decoded)
}

func TestDecodePreview_Empty(t *testing.T) {
	records, err := DecodePreview("")
	require.NoError(t, err)
	assert.Empty(t, records)

	encoded, err := EncodePreview(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", encoded)
}

func TestCandidateRecord_UnmarshalSnakeCase(t *testing.T) {
	var rec CandidateRecord
	err := json.Unmarshal([]byte(`{"record_type":"revenue_forecast","payload":{"amount":12.5},"confidence":null}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, RecordTypeRevenueForecast, rec.RecordType)
	assert.Equal(t, RecordTypeIncomeForecast, rec.RecordType.Canonical())
	assert.Equal(t, json.Number("12.5"), rec.Payload["amount"])
	assert.Nil(t, rec.Confidence)
}

func TestConfirmationAction_Unmarshal(t *testing.T) {
	var actions []ConfirmationAction
	err := json.Unmarshal([]byte(`[
		{"recordType":"revenue","operation":"approve","overwrite":true},
		{"record_type":"expense","operation":"reject","comment":"wrong month"},
		{"recordType":"revenue","operation":"edit","payload":{"amount":"999999.0"}}
	]`), &actions)
	require.NoError(t, err)
	require.Len(t, actions, 3)

	assert.True(t, actions[0].Overwrite)
	assert.Nil(t, actions[0].Payload)
	assert.Equal(t, RecordTypeExpense, actions[1].RecordType)
	assert.Equal(t, OperationReject, actions[1].Operation)
	assert.Equal(t, "wrong month", actions[1].Comment)
	assert.Equal(t, "999999.0", actions[2].Payload["amount"])
}

func TestAverageConfidence(t *testing.T) {
	tests := []struct {
		want    *float64
		name    string
		records []CandidateRecord
	}{
		{name: "no records", records: nil, want: nil},
		{name: "all nil", records: []CandidateRecord{{}, {}}, want: nil},
		{
			name:    "mean of present values",
			records: []CandidateRecord{{Confidence: floatPtr(0.5)}, {}, {Confidence: floatPtr(1.0)}},
			want:    floatPtr(0.75),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AverageConfidence(tt.records)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestWithDefaultCompany(t *testing.T) {
	records := []CandidateRecord{
		{RecordType: RecordTypeRevenue, Payload: map[string]any{"amount": 1}},
		{RecordType: RecordTypeRevenue, Payload: map[string]any{"companyId": "acme"}},
	}

	out := WithDefaultCompany(records, "default-co")
	assert.Equal(t, "default-co", out[0].Payload["company_id"])
	assert.NotContains(t, out[1].Payload, "company_id")
	assert.NotContains(t, records[0].Payload, "company_id")
}

func TestRecordType_CategoryType(t *testing.T) {
	tests := []struct {
		recordType RecordType
		want       CategoryType
		ok         bool
	}{
		{RecordTypeAccountBalance, "", false},
		{RecordTypeRevenue, CategoryTypeRevenue, true},
		{RecordTypeExpense, CategoryTypeExpense, true},
		{RecordTypeIncomeForecast, CategoryTypeForecast, true},
		{RecordTypeRevenueForecast, CategoryTypeForecast, true},
		{RecordTypeExpenseForecast, CategoryTypeExpense, true},
	}

	for _, tt := range tests {
		got, ok := tt.recordType.CategoryType()
		assert.Equal(t, tt.ok, ok, tt.recordType)
		assert.Equal(t, tt.want, got, tt.recordType)
	}
	assert.False(t, RecordType("budget").Valid())
}
