package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorFor(t *testing.T) {
	tests := []struct {
		name     string
		files    []extract.File
		expected string
	}{
		{"no files", nil, "json"},
		{"ofx wins over csv", []extract.File{{Name: "a.csv"}, {Name: "b.qfx"}}, "ofx"},
		{"spreadsheet", []extract.File{{Name: "march.xlsx"}}, "sheet"},
		{"csv", []extract.File{{Name: "march.csv"}}, "sheet"},
		{"json", []extract.File{{Name: "records.json"}}, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := extractorFor(tt.files)
			require.NotNil(t, e)
			assert.Equal(t, tt.expected, e.Name())
		})
	}

	assert.Nil(t, extractorForName("report.pdf"))
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))

	files, err := readFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "records.json", files[0].Name)
	assert.Equal(t, "[]", string(files[0].Data))

	_, err = readFiles([]string{filepath.Join(dir, "missing.json")})
	assert.Error(t, err)
}

func TestFirstValue(t *testing.T) {
	payload := map[string]any{
		"amount":        "12.50",
		"category_path": []any{"主营业务收入", "产品销售"},
		"description":   nil,
	}

	assert.Equal(t, "12.50", firstValue(payload, "expected_amount", "amount"))
	assert.Equal(t, "主营业务收入/产品销售", firstValue(payload, "category_path", "description"))
	assert.Equal(t, "", firstValue(payload, "description", "company_id"))
}

func TestPreviewTable(t *testing.T) {
	table := previewTable([]model.CandidateRecord{{
		RecordType: model.RecordTypeRevenue,
		Payload: map[string]any{
			"occurred_on": "2025-02-10",
			"amount":      "500.00",
			"company_id":  "C1",
		},
	}})

	assert.Contains(t, table, "revenue")
	assert.Contains(t, table, "2025-02-10")
	assert.Contains(t, table, "500.00")
	assert.Contains(t, table, "C1")
}

func TestDescribeConfirmError(t *testing.T) {
	t.Run("duplicate lists the existing key", func(t *testing.T) {
		dup := &reconcile.DuplicateRecordError{
			RecordType: model.RecordTypeRevenue,
			Conflict:   reconcile.Conflict{"companyId": "C1", "occurredOn": "2025-02-10", "description": nil},
		}
		err := describeConfirmError(dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrDuplicateRecord)
		assert.Contains(t, err.Error(), "companyId=C1, occurredOn=2025-02-10")
		assert.Contains(t, err.Error(), "--overwrite")
		assert.NotContains(t, err.Error(), "description")
	})

	t.Run("other errors pass through", func(t *testing.T) {
		assert.Equal(t, common.ErrNotFound, describeConfirmError(common.ErrNotFound))
	})
}

func TestReadActions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"actions":[{"record_type":"revenue","operation":"reject","comment":"dup"}]}`), 0o600))

	actions, err := readActions(nil, path)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, model.RecordTypeRevenue, actions[0].RecordType)
	assert.Equal(t, model.OperationReject, actions[0].Operation)
	assert.Equal(t, "dup", actions[0].Comment)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"actions":[]}`), 0o600))
	_, err = readActions(nil, empty)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "收入…", truncate("收入明细", 2))
}
