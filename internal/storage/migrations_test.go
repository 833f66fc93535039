package storage

import (
	"context"
	"testing"
)

// TestMigrations_CreateSchema checks every table and key index exists after migrating.
func TestMigrations_CreateSchema(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tables := []string{
		"companies",
		"import_jobs",
		"attachments",
		"finance_categories",
		"confirmation_logs",
		"account_balances",
		"revenue_details",
		"expense_records",
		"income_forecasts",
		"expense_forecasts",
	}
	for _, table := range tables {
		var count int
		err := store.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to query sqlite_master: %v", err)
		}
		if count != 1 {
			t.Errorf("Table %s missing after migration", table)
		}
	}

	indexes := []string{
		"idx_import_jobs_status",
		"idx_revenue_details_key",
		"idx_income_forecasts_key",
		"idx_expense_forecasts_key",
	}
	for _, index := range indexes {
		var count int
		err := store.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?`, index).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to query sqlite_master: %v", err)
		}
		if count != 1 {
			t.Errorf("Index %s missing after migration", index)
		}
	}
}

func TestMigrations_VersionsAreSequential(t *testing.T) {
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("Migration %d has version %d", i, m.Version)
		}
		if m.Description == "" {
			t.Errorf("Migration %d has no description", m.Version)
		}
	}
	if last := migrations[len(migrations)-1].Version; last != ExpectedSchemaVersion {
		t.Errorf("Last migration version %d, ExpectedSchemaVersion %d", last, ExpectedSchemaVersion)
	}
}

func TestMigrations_CategoryPathUnique(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	insert := `INSERT INTO finance_categories (id, category_type, name, level, full_path, created_at)
		VALUES (?, 'revenue', '产品销售', 1, '产品销售', CURRENT_TIMESTAMP)`
	if _, err := store.db.ExecContext(ctx, insert, "cat-1"); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if _, err := store.db.ExecContext(ctx, insert, "cat-2"); err == nil {
		t.Error("Expected unique violation on duplicate (category_type, full_path)")
	}
}
