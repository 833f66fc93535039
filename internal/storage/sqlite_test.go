package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
)

func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func createTestJob(t *testing.T, store *SQLiteStorage) *model.ImportJob {
	t.Helper()
	job := &model.ImportJob{
		SourceType:  model.SourceManualUpload,
		Status:      model.StatusPendingReview,
		InitiatorID: "user-1",
	}
	if err := store.CreateImportJob(context.Background(), job); err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	return job
}

func createTestCompany(t *testing.T, store *SQLiteStorage, id string) {
	t.Helper()
	if err := store.CreateCompany(context.Background(), &model.Company{ID: id, Name: id}); err != nil {
		t.Fatalf("Failed to create company: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestNewSQLiteStorage_Validation(t *testing.T) {
	if _, err := NewSQLiteStorage(""); !errors.Is(err, ErrEmptyString) {
		t.Errorf("Expected ErrEmptyString, got %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("Schema version = %d, want %d", version, ExpectedSchemaVersion)
	}
}

func TestCompanies(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	got, err := store.GetCompany(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("GetCompany(missing) = %v, %v; want nil, nil", got, err)
	}

	company := &model.Company{ID: "company-unknown", Name: "未指定公司", DisplayName: "未指定公司"}
	if err := store.CreateCompany(ctx, company); err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}

	got, err = store.GetCompany(ctx, "company-unknown")
	if err != nil {
		t.Fatalf("GetCompany failed: %v", err)
	}
	if got.Name != "未指定公司" || got.Currency != model.DefaultCurrency {
		t.Errorf("Unexpected company: %+v", got)
	}

	err = store.CreateCompany(ctx, &model.Company{ID: "company-unknown", Name: "other"})
	if !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry, got %v", err)
	}

	byName, err := store.GetCompanyByName(ctx, "未指定公司")
	if err != nil || byName == nil || byName.ID != "company-unknown" {
		t.Errorf("GetCompanyByName = %+v, %v; want company-unknown", byName, err)
	}
	byName, err = store.GetCompanyByName(ctx, "nobody")
	if err != nil || byName != nil {
		t.Errorf("GetCompanyByName(nobody) = %+v, %v; want nil, nil", byName, err)
	}
}

func TestTransaction_RollbackDiscardsWrites(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := tx.CreateCompany(ctx, &model.Company{ID: "acme", Name: "Acme"}); err != nil {
		t.Fatalf("CreateCompany in tx failed: %v", err)
	}
	inTx, err := tx.GetCompany(ctx, "acme")
	if err != nil || inTx == nil {
		t.Fatalf("Company not visible inside tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	got, err := store.GetCompany(ctx, "acme")
	if err != nil {
		t.Fatalf("GetCompany failed: %v", err)
	}
	if got != nil {
		t.Error("Company survived rollback")
	}

	if _, err := tx.BeginTx(ctx); !errors.Is(err, ErrNestedTransaction) {
		t.Errorf("Expected ErrNestedTransaction, got %v", err)
	}
}

func TestAccountBalances(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestCompany(t, store, "acme")
	job := createTestJob(t, store)

	reportedAt := time.Date(2025, 2, 10, 8, 30, 0, 0, time.FixedZone("CST", 8*3600))
	balance := &model.AccountBalance{
		CompanyID:    "acme",
		ImportJobID:  &job.ID,
		ReportedAt:   reportedAt,
		CashBalance:  decimal.RequireFromString("100.5"),
		TotalBalance: decimal.RequireFromString("100.5"),
	}
	if err := store.CreateAccountBalance(ctx, balance); err != nil {
		t.Fatalf("CreateAccountBalance failed: %v", err)
	}

	found, err := store.FindAccountBalance(ctx, "acme", reportedAt.UTC())
	if err != nil {
		t.Fatalf("FindAccountBalance failed: %v", err)
	}
	if found == nil {
		t.Fatal("Balance not found by equivalent UTC instant")
	}
	if !found.CashBalance.Equal(decimal.RequireFromString("100.50")) {
		t.Errorf("CashBalance = %s, want 100.50", found.CashBalance)
	}
	if found.Currency != "CNY" {
		t.Errorf("Currency = %q, want CNY", found.Currency)
	}

	found.CashBalance = decimal.NewFromInt(7)
	if err := store.UpdateAccountBalance(ctx, found); err != nil {
		t.Fatalf("UpdateAccountBalance failed: %v", err)
	}

	balances, err := store.ListAccountBalances(ctx, "acme")
	if err != nil {
		t.Fatalf("ListAccountBalances failed: %v", err)
	}
	if len(balances) != 1 || !balances[0].CashBalance.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Unexpected balances after update: %+v", balances)
	}

	dup := &model.AccountBalance{CompanyID: "acme", ReportedAt: reportedAt}
	if err := store.CreateAccountBalance(ctx, dup); !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry for same company and instant, got %v", err)
	}
}
