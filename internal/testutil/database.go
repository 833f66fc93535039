// Package testutil provides shared test fixtures backed by an in-memory database.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/cchome2024/FinanceSync/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new migrated in-memory database that is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, service.Storage) error
	Companies   []model.Company
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for i := range opts.Companies {
		if err := store.CreateCompany(ctx, &opts.Companies[i]); err != nil {
			t.Fatalf("failed to seed company %q: %v", opts.Companies[i].ID, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// WithTransaction executes fn within a transaction that is always rolled back.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	return fn(tx)
}

// MustCreateJob inserts a pending_review job with the given encoded preview.
func (db *TestDB) MustCreateJob(preview string) *model.ImportJob {
	db.t.Helper()
	job := &model.ImportJob{
		SourceType:    model.SourceManualUpload,
		Status:        model.StatusPendingReview,
		InitiatorID:   "tester",
		InitiatorRole: "finance_admin",
		RawPayloadRef: preview,
	}
	if err := db.Storage.CreateImportJob(context.Background(), job); err != nil {
		db.t.Fatalf("failed to create job: %v", err)
	}
	return job
}
