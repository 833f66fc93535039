// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
)

// ImportJobFilter narrows job listings.
type ImportJobFilter struct {
	Status model.ImportStatus
	Source model.ImportSource
	Limit  int
}

// LedgerMatch is the natural key of a categorized ledger row.
// Nil CategoryID, CategoryPathText, Description and AccountName match NULL columns.
// Rows written by ExcludeJobID are never matched. IgnoreAmount drops the
// amount from the key, which locates the row an overwrite should replace.
type LedgerMatch struct {
	Date             time.Time
	CategoryID       *string
	CategoryPathText *string
	Description      *string
	AccountName      *string
	Amount           decimal.Decimal
	CompanyID        string
	ExcludeJobID     string
	IgnoreAmount     bool
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Company operations
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetCompanyByName(ctx context.Context, name string) (*model.Company, error)
	CreateCompany(ctx context.Context, company *model.Company) error

	// Import job operations
	CreateImportJob(ctx context.Context, job *model.ImportJob) error
	GetImportJob(ctx context.Context, id string) (*model.ImportJob, error)
	ListImportJobs(ctx context.Context, filter ImportJobFilter) ([]model.ImportJob, error)
	UpdateImportJob(ctx context.Context, job *model.ImportJob) error
	CreateAttachment(ctx context.Context, attachment *model.Attachment) error
	GetAttachments(ctx context.Context, jobID string) ([]model.Attachment, error)

	// Category operations
	GetCategoryByPath(ctx context.Context, categoryType model.CategoryType, fullPath string) (*model.FinanceCategory, error)
	CreateCategory(ctx context.Context, category *model.FinanceCategory) error
	GetCategories(ctx context.Context, categoryType model.CategoryType) ([]model.FinanceCategory, error)

	// Ledger operations
	FindAccountBalance(ctx context.Context, companyID string, reportedAt time.Time) (*model.AccountBalance, error)
	CreateAccountBalance(ctx context.Context, balance *model.AccountBalance) error
	UpdateAccountBalance(ctx context.Context, balance *model.AccountBalance) error
	ListAccountBalances(ctx context.Context, companyID string) ([]model.AccountBalance, error)

	FindRevenueDetail(ctx context.Context, match LedgerMatch) (*model.RevenueDetail, error)
	CreateRevenueDetail(ctx context.Context, detail *model.RevenueDetail) error
	UpdateRevenueDetail(ctx context.Context, detail *model.RevenueDetail) error
	ListRevenueDetails(ctx context.Context, companyID string) ([]model.RevenueDetail, error)

	CreateExpenseRecord(ctx context.Context, record *model.ExpenseRecord) error
	ListExpenseRecords(ctx context.Context, companyID string) ([]model.ExpenseRecord, error)

	FindForecast(ctx context.Context, direction model.ForecastDirection, match LedgerMatch) (*model.Forecast, error)
	CreateForecast(ctx context.Context, forecast *model.Forecast) error
	UpdateForecast(ctx context.Context, forecast *model.Forecast) error
	GetForecast(ctx context.Context, direction model.ForecastDirection, id string) (*model.Forecast, error)
	DeleteForecast(ctx context.Context, direction model.ForecastDirection, id string) (bool, error)
	DeleteForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) (int64, error)
	ListForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) ([]model.Forecast, error)

	// Audit operations
	CreateConfirmationLog(ctx context.Context, log *model.ConfirmationLog) error
	GetConfirmationLogs(ctx context.Context, jobID string) ([]model.ConfirmationLog, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
