// Package api serves the import review workflow over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/cchome2024/FinanceSync/internal/service"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 32 << 20

// Service is the part of the engine the handlers use.
type Service interface {
	Ingest(ctx context.Context, req engine.IngestRequest) (*engine.IngestResult, error)
	ApplyConfirmation(ctx context.Context, jobID string, actions []model.ConfirmationAction) (*model.ConfirmationResult, error)
	GetJobDetail(ctx context.Context, jobID string) (*engine.JobDetail, error)
	ListJobs(ctx context.Context, filter service.ImportJobFilter) ([]model.ImportJob, error)
	ListConfirmationLogs(ctx context.Context, jobID string) ([]model.ConfirmationLog, error)
	ListCategories(ctx context.Context, categoryType model.CategoryType) ([]model.FinanceCategory, error)
	CreateExpenseForecast(ctx context.Context, in engine.ExpenseForecastInput) (*model.Forecast, error)
	UpdateExpenseForecast(ctx context.Context, id string, patch engine.ExpenseForecastPatch) (*model.Forecast, error)
	DeleteExpenseForecast(ctx context.Context, id string) error
	ListForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) ([]model.Forecast, error)
}

// Resolver picks an extractor for uploaded input, or nil when none applies.
type Resolver func(in extract.Input) extract.Extractor

// Server holds the HTTP handlers.
type Server struct {
	svc     Service
	resolve Resolver
	logger  *slog.Logger
}

// NewServer creates a server. A nil resolver accepts JSON text only.
func NewServer(svc Service, resolve Resolver) *Server {
	if resolve == nil {
		resolve = func(extract.Input) extract.Extractor { return extract.NewJSONExtractor() }
	}
	return &Server{
		svc:     svc,
		resolve: resolve,
		logger:  slog.Default().With("component", "api"),
	}
}

// Handler returns the routed handler with logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/parse/upload", s.parseUpload)
	mux.HandleFunc("GET /api/v1/import-jobs", s.listJobs)
	mux.HandleFunc("GET /api/v1/import-jobs/{id}", s.getJob)
	mux.HandleFunc("POST /api/v1/import-jobs/{id}/confirm", s.confirmJob)
	mux.HandleFunc("GET /api/v1/import-jobs/{id}/logs", s.jobLogs)
	mux.HandleFunc("GET /api/v1/categories", s.listCategories)
	mux.HandleFunc("GET /api/v1/expense-forecast", s.listExpenseForecasts)
	mux.HandleFunc("POST /api/v1/expense-forecast", s.createExpenseForecast)
	mux.HandleFunc("PUT /api/v1/expense-forecast/{id}", s.updateExpenseForecast)
	mux.HandleFunc("DELETE /api/v1/expense-forecast/{id}", s.deleteExpenseForecast)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return recoverPanics(s.logger, logRequests(s.logger, mux))
}
