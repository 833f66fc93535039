package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cchome2024/FinanceSync/internal/model"
)

// ForecastStore is the storage needed to clear forecasts.
type ForecastStore interface {
	DeleteForecasts(ctx context.Context, direction model.ForecastDirection, companyID string) (int64, error)
}

// ForecastResets remembers which (direction, company) pairs were already
// cleared during one confirmation call. A forecast import replaces the whole
// forecast of a company, so the first forecast record for a company deletes
// that company's existing rows and later ones append. Create one per call.
type ForecastResets struct {
	cleared map[model.ForecastDirection]map[string]bool
}

// NewForecastResets returns an empty accumulator.
func NewForecastResets() *ForecastResets {
	return &ForecastResets{cleared: make(map[model.ForecastDirection]map[string]bool)}
}

// Ensure clears the company's forecasts for direction once per accumulator.
func (r *ForecastResets) Ensure(ctx context.Context, store ForecastStore, direction model.ForecastDirection, companyID string) error {
	companies := r.cleared[direction]
	if companies == nil {
		companies = make(map[string]bool)
		r.cleared[direction] = companies
	}
	if companies[companyID] {
		return nil
	}

	deleted, err := store.DeleteForecasts(ctx, direction, companyID)
	if err != nil {
		return fmt.Errorf("failed to reset %s forecasts: %w", direction, err)
	}
	companies[companyID] = true

	slog.Info("reset forecasts", "direction", direction, "company_id", companyID, "deleted", deleted)
	return nil
}

// Cleared reports whether the pair has already been reset.
func (r *ForecastResets) Cleared(direction model.ForecastDirection, companyID string) bool {
	return r.cleared[direction][companyID]
}
