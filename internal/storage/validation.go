package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cchome2024/FinanceSync/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidStatus     = errors.New("invalid import status")
	ErrInvalidSource     = errors.New("invalid import source")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidLedgerRow  = errors.New("invalid ledger row")
	ErrInvalidDirection  = errors.New("invalid forecast direction")
	ErrInvalidLogEntry   = errors.New("invalid confirmation log")
	ErrNestedTransaction = errors.New("nested transactions are not supported")
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339Nano
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateImportJob(job *model.ImportJob) error {
	if job == nil {
		return fmt.Errorf("%w: job", ErrNilParameter)
	}
	if !job.SourceType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, job.SourceType)
	}
	switch job.Status {
	case model.StatusPendingReview, model.StatusApproved, model.StatusRejected, model.StatusFailed:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, job.Status)
	}
	return nil
}

func validateCategory(cat *model.FinanceCategory) error {
	if cat == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if !cat.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, cat.Type)
	}
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if strings.TrimSpace(cat.FullPath) == "" {
		return fmt.Errorf("%w: missing full path", ErrInvalidCategory)
	}
	if cat.Level < 1 {
		return fmt.Errorf("%w: level must be positive, got %d", ErrInvalidCategory, cat.Level)
	}
	return nil
}

func validateLedgerRow(companyID string, date time.Time, what string) error {
	if strings.TrimSpace(companyID) == "" {
		return fmt.Errorf("%w: %s missing company", ErrInvalidLedgerRow, what)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: %s missing date", ErrInvalidLedgerRow, what)
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored date %q: %w", s, err)
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
