package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cchome2024/FinanceSync/internal/service"
)

var (
	// ErrRateLimit indicates that the API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError marks an error as worth retrying or not.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// DefaultRetryOptions is used by API clients that were not given explicit options.
func DefaultRetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry runs operation until it succeeds, returns a non-retryable error,
// or exhausts opts.MaxAttempts. Delays grow by opts.Multiplier up to opts.MaxDelay.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	defaults := DefaultRetryOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaults.MaxAttempts
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = defaults.InitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaults.MaxDelay
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = defaults.Multiplier
	}

	delay := opts.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		var retryableErr *RetryableError
		if errors.As(lastErr, &retryableErr) && !retryableErr.Retryable {
			return lastErr
		}
		if errors.Is(lastErr, ErrRateLimit) || errors.Is(lastErr, ErrPlaidRateLimit) {
			delay = opts.MaxDelay
		}
		if attempt == opts.MaxAttempts {
			break
		}

		slog.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * opts.Multiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, opts.MaxAttempts, lastErr)
}
