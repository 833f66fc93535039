package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Is(t *testing.T) {
	err := fmt.Errorf("revenue record: %w", NewValidationError("occurred_on", "missing date"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "occurred_on: missing date")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "occurred_on", verr.Field)
}

func TestUserError(t *testing.T) {
	err := NewUserError("Job is already finalized", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Job is already finalized: not found", err.Error())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "", want: slog.LevelInfo},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidConfig)
		} else {
			assert.NoError(t, err)
		}
		assert.Equal(t, tt.want, got)
	}
}

func TestWithRetry(t *testing.T) {
	opts := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("temporary")
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: errors.New("bad request"), Retryable: false}
		}, opts)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		err := WithRetry(context.Background(), func() error {
			return errors.New("still down")
		}, opts)
		assert.ErrorIs(t, err, ErrMaxRetries)
	})
}
