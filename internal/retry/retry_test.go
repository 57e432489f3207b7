// internal/retry/retry_test.go
package retry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
)

func TestRetriesTransientOnce(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), 1, func() (string, error) {
		calls++
		if calls == 1 {
			return "", apperrors.NewTransientError("flaky", nil)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 1, func() (string, error) {
		calls++
		return "", apperrors.NewTransientError("still flaky", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, apperrors.IsRetriable(err))
}

func TestShortCircuitsNonRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"auth", apperrors.NewProviderAuthError("bad key", nil)},
		{"safety", apperrors.NewSafetyBlockError("blocked", nil)},
		{"validation", apperrors.NewValidationError("bad input", nil)},
		{"schema", apperrors.NewSchemaViolationError("bad shape", nil, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := Do(context.Background(), 3, func() (int, error) {
				calls++
				return 0, tt.err
			})

			require.Error(t, err)
			assert.Equal(t, 1, calls, "non-retriable errors must not be retried")
			assert.Equal(t, apperrors.TypeOf(tt.err), apperrors.TypeOf(err))
		})
	}
}

func TestZeroRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 0, func() (int, error) {
		calls++
		return 0, apperrors.NewTransientError("flaky", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestContextCancelStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, 5, func() (int, error) {
		calls++
		cancel()
		return 0, apperrors.NewTransientError("flaky", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation must stop further attempts")
}

func TestFirstTrySuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), 1, func() (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls)
}
