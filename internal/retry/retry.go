// internal/retry/retry.go
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/Corphon/VisageForge/internal/errors"
)

// DefaultMaxRetries is the number of extra attempts after the first call.
const DefaultMaxRetries = 1

// linearBackoff waits Interval, 2*Interval, 3*Interval between attempts.
type linearBackoff struct {
	Interval time.Duration
	attempt  int
}

func (b *linearBackoff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.Interval
}

func (b *linearBackoff) Reset() {
	b.attempt = 0
}

// Do runs operation up to 1+maxRetries times. Only transient failures are
// retried; validation, authentication and safety-block errors surface
// immediately. The context cancels waiting between attempts.
func Do[T any](ctx context.Context, maxRetries int, operation func() (T, error)) (T, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	wrapped := func() (T, error) {
		result, err := operation()
		if err != nil && !apperrors.IsRetriable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	policy := backoff.WithMaxRetries(
		backoff.WithContext(&linearBackoff{Interval: time.Second}, ctx),
		uint64(maxRetries),
	)
	return backoff.RetryWithData(wrapped, policy)
}
