package commons

import (
	"context"
	"math/rand"
	"time"
)

type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// Retry runs op until it succeeds, returns a non-retryable error, or the
// attempts run out. The wait before attempt n is BaseBackoff*(n-1) with ±20%
// jitter. The last error is returned.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, op func(ctx context.Context) error) error {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := policy.BaseBackoff * time.Duration(attempt-1)
			jitter := time.Duration(float64(backoff) * (rand.Float64()*0.4 - 0.2))

			timer := time.NewTimer(backoff + jitter)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}

	return err
}
