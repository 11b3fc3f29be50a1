package validation

import (
	"context"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
)

// RetryPolicy decides how often a failing check is attempted.
type RetryPolicy interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoRetry runs fn exactly once. A failed check leaves the record unvalidated.
type NoRetry struct{}

func (NoRetry) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// BoundedRetry runs fn up to Attempts times with linear backoff.
type BoundedRetry struct {
	Attempts uint
	Backoff  time.Duration
}

func (r BoundedRetry) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempts := r.Attempts
	if attempts == 0 {
		attempts = 1
	}

	var made uint

	return retry.Retry(
		func(uint) error {
			made++

			return fn(ctx)
		},
		func(uint) bool {
			return made < attempts && (made == 0 || ctx.Err() == nil)
		},
		strategy.Backoff(backoff.Linear(r.Backoff)),
	)
}

// NewRetryPolicy returns NoRetry when retries is zero.
func NewRetryPolicy(retries uint, wait time.Duration) RetryPolicy {
	if retries == 0 {
		return NoRetry{}
	}

	return BoundedRetry{Attempts: retries + 1, Backoff: wait}
}
