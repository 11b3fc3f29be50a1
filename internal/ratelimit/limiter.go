package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWindow is the period over which a bucket regains its full capacity.
	DefaultWindow = 60 * time.Minute
	// DefaultRetryAfter is the hint returned to callers whose bucket is empty.
	DefaultRetryAfter = 60 * time.Second
)

// Decision is the outcome of an admission attempt.
type Decision struct {
	Allowed bool
	// RetryAfter is only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Limiter bounds how many redirections each hash may serve per window.
// Hashes without a configured limit are unlimited.
type Limiter struct {
	store      Store
	window     time.Duration
	retryAfter time.Duration
	restore    sync.Mutex
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithWindow overrides the refill window.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithRetryAfter overrides the retry hint for exhausted buckets.
func WithRetryAfter(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.retryAfter = d
		}
	}
}

// NewLimiter creates a new per-hash redirection limiter.
func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:      store,
		window:     DefaultWindow,
		retryAfter: DefaultRetryAfter,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Configure establishes a bucket of capacity limit for hash. A non-positive
// limit leaves the hash unlimited.
func (l *Limiter) Configure(ctx context.Context, hash string, limit int64) error {
	if limit <= 0 {
		return nil
	}

	return l.store.Define(ctx, hash, limit, l.window)
}

// Admit consumes one token from the bucket registered for hash. limit is the
// quota recorded with the hash. A missing bucket for a limited hash, such as
// after a restart or a failed Configure, is defined again before taking.
func (l *Limiter) Admit(ctx context.Context, hash string, limit int64) (Decision, error) {
	taken, found, err := l.store.Take(ctx, hash)
	if err != nil {
		return Decision{}, err
	}

	if !found && limit > 0 {
		taken, err = l.restoreAndTake(ctx, hash, limit)
		if err != nil {
			return Decision{}, err
		}

		found = true
	}

	if !found || taken {
		return Decision{Allowed: true}, nil
	}

	return Decision{Allowed: false, RetryAfter: l.retryAfter}, nil
}

func (l *Limiter) restoreAndTake(ctx context.Context, hash string, limit int64) (bool, error) {
	l.restore.Lock()
	defer l.restore.Unlock()

	// Another caller may have restored the bucket while this one waited.
	taken, found, err := l.store.Take(ctx, hash)
	if err != nil || found {
		return taken, err
	}

	if err = l.store.Define(ctx, hash, limit, l.window); err != nil {
		return false, err
	}

	taken, _, err = l.store.Take(ctx, hash)

	return taken, err
}

// Window returns the configured refill window.
func (l *Limiter) Window() time.Duration {
	return l.window
}
