package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for token bucket storage, one bucket per key.
// Implementations must make Take atomic per key: concurrent callers never
// consume more tokens than the bucket holds.
type Store interface {
	// Define creates or replaces the bucket for key. The bucket starts full and
	// regains capacity tokens every window.
	Define(ctx context.Context, key string, capacity int64, window time.Duration) error

	// Take consumes one token. found is false when no bucket exists for key.
	Take(ctx context.Context, key string) (taken, found bool, err error)
}
