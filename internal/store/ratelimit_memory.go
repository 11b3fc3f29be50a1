package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// memoryBucket regains its whole capacity once per window, like the Redis
// script. The rate.Limiter regains less than one token within a window and is
// replaced with a full one at every window boundary.
type memoryBucket struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	capacity int
	window   time.Duration
	refillAt time.Time
}

func newMemoryBucket(capacity int, window time.Duration, now time.Time) *memoryBucket {
	return &memoryBucket{
		limiter:  rate.NewLimiter(rate.Every(window), capacity),
		capacity: capacity,
		window:   window,
		refillAt: now.Add(window),
	}
}

func (b *memoryBucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !now.Before(b.refillAt) {
		periods := now.Sub(b.refillAt)/b.window + 1
		b.refillAt = b.refillAt.Add(periods * b.window)
		b.limiter = rate.NewLimiter(rate.Every(b.window), b.capacity)
	}

	return b.limiter.AllowN(now, 1)
}

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// Buckets live for the process lifetime.
type RateLimitMemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]*memoryBucket
	now     func() time.Time
}

// RateLimitMemoryOption customizes a RateLimitMemoryStore.
type RateLimitMemoryOption func(*RateLimitMemoryStore)

// WithRateLimitClock replaces the clock used for window boundaries.
func WithRateLimitClock(now func() time.Time) RateLimitMemoryOption {
	return func(s *RateLimitMemoryStore) {
		s.now = now
	}
}

// NewRateLimitMemoryStore creates a new in-memory bucket store.
func NewRateLimitMemoryStore(opts ...RateLimitMemoryOption) *RateLimitMemoryStore {
	s := &RateLimitMemoryStore{
		buckets: make(map[string]*memoryBucket),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RateLimitMemoryStore) Define(_ context.Context, key string, capacity int64, window time.Duration) error {
	bucket := newMemoryBucket(int(capacity), window, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets[key] = bucket

	return nil
}

func (s *RateLimitMemoryStore) Take(_ context.Context, key string) (bool, bool, error) {
	s.mu.RLock()
	bucket, ok := s.buckets[key]
	s.mu.RUnlock()

	if !ok {
		return false, false, nil
	}

	return bucket.take(s.now()), true, nil
}

// Len returns the number of registered buckets.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.buckets)
}
