package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrHashCollision is returned when a different target already owns the hash.
var ErrHashCollision = errors.New("hash already assigned to another url")

// RedirectionLimiter registers redirection quotas at creation time.
type RedirectionLimiter interface {
	Configure(ctx context.Context, hash string, limit int64) error
}

// ValidationQueue hands created targets to the background validators.
type ValidationQueue interface {
	Enqueue(ctx context.Context, url string) error
}

// CreateOptions carries the optional data supplied with a new URL.
type CreateOptions struct {
	Limit   *int64
	IP      string
	Sponsor string
}

// Creator shortens URLs and schedules their trust validation.
type Creator struct {
	store   Repository
	limiter RedirectionLimiter
	queue   ValidationQueue
	now     func() time.Time
}

// NewCreator creates a new creation service.
func NewCreator(store Repository, limiter RedirectionLimiter, queue ValidationQueue) *Creator {
	return &Creator{
		store:   store,
		limiter: limiter,
		queue:   queue,
		now:     time.Now,
	}
}

// Create persists a new short URL in the unvalidated state, registers its quota and
// enqueues its target for validation. Identical URLs resolve to the existing record,
// whose flags and quota are left untouched.
func (c *Creator) Create(ctx context.Context, rawURL string, opts CreateOptions) (*ShortURL, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	hash := HashURL(target)

	existing, err := c.store.GetByHash(ctx, hash)
	if err == nil {
		if existing.Target != target {
			return nil, fmt.Errorf("%w: %s", ErrHashCollision, hash)
		}

		if !existing.Properties.Validated() {
			if err = c.queue.Enqueue(ctx, existing.Target); err != nil {
				return nil, fmt.Errorf("enqueue validation: %w", err)
			}
		}

		return existing, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	shortURL := &ShortURL{
		Hash:   hash,
		Target: target,
		Properties: Properties{
			IP:      opts.IP,
			Sponsor: opts.Sponsor,
		},
		CreatedAt: c.now(),
	}

	if opts.Limit != nil && *opts.Limit > 0 {
		limit := *opts.Limit
		shortURL.Properties.RedirectionLimit = &limit
	}

	// The bucket exists before the record can be served.
	if limit := shortURL.Properties.RedirectionLimit; limit != nil {
		if err = c.limiter.Configure(ctx, string(hash), *limit); err != nil {
			return nil, fmt.Errorf("configure redirection limit: %w", err)
		}
	}

	if err = c.store.Save(ctx, shortURL); err != nil {
		return nil, err
	}

	if err = c.queue.Enqueue(ctx, target); err != nil {
		return nil, fmt.Errorf("enqueue validation: %w", err)
	}

	return shortURL, nil
}
