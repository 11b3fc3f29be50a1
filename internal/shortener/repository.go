package shortener

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when no record matches.
var ErrNotFound = errors.New("short url not found")

// Repository defines the storage operations the core depends on.
// Save is an upsert keyed by hash; implementations make it atomic per record.
type Repository interface {
	Save(ctx context.Context, shortURL *ShortURL) error
	GetByHash(ctx context.Context, hash Hash) (*ShortURL, error)

	// GetByTarget retrieves the record whose target equals url exactly.
	GetByTarget(ctx context.Context, url string) (*ShortURL, error)
}
