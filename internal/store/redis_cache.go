package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/trusted-shortener/internal/shortener"
)

// RedisCacheRepository wraps a Repository with Redis caching for reads.
type RedisCacheRepository struct {
	store     shortener.Repository
	client    *redis.Client
	prefix    string
	targetKey string
	ttl       time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:     store,
		client:    client,
		prefix:    "url:",
		targetKey: "url_targets",
		ttl:       ttl,
	}
}

// Save stores a short URL in the underlying store and updates the cache.
func (r *RedisCacheRepository) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	if err := r.store.Save(ctx, shortURL); err != nil {
		return err
	}

	// Write-through so trust flags written by validators are visible to the gate
	r.cacheURL(ctx, shortURL)

	return nil
}

// GetByHash retrieves a short URL by its hash, checking cache first.
func (r *RedisCacheRepository) GetByHash(ctx context.Context, hash shortener.Hash) (*shortener.ShortURL, error) {
	if url, err := r.getFromCache(ctx, hash); err == nil {
		return url, nil
	}

	url, err := r.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, url)

	return url, nil
}

// GetByTarget retrieves a short URL by its target, using the target index first.
func (r *RedisCacheRepository) GetByTarget(ctx context.Context, target string) (*shortener.ShortURL, error) {
	hash, err := r.client.HGet(ctx, r.targetKey, target).Result()
	if err == nil {
		if url, err := r.getFromCache(ctx, shortener.Hash(hash)); err == nil {
			return url, nil
		}
	}

	url, err := r.store.GetByTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, url)

	return url, nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, hash shortener.Hash) (*shortener.ShortURL, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(hash)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos)
		}
	}

	var limit *int64

	if raw := result["redirection_limit"]; raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = &n
		}
	}

	return &shortener.ShortURL{
		Hash:   shortener.Hash(result["hash"]),
		Target: result["target"],
		Properties: shortener.Properties{
			Safe:             parseFlag(result["safe"]),
			Reachable:        parseFlag(result["reachable"]),
			RedirectionLimit: limit,
			IP:               result["ip"],
			Sponsor:          result["sponsor"],
		},
		CreatedAt: createdAt,
	}, nil
}

func (r *RedisCacheRepository) cacheURL(ctx context.Context, url *shortener.ShortURL) {
	pipe := r.client.Pipeline()
	key := r.prefix + string(url.Hash)

	limit := ""
	if url.Properties.RedirectionLimit != nil {
		limit = strconv.FormatInt(*url.Properties.RedirectionLimit, 10)
	}

	pipe.HSet(ctx, key, map[string]interface{}{
		"hash":              string(url.Hash),
		"target":            url.Target,
		"safe":              formatFlag(url.Properties.Safe),
		"reachable":         formatFlag(url.Properties.Reachable),
		"redirection_limit": limit,
		"ip":                url.Properties.IP,
		"sponsor":           url.Properties.Sponsor,
		"created_at":        url.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	pipe.HSet(ctx, r.targetKey, url.Target, string(url.Hash))

	_, _ = pipe.Exec(ctx)
}

// formatFlag encodes an optional flag; the empty string means unset.
func formatFlag(b *bool) string {
	if b == nil {
		return ""
	}

	return strconv.FormatBool(*b)
}

func parseFlag(s string) *bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}

	return &b
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
