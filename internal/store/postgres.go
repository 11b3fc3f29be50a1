package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/trusted-shortener/internal/shortener"
)

const shortURLSchema = `
	CREATE TABLE IF NOT EXISTS short_urls (
		hash              TEXT PRIMARY KEY,
		target            TEXT NOT NULL UNIQUE,
		safe              BOOLEAN,
		reachable         BOOLEAN,
		redirection_limit BIGINT,
		ip                TEXT NOT NULL DEFAULT '',
		sponsor           TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL
	)
`

const selectShortURL = `
	SELECT hash, target, safe, reachable, redirection_limit, ip, sponsor, created_at
	FROM short_urls
`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
// Unset trust flags are stored as NULL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the short_urls table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, shortURLSchema)

	return err
}

// Save upserts the record. Only the mutable properties change on conflict.
func (p *PostgresStore) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	query := `
		INSERT INTO short_urls (hash, target, safe, reachable, redirection_limit, ip, sponsor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (hash) DO UPDATE SET
			safe = EXCLUDED.safe,
			reachable = EXCLUDED.reachable,
			redirection_limit = EXCLUDED.redirection_limit,
			ip = EXCLUDED.ip,
			sponsor = EXCLUDED.sponsor
	`

	props := shortURL.Properties

	_, err := p.pool.Exec(ctx, query,
		string(shortURL.Hash),
		shortURL.Target,
		props.Safe,
		props.Reachable,
		props.RedirectionLimit,
		props.IP,
		props.Sponsor,
		shortURL.CreatedAt,
	)

	return err
}

func (p *PostgresStore) GetByHash(ctx context.Context, hash shortener.Hash) (*shortener.ShortURL, error) {
	return p.queryOne(ctx, selectShortURL+" WHERE hash = $1", string(hash))
}

func (p *PostgresStore) GetByTarget(ctx context.Context, target string) (*shortener.ShortURL, error) {
	return p.queryOne(ctx, selectShortURL+" WHERE target = $1", target)
}

func (p *PostgresStore) queryOne(ctx context.Context, query string, arg string) (*shortener.ShortURL, error) {
	var (
		url  shortener.ShortURL
		hash string
	)

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&hash,
		&url.Target,
		&url.Properties.Safe,
		&url.Properties.Reachable,
		&url.Properties.RedirectionLimit,
		&url.Properties.IP,
		&url.Properties.Sponsor,
		&url.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	url.Hash = shortener.Hash(hash)

	return &url, nil
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
