package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/trusted-shortener/internal/analytics"
)

const eventsSchema = `
	CREATE TABLE IF NOT EXISTS link_created_events (
		id                BIGSERIAL PRIMARY KEY,
		hash              TEXT NOT NULL,
		target            TEXT NOT NULL,
		sponsor           TEXT NOT NULL DEFAULT '',
		redirection_limit BIGINT,
		client_ip         TEXT NOT NULL DEFAULT '',
		user_agent        TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS click_events (
		id         BIGSERIAL PRIMARY KEY,
		hash       TEXT NOT NULL,
		client_ip  TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		referrer   TEXT NOT NULL DEFAULT '',
		clicked_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS click_events_hash_idx ON click_events (hash)
`

// Postgres persists analytics events with pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL analytics store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the event tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, eventsSchema)

	return err
}

func (p *Postgres) SaveLinkCreated(ctx context.Context, event *analytics.LinkCreatedEvent) error {
	query := `
		INSERT INTO link_created_events (hash, target, sponsor, redirection_limit, client_ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		event.Hash,
		event.Target,
		event.Sponsor,
		event.RedirectionLimit,
		event.ClientIP,
		event.UserAgent,
		event.CreatedAt,
	)

	return err
}

func (p *Postgres) SaveClick(ctx context.Context, event *analytics.ClickEvent) error {
	query := `
		INSERT INTO click_events (hash, client_ip, user_agent, referrer, clicked_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.pool.Exec(ctx, query,
		event.Hash,
		event.ClientIP,
		event.UserAgent,
		event.Referrer,
		event.ClickedAt,
	)

	return err
}

// CountClicks returns the number of recorded clicks for hash.
func (p *Postgres) CountClicks(ctx context.Context, hash string) (int64, error) {
	var count int64

	err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM click_events WHERE hash = $1", hash).Scan(&count)

	return count, err
}

// Compile-time check.
var _ analytics.Store = (*Postgres)(nil)
