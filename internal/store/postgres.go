package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/url-shortener/internal/shortener"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS short_urls (
	code       TEXT PRIMARY KEY,
	long_url   TEXT NOT NULL,
	short_url  TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- A btree entry cannot hold a row over about 2.7KB, so long URLs are
-- indexed by digest. The full value is still compared on lookup.
CREATE UNIQUE INDEX IF NOT EXISTS short_urls_long_url_md5_idx ON short_urls (md5(long_url));

CREATE TABLE IF NOT EXISTS url_events (
	id          BIGSERIAL PRIMARY KEY,
	kind        TEXT NOT NULL,
	code        TEXT NOT NULL,
	long_url    TEXT,
	client_ip   TEXT,
	user_agent  TEXT,
	referrer    TEXT,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS url_events_code_idx ON url_events (code);
`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables used by the store and the analytics consumer.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return nil
}

func (p *PostgresStore) Insert(ctx context.Context, record *shortener.URLRecord) error {
	query := `
		INSERT INTO short_urls (code, long_url, short_url, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := p.pool.Exec(ctx, query,
		string(record.Code),
		record.LongURL,
		record.ShortURL,
		record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", shortener.ErrUniqueConflict, pgErr.ConstraintName)
		}

		return fmt.Errorf("%w: %w", shortener.ErrStoreUnavailable, err)
	}

	return nil
}

func (p *PostgresStore) FindByCode(ctx context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	query := `
		SELECT code, long_url, short_url, created_at
		FROM short_urls
		WHERE code = $1
	`

	return p.findOne(ctx, query, string(code))
}

func (p *PostgresStore) FindByLongURL(ctx context.Context, longURL string) (*shortener.URLRecord, error) {
	query := `
		SELECT code, long_url, short_url, created_at
		FROM short_urls
		WHERE md5(long_url) = md5($1) AND long_url = $1
	`

	return p.findOne(ctx, query, longURL)
}

func (p *PostgresStore) findOne(ctx context.Context, query string, arg string) (*shortener.URLRecord, error) {
	var record shortener.URLRecord

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&record.Code,
		&record.LongURL,
		&record.ShortURL,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", shortener.ErrStoreUnavailable, err)
	}

	return &record, nil
}

// Pool exposes the connection pool to other writers of the same database.
func (p *PostgresStore) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
