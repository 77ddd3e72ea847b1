package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/serroba/url-shortener/internal/analytics"
)

const (
	kindCreated  = "created"
	kindAccessed = "accessed"
)

const insertEvent = `
	INSERT INTO url_events (kind, code, long_url, client_ip, user_agent, referrer, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Execer is the subset of pgxpool.Pool used to write events.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres appends analytics events to the url_events table.
type Postgres struct {
	db Execer
}

func NewPostgres(db Execer) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) SaveURLCreated(ctx context.Context, event *analytics.URLCreatedEvent) error {
	return p.insert(ctx, kindCreated, event.Code, event.LongURL,
		event.ClientIP, event.UserAgent, "", event.CreatedAt)
}

func (p *Postgres) SaveURLAccessed(ctx context.Context, event *analytics.URLAccessedEvent) error {
	return p.insert(ctx, kindAccessed, event.Code, "",
		event.ClientIP, event.UserAgent, event.Referrer, event.AccessedAt)
}

func (p *Postgres) insert(
	ctx context.Context,
	kind, code, longURL, clientIP, userAgent, referrer string,
	at time.Time,
) error {
	_, err := p.db.Exec(ctx, insertEvent,
		kind, code, nullable(longURL), nullable(clientIP),
		nullable(userAgent), nullable(referrer), at)
	if err != nil {
		return fmt.Errorf("save %s event for %s: %w", kind, code, err)
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
