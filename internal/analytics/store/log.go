package store

import (
	"context"

	"github.com/serroba/url-shortener/internal/analytics"
	"go.uber.org/zap"
)

// Log writes events to the logger at debug level. It backs deployments
// without PostgreSQL.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger.Named("analytics")}
}

func (l *Log) SaveURLCreated(_ context.Context, e *analytics.URLCreatedEvent) error {
	l.logger.Debug("url created",
		zap.String("code", e.Code),
		zap.String("long_url", e.LongURL),
		zap.String("client_ip", e.ClientIP),
		zap.Time("at", e.CreatedAt),
	)

	return nil
}

func (l *Log) SaveURLAccessed(_ context.Context, e *analytics.URLAccessedEvent) error {
	l.logger.Debug("url accessed",
		zap.String("code", e.Code),
		zap.String("client_ip", e.ClientIP),
		zap.String("referrer", e.Referrer),
		zap.Time("at", e.AccessedAt),
	)

	return nil
}

var (
	_ analytics.Store = (*Log)(nil)
	_ analytics.Store = (*Postgres)(nil)
)
