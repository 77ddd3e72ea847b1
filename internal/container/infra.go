package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/logger"
	"github.com/serroba/url-shortener/internal/store"
	"go.uber.org/zap"
)

// RedisClient lets the injector close the client on shutdown. The client is
// a named field: embedding it would clash with UniversalClient.Shutdown.
type RedisClient struct {
	Client redis.UniversalClient
}

func (c *RedisClient) Shutdown() error {
	return c.Client.Close()
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return logger.New(logger.Config{Format: opts.LogFormat, Level: opts.LogLevel})
	})
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage connects to PostgreSQL and creates the tables on first use.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		opts := do.MustInvoke[*Options](i)
		log := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), millis(opts.StoreTimeout))
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()

			return nil, err
		}

		log.Info("postgres ready")

		return pg, nil
	})
}
