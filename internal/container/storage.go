package container

import (
	"fmt"
	"time"

	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/health"
	"github.com/serroba/url-shortener/internal/shortener"
	"github.com/serroba/url-shortener/internal/store"
	"go.uber.org/zap"
)

// StorePackage selects the durable repository from Options.StoreDriver.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.SQLiteStore, error) {
		return store.OpenSQLite(do.MustInvoke[*Options](i).SQLitePath)
	})

	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.StoreDriver {
		case DriverPostgres:
			pg, err := do.Invoke[*store.PostgresStore](i)
			if err != nil {
				return nil, err
			}

			return pg, nil
		case DriverSQLite:
			lite, err := do.Invoke[*store.SQLiteStore](i)
			if err != nil {
				return nil, err
			}

			return lite, nil
		case DriverMemory:
			return store.NewMemoryStore(), nil
		default:
			return nil, fmt.Errorf("unknown store driver %q", opts.StoreDriver)
		}
	})
}

// CachePackage layers the in-process cache over Redis when Redis is configured.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.LocalCache, error) {
		opts := do.MustInvoke[*Options](i)

		return store.NewLocalCache(int64(opts.LocalCacheSize), store.DefaultLocalTTL)
	})

	do.Provide(i, func(i *do.Injector) (shortener.Cache, error) {
		opts := do.MustInvoke[*Options](i)

		local, err := do.Invoke[*store.LocalCache](i)
		if err != nil {
			return nil, err
		}

		if !opts.RedisEnabled() {
			return local, nil
		}

		client := do.MustInvoke[*RedisClient](i)

		return store.NewTieredCache(local, store.NewRedisCache(client.Client)), nil
	})
}

func ResolverPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Resolver, error) {
		opts := do.MustInvoke[*Options](i)

		generator, err := shortener.NewCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		cache, err := do.Invoke[shortener.Cache](i)
		if err != nil {
			return nil, err
		}

		return shortener.NewResolver(repo, cache, generator, opts.PublicBaseURL(),
			shortener.WithCacheTTL(time.Duration(opts.CacheTTL)*time.Second),
			shortener.WithStoreTimeout(millis(opts.StoreTimeout)),
			shortener.WithCacheTimeout(millis(opts.CacheTimeout)),
			shortener.WithMaxAttempts(opts.MaxAttempts),
			shortener.WithLogger(do.MustInvoke[*zap.Logger](i)),
		), nil
	})
}

// HealthPackage reports Redis and the durable store. Dependencies that are
// not configured, or cannot be pinged, show up as disabled.
func HealthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)

		var redisChecker, storeChecker health.Checker

		if opts.RedisEnabled() {
			redisChecker = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
		}

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		if c, ok := repo.(health.Checker); ok {
			storeChecker = c
		}

		return health.NewHandler(redisChecker, storeChecker), nil
	})
}
