package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/handlers"
	"github.com/serroba/url-shortener/internal/health"
	"github.com/serroba/url-shortener/internal/metrics"
	"github.com/serroba/url-shortener/internal/middleware"
	"github.com/serroba/url-shortener/internal/ratelimit"
	"github.com/serroba/url-shortener/internal/shortener"
	"github.com/serroba/url-shortener/internal/store"
	"go.uber.org/zap"
)

// RateLimitPackage shares counters through Redis when available so limits
// hold across instances.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		var counters ratelimit.Store = store.NewRateLimitMemoryStore()

		if do.MustInvoke[*Options](i).RedisEnabled() {
			counters = store.NewRateLimitRedisStore(do.MustInvoke[*RedisClient](i).Client)
		}

		return ratelimit.NewPolicyLimiter(counters, ratelimit.DefaultPolicy()), nil
	})
}

func URLHandlerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*handlers.URLHandler, error) {
		resolver, err := do.Invoke[*shortener.Resolver](i)
		if err != nil {
			return nil, err
		}

		created, accessed, err := publishers(i)
		if err != nil {
			return nil, err
		}

		return handlers.NewURLHandler(resolver, created, accessed, do.MustInvoke[*zap.Logger](i)), nil
	})
}

// HTTPPackage provides the router and the huma API with every route mounted.
// Invoking huma.API is what registers the routes.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		log := do.MustInvoke[*zap.Logger](i)

		handlers.UseErrorEnvelope()

		config := huma.DefaultConfig("URL Shortener", "1.0.0")
		// No $schema links: response bodies are exactly the documented envelope.
		config.CreateHooks = nil

		api := humachi.New(router, config)
		api.UseMiddleware(middleware.Metrics(api), middleware.RequestMeta(api))

		if opts.RateLimit {
			limiter := do.MustInvoke[*ratelimit.PolicyLimiter](i)
			api.UseMiddleware(middleware.PolicyRateLimiter(api, limiter, ratelimit.NewOperationScopeResolver(), log))
		}

		metrics.Register(prometheus.DefaultRegisterer)
		router.Handle("/metrics", promhttp.Handler())

		healthHandler, err := do.Invoke[*health.Handler](i)
		if err != nil {
			return nil, err
		}

		urlHandler, err := do.Invoke[*handlers.URLHandler](i)
		if err != nil {
			return nil, err
		}

		health.RegisterRoutes(api, healthHandler)
		handlers.RegisterRoutes(api, urlHandler)

		return api, nil
	})
}
