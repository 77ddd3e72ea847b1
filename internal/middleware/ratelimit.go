package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/url-shortener/internal/ratelimit"
	"go.uber.org/zap"
)

const rateLimitedMessage = "Too many requests"

// limiterTimeout bounds each counter store call.
const limiterTimeout = 100 * time.Millisecond

// PolicyRateLimiter enforces the limiter's policy for the scopes the resolver
// assigns to each request. Operations may carry a ratelimit.EndpointConfig
// under ratelimit.MetadataKey to opt out, pin a scope or set their own limits.
//
// A failing limiter store fails open: losing Redis must not take redirects down.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)

		switch {
		case cfg != nil && cfg.Disabled:
			next(ctx)
		case cfg != nil && len(cfg.Limits) > 0:
			if allowCustom(api, ctx, limiter.Store(), cfg.Limits, logger) {
				next(ctx)
			}
		default:
			if allowPolicy(api, ctx, limiter, resolver, logger) {
				next(ctx)
			}
		}
	}
}

func allowPolicy(
	api huma.API,
	ctx huma.Context,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) bool {
	rlCtx, cancel := context.WithTimeout(ctx.Context(), limiterTimeout)
	defer cancel()

	allowed, exceeded, err := limiter.Allow(rlCtx, clientKey(ctx), resolver.Resolve(ctx))
	if err != nil {
		logger.Warn("rate limit check failed, allowing request",
			zap.String("route", route(ctx)), zap.Error(err))

		return true
	}

	if allowed {
		return true
	}

	fields := []zap.Field{
		zap.String("route", route(ctx)),
		zap.String("method", ctx.Method()),
		zap.String("client_ip", clientIP(ctx)),
	}
	if exceeded != nil {
		fields = append(fields,
			zap.String("scope", string(exceeded.Scope)),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.Duration("window", exceeded.Config.Window),
		)
	}

	logger.Info("rate limit exceeded", fields...)
	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, rateLimitedMessage)

	return false
}

// allowCustom counts per client and route template, so /url/abc and /url/xyz
// share one counter.
func allowCustom(
	api huma.API,
	ctx huma.Context,
	store ratelimit.Store,
	limits []ratelimit.LimitConfig,
	logger *zap.Logger,
) bool {
	key := clientKey(ctx)
	path := route(ctx)

	rlCtx, cancel := context.WithTimeout(ctx.Context(), limiterTimeout)
	defer cancel()

	for _, limit := range limits {
		count, err := store.Record(rlCtx,
			fmt.Sprintf("%s:custom:%s:%d", key, path, limit.Window.Milliseconds()), limit.Window)
		if err != nil {
			logger.Warn("custom rate limit check failed, allowing request",
				zap.String("route", path), zap.Error(err))

			return true
		}

		if count > limit.Max {
			logger.Info("custom rate limit exceeded",
				zap.String("route", path),
				zap.String("method", ctx.Method()),
				zap.String("client_ip", clientIP(ctx)),
				zap.Int64("count", count),
				zap.Int64("max", limit.Max),
				zap.Duration("window", limit.Window),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, rateLimitedMessage)

			return false
		}
	}

	return true
}

func route(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ctx.URL().Path
}
