package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"

	healthy   = "healthy"
	unhealthy = "unhealthy"
	disabled  = "disabled"
)

// DefaultTimeout bounds each dependency ping.
const DefaultTimeout = time.Second

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// NewRedisChecker pings a Redis client.
func NewRedisChecker(client redis.UniversalClient) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// Handler serves the health endpoint. A nil checker is reported as disabled.
type Handler struct {
	redis   Checker
	store   Checker
	timeout time.Duration
}

func NewHandler(redis, store Checker) *Handler {
	return &Handler{redis: redis, store: store, timeout: DefaultTimeout}
}

// Response is the body of GET /health.
type Response struct {
	Body struct {
		Status string `json:"status"`
		Redis  string `json:"redis"`
		Store  string `json:"store"`
	}
}

// Check pings every dependency concurrently. It always answers 200 so that
// load balancers can tell a degraded instance from a dead one.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}

	var g errgroup.Group

	g.Go(func() error {
		resp.Body.Redis = h.probe(ctx, h.redis)

		return nil
	})
	g.Go(func() error {
		resp.Body.Store = h.probe(ctx, h.store)

		return nil
	})

	_ = g.Wait()

	resp.Body.Status = statusOK
	if resp.Body.Redis == unhealthy || resp.Body.Store == unhealthy {
		resp.Body.Status = statusDegraded
	}

	return resp, nil
}

func (h *Handler) probe(ctx context.Context, c Checker) string {
	if c == nil {
		return disabled
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return unhealthy
	}

	return healthy
}

func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Report dependency health",
		Tags:        []string{"Health"},
	}, h.Check)
}
