package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/url-shortener/internal/handlers"
	"github.com/serroba/url-shortener/internal/middleware"
	"github.com/stretchr/testify/assert"
)

func captureMeta(t *testing.T, configure func(*http.Request)) handlers.RequestMeta {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api))

	captured := make(chan handlers.RequestMeta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*pingOutput, error) {
		captured <- handlers.RequestMetaFromContext(ctx)

		return ping(ctx, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	configure(req)

	router.ServeHTTP(httptest.NewRecorder(), req)

	return <-captured
}

func TestRequestMeta(t *testing.T) {
	t.Run("captures user agent and referrer", func(t *testing.T) {
		meta := captureMeta(t, func(r *http.Request) {
			r.Header.Set("User-Agent", "TestAgent/1.0")
			r.Header.Set("Referer", "https://example.com")
		})

		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
		assert.Equal(t, "https://example.com", meta.Referrer)
	})

	t.Run("uses the first X-Forwarded-For address", func(t *testing.T) {
		meta := captureMeta(t, func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1, 172.16.0.1")
		})

		assert.Equal(t, "192.168.1.1", meta.ClientIP)
	})

	t.Run("uses X-Real-IP without X-Forwarded-For", func(t *testing.T) {
		meta := captureMeta(t, func(r *http.Request) {
			r.Header.Set("X-Real-IP", "10.0.0.1")
		})

		assert.Equal(t, "10.0.0.1", meta.ClientIP)
	})

	t.Run("falls back to the remote address", func(t *testing.T) {
		meta := captureMeta(t, func(r *http.Request) {
			r.RemoteAddr = "172.16.0.5:4321"
		})

		assert.Equal(t, "172.16.0.5", meta.ClientIP)
	})
}
