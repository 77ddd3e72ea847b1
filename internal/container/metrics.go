package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/metrics"
	"go.uber.org/zap"
)

const metricsReadHeaderTimeout = 5 * time.Second

// MetricsServer exposes /metrics on its own port for processes without an API.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

// Handler serves the scrape endpoint.
func (m *MetricsServer) Handler() http.Handler {
	return m.server.Handler
}

// Start listens in the background until Shutdown is called.
func (m *MetricsServer) Start() {
	go func() {
		m.logger.Info("metrics server listening", zap.String("addr", m.server.Addr))

		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

func (m *MetricsServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.server.Shutdown(ctx)
}

// MetricsPackage provides the standalone metrics server used by the consumer.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*MetricsServer, error) {
		opts := do.MustInvoke[*Options](i)

		metrics.Register(prometheus.DefaultRegisterer)

		router := chi.NewMux()
		router.Handle("/metrics", promhttp.Handler())

		return &MetricsServer{
			server: &http.Server{
				Addr:              fmt.Sprintf(":%d", opts.MetricsPort),
				Handler:           router,
				ReadHeaderTimeout: metricsReadHeaderTimeout,
			},
			logger: do.MustInvoke[*zap.Logger](i),
		}, nil
	})
}
