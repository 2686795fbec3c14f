// Package http exposes the licence desk over HTTP.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RTO-Desk/internal/interfaces/http/handlers"
	"github.com/turtacn/RTO-Desk/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware settings of the route
// tree.  Nil handlers leave their routes unmounted.
type RouterConfig struct {
	DeskHandler   *handlers.DeskHandler
	HealthHandler *handlers.HealthHandler

	// CORS is applied when non-nil.
	CORS *middleware.CORSConfig

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string

	// RequestTimeout bounds each API request; zero disables it.
	RequestTimeout time.Duration

	// MaxBodySize caps request bodies in bytes; zero disables it.
	MaxBodySize int64
}

// NewRouter builds the route tree:
//
//	GET  /healthz, /readyz
//	GET  <MetricsPath>
//	     /api/v1/driving-licenses/...
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	loggingCfg := middleware.DefaultLoggingConfig()
	loggingCfg.Metrics = cfg.Metrics
	if cfg.MetricsPath != "" {
		loggingCfg.SkipPaths = append(loggingCfg.SkipPaths, cfg.MetricsPath)
	}
	r.Use(middleware.RequestLogging(cfg.Logger, loggingCfg))
	r.Use(chimw.Recoverer)

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.MaxBodySize > 0 {
			api.Use(chimw.RequestSize(cfg.MaxBodySize))
		}
		if cfg.RequestTimeout > 0 {
			api.Use(chimw.Timeout(cfg.RequestTimeout))
		}
		if cfg.DeskHandler != nil {
			cfg.DeskHandler.RegisterRoutes(api)
		}
	})

	return r
}
