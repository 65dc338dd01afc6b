// Package server exposes the training-load pipeline over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/du-phan/resilio/internal/observability"
	"github.com/du-phan/resilio/internal/server/handler"
	servermw "github.com/du-phan/resilio/internal/server/middleware"
	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/xhttp/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Logger *slog.Logger
	// Limiter throttles the API per client IP; nil disables throttling.
	Limiter storage.RateLimiter
	Now     func() time.Time
}

// New builds the routed, middleware-wrapped handler.
func New(svc handler.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	training := handler.NewTraining(svc, opts.Now)

	api := func(h http.HandlerFunc) http.Handler {
		if opts.Limiter == nil {
			return middleware.Athlete(h)
		}
		return middleware.Chain(h, servermw.RateLimit(opts.Limiter), middleware.Athlete)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/athletes", api(training.HandleUpsertAthlete))
	mux.Handle("POST /api/athletes/{id}/activities", api(training.HandleIngest))
	mux.Handle("POST /api/athletes/{id}/checkins", api(training.HandleCheckIn))
	mux.Handle("GET /api/athletes/{id}/metrics", api(training.HandleMetrics))
	mux.Handle("GET /api/athletes/{id}/metrics/history", api(training.HandleHistory))
	mux.Handle("GET /api/athletes/{id}/risk", api(training.HandleRisk))
	mux.Handle("POST /api/athletes/{id}/guardrails", api(training.HandleGuardrails))
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// outer middleware sees the request before routing, so the route label
	// is resolved against the mux
	observe := func(r *http.Request, status int, elapsed time.Duration) {
		_, pattern := mux.Handler(r)
		observability.ObserveHTTP(r.Method, pattern, status, elapsed)
	}

	return middleware.Chain(mux,
		middleware.Recovery,
		middleware.Logging(observe),
		middleware.Logger(logger),
		middleware.RequestID(),
		middleware.Headers,
		middleware.Gzip("/metrics"),
	)
}
