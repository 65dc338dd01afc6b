package middleware

import (
	"log/slog"
	"net/http"

	"github.com/du-phan/resilio/internal/xcontext"
	"github.com/du-phan/resilio/internal/xslog"
)

// Logger injects an enriched logger into request context.
// Must run AFTER RequestID middleware.
func Logger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base
			if id, ok := xcontext.GetRequestID(r.Context()); ok {
				logger = logger.With(xslog.RequestID(id))
			}
			ctx := xslog.WithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Athlete scopes the request logger to the {id} path value. It must wrap a
// handler registered on a pattern, where path values are populated.
func Athlete(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.PathValue("id"); id != "" {
			r = r.WithContext(xslog.WithAthlete(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
