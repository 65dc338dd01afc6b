package middleware

import (
	"net/http"
	"time"

	"github.com/du-phan/resilio/internal/xslog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Observer receives the outcome of every request; the server feeds it to prometheus.
type Observer func(r *http.Request, status int, elapsed time.Duration)

func Logging(observers ...Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			elapsed := time.Since(start)
			for _, observe := range observers {
				observe(r, wrapped.status, elapsed)
			}

			xslog.FromContext(r.Context()).InfoContext(
				r.Context(),
				"http request",
				xslog.RequestGroup(r),
				xslog.ResponseGroup(wrapped.status, elapsed),
			)
		})
	}
}
