package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/du-phan/resilio/internal/xcontext"
	"github.com/du-phan/resilio/internal/xhttp"
)

type RequestIDMiddleware struct {
	IDFunc func(*http.Request) string
}

// defaultIDFunc reuses an upstream request id when a gateway already set one.
func defaultIDFunc(r *http.Request) string {
	if id := r.Header.Get(xhttp.XRequestID); id != "" {
		return id
	}
	return uuid.New().String()
}

type RequestIDOption func(*RequestIDMiddleware)

func WithIDFunc(fn func(*http.Request) string) RequestIDOption {
	return func(m *RequestIDMiddleware) { m.IDFunc = fn }
}

func RequestID(opts ...RequestIDOption) func(http.Handler) http.Handler {
	middleware := &RequestIDMiddleware{IDFunc: defaultIDFunc}
	for _, opt := range opts {
		opt(middleware)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := middleware.IDFunc(r)
			ctx := xcontext.SetRequestID(r.Context(), id)
			xhttp.SetHeaderRequestID(w, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
