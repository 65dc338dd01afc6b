package middleware

import (
	"net/http"

	"github.com/du-phan/resilio/internal/storage"
	"github.com/du-phan/resilio/internal/xerrors"
	"github.com/du-phan/resilio/internal/xhttp"
	"github.com/du-phan/resilio/internal/xslog"
)

// RateLimit applies IP-based rate limiting.
func RateLimit(limiter storage.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := xhttp.GetRequestIP(r)

			allowed, err := limiter.Allow(ctx, ip)
			if err != nil {
				xslog.FromContext(ctx).ErrorContext(ctx, "rate limit check failed",
					xslog.ErrorGroup(err),
					xslog.RequestIP(r),
				)
				xerrors.WriteError(ctx, w, xerrors.Unavailable(xerrors.WithMessage("rate limit check failed")))
				return
			}

			if !allowed {
				xerrors.WriteError(ctx, w, xerrors.RateLimited(xerrors.WithMessage("too many requests")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
