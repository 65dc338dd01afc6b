package middleware

import (
	"net/http"

	"github.com/du-phan/resilio/internal/xhttp"
)

// Headers stamps every response with the build version and disables content sniffing.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xhttp.SetHeaderNoSniff(w)
		xhttp.SetHeaderVersion(w)
		next.ServeHTTP(w, r)
	})
}
