package handler

import (
	"net/http"

	"github.com/du-phan/resilio/internal/version"
	"github.com/du-phan/resilio/internal/xhttp"
)

// HandleHealth handles GET /health.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	xhttp.WriteOK(w, map[string]string{
		"status":  "ok",
		"version": version.Get(),
	})
}
