package xhttp

import (
	"net/http"

	"github.com/du-phan/resilio/internal/version"
)

const (
	XForwardedFor    = "X-Forwarded-For"
	XContentTypeOpts = "X-Content-Type-Options"
	XRequestID       = "X-Request-ID"
)

const ContentType = "Content-Type"

func SetHeaderRequestID(w http.ResponseWriter, requestID string) {
	w.Header().Set(XRequestID, requestID)
}

func SetHeaderContentTypeApplicationJSON(w http.ResponseWriter) {
	const applicationJSON = "application/json"
	w.Header().Set(ContentType, applicationJSON)
}

func SetHeaderVersion(w http.ResponseWriter) {
	w.Header().Set(version.Header, version.Get())
}

func SetHeaderNoSniff(w http.ResponseWriter) {
	w.Header().Set(XContentTypeOpts, "nosniff")
}

const (
	AcceptEncoding  = "Accept-Encoding"
	ContentEncoding = "Content-Encoding"
	ContentLength   = "Content-Length"
	Vary            = "Vary"
)
