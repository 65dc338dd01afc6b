package xhttp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	go_json "github.com/goccy/go-json"
)

// MaxBodyBytes bounds request bodies; a season of activities fits comfortably.
const MaxBodyBytes = 4 << 20

var ErrEmptyBody = errors.New("request body is empty")

func GetRequestIP(r *http.Request) string {
	if xff := r.Header.Get(XForwardedFor); xff != "" {
		if ip, _, err := net.SplitHostPort(xff); err == nil {
			return ip
		}
		return xff
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func DecodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() { _ = body.Close() }()

	dec := go_json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}
