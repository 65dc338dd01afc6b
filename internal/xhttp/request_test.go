package xhttp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetRequestIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		xForwardedFor string
		remoteAddr    string
		expectedIP    string
	}{
		{
			name:          "x-forwarded-for with IP only",
			xForwardedFor: "203.0.113.195",
			remoteAddr:    "192.0.2.1:1234",
			expectedIP:    "203.0.113.195",
		},
		{
			name:          "x-forwarded-for with IP and port",
			xForwardedFor: "203.0.113.195:8080",
			remoteAddr:    "192.0.2.1:1234",
			expectedIP:    "203.0.113.195",
		},
		{
			name:       "remote addr with IP and port",
			remoteAddr: "192.0.2.1:1234",
			expectedIP: "192.0.2.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.1",
			expectedIP: "192.0.2.1",
		},
		{
			name:          "IPv6 with port in x-forwarded-for",
			xForwardedFor: "[2001:db8::1]:8080",
			remoteAddr:    "192.0.2.1:1234",
			expectedIP:    "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				r.Header.Set(XForwardedFor, tt.xForwardedFor)
			}
			if got := GetRequestIP(r); got != tt.expectedIP {
				t.Errorf("GetRequestIP() = %q, want %q", got, tt.expectedIP)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name      string
		body      string
		want      string
		wantErr   bool
		wantEmpty bool
	}{
		{name: "valid body", body: `{"name":"tempo"}`, want: "tempo"},
		{name: "empty body", body: "", wantErr: true, wantEmpty: true},
		{name: "unknown field", body: `{"name":"x","extra":1}`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got payload
			err := DecodeJSON(r, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantEmpty && !errors.Is(err, ErrEmptyBody) {
				t.Errorf("DecodeJSON() error = %v, want ErrEmptyBody", err)
			}
			if !tt.wantErr && got.Name != tt.want {
				t.Errorf("DecodeJSON() name = %q, want %q", got.Name, tt.want)
			}
		})
	}
}
