package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/du-phan/resilio/internal/xcontext"
	"github.com/du-phan/resilio/internal/xhttp"
	"github.com/du-phan/resilio/internal/xslog"
)

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"), mark("third"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if diff := cmp.Diff([]string{"first", "second", "third", "handler"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestID(WithIDFunc(func(*http.Request) string { return "req-1" }))(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen, _ = xcontext.GetRequestID(r.Context())
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen != "req-1" {
		t.Errorf("context request id = %q, want %q", seen, "req-1")
	}
	if got := rec.Header().Get(xhttp.XRequestID); got != "req-1" {
		t.Errorf("header request id = %q, want %q", got, "req-1")
	}
}

func TestRecoveryReturns500(t *testing.T) {
	t.Parallel()

	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/athletes/a1/risk", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestAthleteScopesLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	mux := http.NewServeMux()
	mux.Handle("GET /api/athletes/{id}/risk", Athlete(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		xslog.FromContext(r.Context()).InfoContext(r.Context(), "assessed")
	})))
	h := Chain(mux, Logger(base))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/athletes/a7/risk", nil))

	if !strings.Contains(buf.String(), `"athlete_id":"a7"`) {
		t.Errorf("log line = %s, want athlete_id a7", buf.String())
	}
}
