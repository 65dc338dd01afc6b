package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRiskAssessment(t *testing.T) {
	beforeForced := testutil.ToFloat64(forcedRest)
	beforeDanger := testutil.ToFloat64(riskAssessments.WithLabelValues("danger"))

	RecordRiskAssessment("danger", true)
	RecordRiskAssessment("danger", false)

	if got := testutil.ToFloat64(forcedRest) - beforeForced; got != 1 {
		t.Errorf("forced rest delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(riskAssessments.WithLabelValues("danger")) - beforeDanger; got != 2 {
		t.Errorf("danger assessments delta = %v, want 2", got)
	}
}

func TestRecordRecompute(t *testing.T) {
	before := testutil.ToFloat64(daysRecomputed)

	RecordRecompute(14, 3*time.Millisecond)

	if got := testutil.ToFloat64(daysRecomputed) - before; got != 14 {
		t.Errorf("days recomputed delta = %v, want 14", got)
	}
}

func TestObserveHTTPUnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404"))

	ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404"))
	if after-before != 1 {
		t.Errorf("unmatched 404 delta = %v, want 1", after-before)
	}
}
