// Package observability exposes the Prometheus collectors of the training
// pipeline and its HTTP surface.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resilio"

var (
	activitiesIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "activities_total",
		Help:      "Activities accepted, by sport and the effort source that resolved them.",
	}, []string{"sport", "effort_source"})

	activitiesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "rejected_total",
		Help:      "Activities rejected before persistence, by error kind.",
	}, []string{"kind"})

	daysRecomputed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "metrics",
		Name:      "days_recomputed_total",
		Help:      "Daily metrics records rewritten by suffix recomputation.",
	})

	recomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "metrics",
		Name:      "recompute_duration_seconds",
		Help:      "Time spent recomputing and persisting one athlete's series suffix.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	sanityWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "metrics",
		Name:      "sanity_warnings_total",
		Help:      "Daily metrics values outside their plausible range, by field.",
	}, []string{"field"})

	riskAssessments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "assessments_total",
		Help:      "Risk assessments produced, by level.",
	}, []string{"level"})

	forcedRest = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "forced_rest_total",
		Help:      "Risk assessments that set the forced rest flag.",
	})

	rollForwardLast = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "last_roll_forward_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed roll-forward of all athletes.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(
		activitiesIngested, activitiesRejected,
		daysRecomputed, recomputeDuration, sanityWarnings,
		riskAssessments, forcedRest, rollForwardLast,
		httpRequests, httpDuration,
	)
}

func RecordActivityIngested(sport, effortSource string) {
	activitiesIngested.WithLabelValues(sport, effortSource).Inc()
}

func RecordActivityRejected(kind string) {
	activitiesRejected.WithLabelValues(kind).Inc()
}

func RecordRecompute(days int, elapsed time.Duration) {
	daysRecomputed.Add(float64(days))
	recomputeDuration.Observe(elapsed.Seconds())
}

func RecordSanityWarning(field string) {
	sanityWarnings.WithLabelValues(field).Inc()
}

func RecordRiskAssessment(level string, forced bool) {
	riskAssessments.WithLabelValues(level).Inc()
	if forced {
		forcedRest.Inc()
	}
}

// RecordRollForward updates the roll-forward watermark.
func RecordRollForward(ts time.Time) {
	if ts.IsZero() {
		return
	}
	rollForwardLast.Set(float64(ts.Unix()))
}

// ObserveHTTP records one served request. route is the mux pattern that
// matched; an empty route is recorded as unmatched.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
