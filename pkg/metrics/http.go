package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded by the dispatcher.
const (
	OutcomeHandled   = "handled"   // handler completed normally
	OutcomeUnmatched = "unmatched" // no handler was willing (404)
	OutcomeFailed    = "failed"    // handler failed, error response written
	OutcomeThrottled = "throttled" // rejected by the rate limiter (503)
)

// HTTPMetrics provides observability for the request dispatcher.
//
// The interface is optional: passing nil to the dispatcher, or never calling
// InitRegistry, results in a no-op implementation.
type HTTPMetrics interface {
	// RecordRequestStart increments the in-flight request gauge.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request gauge.
	RecordRequestEnd()

	// RecordRequest records a completed request with its method, outcome
	// (one of the Outcome constants) and duration.
	RecordRequest(method, outcome string, duration time.Duration)
}

// NewHTTPMetrics creates a Prometheus-backed HTTPMetrics instance, or a
// no-op implementation when metrics are disabled.
func NewHTTPMetrics() HTTPMetrics {
	if !IsEnabled() {
		return NoopHTTPMetrics()
	}

	reg := GetRegistry()

	return &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfd_http_requests_total",
				Help: "Total number of HTTP requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfd_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "outcome"},
		),
		requestsInFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfd_http_requests_in_flight",
				Help: "Number of HTTP requests currently being dispatched",
			},
		),
	}
}

// httpMetrics is the Prometheus implementation of HTTPMetrics.
type httpMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

func (m *httpMetrics) RecordRequestStart() {
	m.requestsInFlight.Inc()
}

func (m *httpMetrics) RecordRequestEnd() {
	m.requestsInFlight.Dec()
}

func (m *httpMetrics) RecordRequest(method, outcome string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, outcome).Inc()
	m.requestDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

// noopHTTPMetrics discards all observations.
type noopHTTPMetrics struct{}

// NoopHTTPMetrics returns an HTTPMetrics implementation that does nothing.
func NoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

func (noopHTTPMetrics) RecordRequestStart()                         {}
func (noopHTTPMetrics) RecordRequestEnd()                           {}
func (noopHTTPMetrics) RecordRequest(string, string, time.Duration) {}
