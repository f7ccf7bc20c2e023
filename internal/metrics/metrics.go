package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ruangpena",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruangpena",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ruangpena",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	journalOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruangpena",
			Subsystem: "journal",
			Name:      "operations_total",
			Help:      "Journal operations by kind and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	authEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruangpena",
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by kind and outcome.",
		},
		[]string{"event", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		journalOperations,
		authEvents,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted increments the in-flight gauge.
func RequestStarted() {
	httpInFlight.Inc()
}

// RequestFinished records a completed HTTP request.
func RequestFinished(method, path, status string, seconds float64) {
	httpInFlight.Dec()
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(seconds)
}

// JournalOperation records the outcome of a journal operation.
func JournalOperation(operation string, err error) {
	journalOperations.WithLabelValues(operation, outcome(err)).Inc()
}

// AuthEvent records the outcome of an authentication event.
func AuthEvent(event string, err error) {
	authEvents.WithLabelValues(event, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
