package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coverletter"

var (
	registry = prometheus.NewRegistry()

	generationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "total",
			Help:      "Generation attempts by outcome.",
		},
		[]string{"outcome"},
	)
	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Backend call duration in seconds by outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)
	generationInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "in_flight",
			Help:      "Generation calls currently waiting on the backend.",
		},
	)
	exportTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "total",
			Help:      "Document exports by format and outcome.",
		},
		[]string{"format", "outcome"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route, method and status class.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by group.",
		},
		[]string{"group"},
	)
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Queue jobs by result.",
		},
		[]string{"result"},
	)
)

func init() {
	registry.MustRegister(
		generationTotal,
		generationDuration,
		generationInFlight,
		exportTotal,
		httpDuration,
		rateLimitedTotal,
		jobsTotal,
		collectors.NewGoCollector(),
	)
}

// Outcome labels.
const (
	OutcomeStarted   = "started"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Job result labels.
const (
	JobReceived             = "received"
	JobCompleted            = "completed"
	JobFailed               = "failed"
	JobDeletedUnrecoverable = "deleted_unrecoverable"
)

// GenerationStarted records a call entering the backend.
func GenerationStarted() {
	generationTotal.WithLabelValues(OutcomeStarted).Inc()
	generationInFlight.Inc()
}

// GenerationFinished records the end of a backend call.
func GenerationFinished(duration time.Duration, err error) {
	generationInFlight.Dec()
	outcome := OutcomeSucceeded
	if err != nil {
		outcome = OutcomeFailed
	}
	generationTotal.WithLabelValues(outcome).Inc()
	generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Export records a document export.
func Export(format string, err error) {
	outcome := OutcomeSucceeded
	if err != nil {
		outcome = OutcomeFailed
	}
	exportTotal.WithLabelValues(format, outcome).Inc()
}

// Job records a worker job result.
func Job(result string) {
	jobsTotal.WithLabelValues(result).Inc()
}

// ObserveRequest records one served HTTP request. Unmatched routes share a
// single label so scanners cannot blow up cardinality.
func ObserveRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	class := strconv.Itoa(status/100) + "xx"
	httpDuration.WithLabelValues(route, method, class).Observe(duration.Seconds())
}

// RateLimited records a request rejected by the limiter.
func RateLimited(group string) {
	rateLimitedTotal.WithLabelValues(group).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
