package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Publisher metrics
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterwatch_publish_total",
			Help: "Total number of measurement events published",
		},
		[]string{"status"}, // status: success, failed
	)

	PublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waterwatch_publish_retries_total",
			Help: "Total number of publish retries",
		},
	)

	PublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waterwatch_publish_duration_seconds",
			Help:    "Time taken to publish a measurement event",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	BytesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waterwatch_bytes_published_total",
			Help: "Total bytes published to the broker",
		},
	)

	// Consumer metrics
	ConsumeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterwatch_consume_total",
			Help: "Total number of messages consumed",
		},
		[]string{"status"}, // status: handled, decode_error
	)

	CommitFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waterwatch_commit_failures_total",
			Help: "Total number of offset commit failures",
		},
	)

	// Evaluation metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterwatch_evaluations_total",
			Help: "Total number of threshold evaluations",
		},
		[]string{"parameter", "result"}, // result: ok, violation, no_rule
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterwatch_notifications_total",
			Help: "Total number of notifications raised",
		},
		[]string{"severity"}, // severity: below_minimum, above_maximum
	)

	NotifierFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waterwatch_notifier_failures_total",
			Help: "Total number of notification sink failures",
		},
	)

	// HTTP metrics (ops endpoints)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waterwatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterwatch_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
