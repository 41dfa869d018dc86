package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks handled requests per route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqproxy_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPLatency tracks end-to-end request latency
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seqproxy_http_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// UpstreamCallsTotal tracks single backend attempts by result
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqproxy_upstream_calls_total",
			Help: "Total number of inference backend attempts",
		},
		[]string{"result"},
	)

	// UpstreamErrorsTotal tracks failed backend attempts by error kind
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqproxy_upstream_errors_total",
			Help: "Total number of failed inference backend attempts",
		},
		[]string{"error_type"},
	)

	// UpstreamLatency tracks the latency of whole retried backend calls
	UpstreamLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seqproxy_upstream_latency_seconds",
			Help:    "Inference backend latency including retries, in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// RetriesExhausted counts requests that failed after every attempt
	RetriesExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seqproxy_retries_exhausted_total",
			Help: "Total number of predictions that exhausted all attempts",
		},
	)

	// PayloadShapes tracks which upstream shape was decoded
	PayloadShapes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqproxy_upstream_payload_shapes_total",
			Help: "Decoded upstream payload shapes",
		},
		[]string{"shape"},
	)

	// PredictionRows tracks how many rows survive normalization
	PredictionRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seqproxy_prediction_rows",
			Help:    "Number of prediction rows returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// NotificationsTotal tracks side-channel deliveries per sink and result
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqproxy_notifications_total",
			Help: "Total number of side-channel notifications",
		},
		[]string{"sink", "result"},
	)

	// DBConnectionPoolUsage tracks prediction log pool usage in percent
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seqproxy_db_connection_pool_usage_percent",
			Help: "Prediction log database connection pool usage",
		},
	)
)
