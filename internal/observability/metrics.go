// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Solana metrics
	RPCCallLatency   *prometheus.HistogramVec
	TransactionsSent *prometheus.CounterVec
	MintStepDuration *prometheus.HistogramVec

	// Token metrics
	TokensCreated      *prometheus.CounterVec
	AuthoritiesRevoked *prometheus.CounterVec

	// Pinning metrics
	PinsTotal     *prometheus.CounterVec
	PinnedBytes   prometheus.Counter
	PinDuration   prometheus.Histogram
	UploadRejects *prometheus.CounterVec

	// Operation log metrics
	OperationsTotal     *prometheus.CounterVec
	OperationLogFailure prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_token_minter"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "method", "code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"route"}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		TransactionsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "transactions_total",
			Help:      "Total number of submitted transactions by step and outcome",
		}, []string{"step", "status"}),
		MintStepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "mint_step_duration_seconds",
			Help:      "Time from submission to confirmation per creation step",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}, []string{"step"}),

		TokensCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "created_total",
			Help:      "Total number of token creations by mode and status",
		}, []string{"mode", "status"}),
		AuthoritiesRevoked: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "authorities_revoked_total",
			Help:      "Total number of authority revocations by kind and status",
		}, []string{"authority", "status"}),

		PinsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "pins_total",
			Help:      "Total number of pin requests by content kind and status",
		}, []string{"kind", "status"}),
		PinnedBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "pinned_bytes_total",
			Help:      "Total bytes uploaded to the pinning provider",
		}),
		PinDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "pin_duration_seconds",
			Help:      "Pinning request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		UploadRejects: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "upload_rejects_total",
			Help:      "Uploads rejected before reaching the provider by reason",
		}, []string{"reason"}),

		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "total",
			Help:      "Total number of service operations by name and status",
		}, []string{"operation", "status"}),
		OperationLogFailure: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "log_write_failures_total",
			Help:      "Operation events that could not be persisted",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(route, method, code string, seconds float64) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(route, method, code).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordTransaction records a submitted transaction and its confirmation time.
func RecordTransaction(step, status string, seconds float64) {
	DefaultMetrics.TransactionsSent.WithLabelValues(step, status).Inc()
	DefaultMetrics.MintStepDuration.WithLabelValues(step).Observe(seconds)
}

// RecordTokenCreated records a token creation attempt.
func RecordTokenCreated(mode, status string) {
	DefaultMetrics.TokensCreated.WithLabelValues(mode, status).Inc()
}

// RecordAuthorityRevoked records an authority revocation attempt.
func RecordAuthorityRevoked(authority, status string) {
	DefaultMetrics.AuthoritiesRevoked.WithLabelValues(authority, status).Inc()
}

// RecordPin records a pin request.
func RecordPin(kind, status string, bytes int, seconds float64) {
	DefaultMetrics.PinsTotal.WithLabelValues(kind, status).Inc()
	DefaultMetrics.PinDuration.Observe(seconds)
	if status == "ok" {
		DefaultMetrics.PinnedBytes.Add(float64(bytes))
	}
}

// RecordUploadReject records an upload rejected by local validation.
func RecordUploadReject(reason string) {
	DefaultMetrics.UploadRejects.WithLabelValues(reason).Inc()
}

// RecordOperation records a finished service operation.
func RecordOperation(operation, status string) {
	DefaultMetrics.OperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordOperationLogFailure records a failed operation log write.
func RecordOperationLogFailure() {
	DefaultMetrics.OperationLogFailure.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
