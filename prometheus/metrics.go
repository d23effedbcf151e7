package prometheus

import (
	"net/http"
	"time"

	"github.com/StackTheCode/invoice-shield/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Company context metrics
	CompanyContextMissingCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Invoice operation metrics
	InvoiceOperationsCounter prometheus.CounterVec
	VendorOperationsCounter  prometheus.CounterVec

	// Fraud analysis metrics
	AnalysesTotal          prometheus.CounterVec
	AnalysisDuration       prometheus.Histogram
	FraudIndicatorsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	CompanyContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_company_context_missing_total",
			Help: "Total number of requests without company context",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	InvoiceOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_invoice_operations_total",
			Help: "Total number of invoice operations",
		},
		[]string{"operation"},
	)

	VendorOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_vendor_operations_total",
			Help: "Total number of vendor operations",
		},
		[]string{"operation"},
	)

	AnalysesTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_analyses_total",
			Help: "Total number of fraud analyses by resulting verdict",
		},
		[]string{"status"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_analysis_duration_seconds",
			Help:    "Duration of full invoice analyses in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FraudIndicatorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_fraud_indicators_total",
			Help: "Total number of fraud indicators produced, by type and severity",
		},
		[]string{"type", "severity"},
	)
}

// Handler returns the HTTP handler exposing the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordInvoiceOperation increments the counter for invoice operations
func RecordInvoiceOperation(operation string) {
	InvoiceOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordVendorOperation increments the counter for vendor operations
func RecordVendorOperation(operation string) {
	VendorOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordAnalysis records a completed analysis with its verdict and duration
func RecordAnalysis(status string, duration time.Duration) {
	AnalysesTotal.WithLabelValues(status).Inc()
	AnalysisDuration.Observe(duration.Seconds())
}

// RecordIndicator increments the indicator counter for a produced indicator
func RecordIndicator(indicatorType, severity string) {
	FraudIndicatorsCounter.WithLabelValues(indicatorType, severity).Inc()
}
