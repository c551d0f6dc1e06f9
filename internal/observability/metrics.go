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
	// Ingestion metrics
	DatasetsIngested prometheus.Counter
	RowsIngested     prometheus.Counter
	IngestionErrors  *prometheus.CounterVec

	// Model metrics
	ModelRunsTotal   *prometheus.CounterVec
	ModelRunDuration *prometheus.HistogramVec

	// Compare metrics
	CompareRunsTotal  *prometheus.CounterVec
	CompareDuration   prometheus.Histogram
	ModelsPerCompare  prometheus.Histogram
	BacktestsExecuted prometheus.Counter

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec
	WSStreamsActive     prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCompare prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "market_forecast_lab"
	}

	return &Metrics{
		// Ingestion metrics
		DatasetsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "datasets_ingested_total",
			Help:      "Total number of datasets parsed and stored",
		}),
		RowsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_ingested_total",
			Help:      "Total number of time series rows ingested",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion failures by reason",
		}, []string{"reason"}),

		// Model metrics
		ModelRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "model_runs_total",
			Help:      "Total number of model invocations by model and outcome",
		}, []string{"model_id", "outcome"}),
		ModelRunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "model_run_duration_seconds",
			Help:      "Single model forecast duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model_id"}),

		// Compare metrics
		CompareRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "runs_total",
			Help:      "Total number of compare runs by status",
		}, []string{"status"}),
		CompareDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "duration_seconds",
			Help:      "Full compare run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		ModelsPerCompare: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "models_evaluated",
			Help:      "Number of models evaluated per compare run",
			Buckets:   []float64{1, 2, 4, 8, 16, 32},
		}),
		BacktestsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compare",
			Name:      "backtests_executed_total",
			Help:      "Total number of backtests executed",
		}),

		// HTTP metrics
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		WSStreamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "ws_streams_active",
			Help:      "Number of open compare stream WebSocket connections",
		}),

		// Database metrics
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

		// Health metrics
		LastSuccessfulCompare: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_compare_timestamp",
			Help:      "Unix timestamp of last successful compare run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDatasetIngested records a successful dataset ingestion.
func RecordDatasetIngested(rows int) {
	DefaultMetrics.DatasetsIngested.Inc()
	DefaultMetrics.RowsIngested.Add(float64(rows))
}

// RecordIngestionError records an ingestion failure.
func RecordIngestionError(reason string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(reason).Inc()
}

// RecordModelRun records one model invocation.
func RecordModelRun(modelID, outcome string, durationSeconds float64) {
	DefaultMetrics.ModelRunsTotal.WithLabelValues(modelID, outcome).Inc()
	DefaultMetrics.ModelRunDuration.WithLabelValues(modelID).Observe(durationSeconds)
}

// RecordCompareRun records a full compare run.
func RecordCompareRun(status string, modelCount int, durationSeconds float64) {
	DefaultMetrics.CompareRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CompareDuration.Observe(durationSeconds)
	DefaultMetrics.ModelsPerCompare.Observe(float64(modelCount))
}

// RecordBacktest increments the backtest counter.
func RecordBacktest() {
	DefaultMetrics.BacktestsExecuted.Inc()
}

// RecordHTTPRequest records an HTTP request duration.
func RecordHTTPRequest(method, path, status string, seconds float64) {
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
