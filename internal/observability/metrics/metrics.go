// Package metrics registers the service's Prometheus instruments.
package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "revstrux_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	uploadTotal   *prometheus.CounterVec
	uploadRows    *prometheus.CounterVec
	uploadLatency *prometheus.HistogramVec

	validationTotal *prometheus.CounterVec

	decisionTotal *prometheus.CounterVec

	analysisTotal   *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	syntheticTotal prometheus.Counter
)

// Init registers the instruments and, when a database is available, the
// session gauges backed by it.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		uploadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upload_total",
				Help: "Total dataset uploads by file type and result",
			},
			[]string{"file_type", "result"},
		)
		uploadRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upload_rows_total",
				Help: "Total uploaded data rows by file type",
			},
			[]string{"file_type"},
		)
		uploadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upload_latency_seconds",
				Help:    "Upload processing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		validationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "validation_total",
				Help: "Total validation passes by mode and result",
			},
			[]string{"mode", "result"},
		)

		decisionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "identity_decisions_total",
				Help: "Total identity review actions by action",
			},
			[]string{"action"},
		)

		analysisTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analysis_runs_total",
				Help: "Total analysis runs by result",
			},
			[]string{"result"},
		)
		analysisLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analysis_latency_seconds",
				Help:    "Analysis run latency in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export rendering latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		syntheticTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "synthetic_sessions_total",
				Help: "Total demo sessions generated",
			},
		)

		prometheus.MustRegister(
			uploadTotal,
			uploadRows,
			uploadLatency,
			validationTotal,
			decisionTotal,
			analysisTotal,
			analysisLatency,
			exportTotal,
			exportLatency,
			syntheticTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveUpload records one dataset upload.
func ObserveUpload(fileType, result string, rows int, duration time.Duration) {
	if fileType == "" {
		fileType = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if uploadTotal != nil {
		uploadTotal.WithLabelValues(fileType, result).Inc()
	}
	if uploadRows != nil && rows > 0 {
		uploadRows.WithLabelValues(fileType).Add(float64(rows))
	}
	if uploadLatency != nil {
		uploadLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncValidation increments the validation counter.
func IncValidation(mode, result string) {
	if mode == "" {
		mode = "strict"
	}
	if result == "" {
		result = resultSuccess
	}
	if validationTotal != nil {
		validationTotal.WithLabelValues(mode, result).Inc()
	}
}

// IncDecision increments the identity review action counter.
func IncDecision(action string) {
	if action == "" {
		action = "unknown"
	}
	if decisionTotal != nil {
		decisionTotal.WithLabelValues(action).Inc()
	}
}

// ObserveAnalysis records one analysis run.
func ObserveAnalysis(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if analysisTotal != nil {
		analysisTotal.WithLabelValues(result).Inc()
	}
	if analysisLatency != nil {
		analysisLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records one export by format.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncSynthetic increments the demo session counter.
func IncSynthetic() {
	if syntheticTotal != nil {
		syntheticTotal.Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
