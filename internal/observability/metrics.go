// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feature computation
	TickersProcessed prometheus.Counter
	BarsDropped      prometheus.Counter
	FeatureRowsBuilt prometheus.Counter

	// Signal detection
	SignalsDetected *prometheus.CounterVec

	// Simulation
	TradesSimulated *prometheus.CounterVec
	SignalsSkipped  prometheus.Counter

	// Training
	FoldsTrained prometheus.Counter
	FoldsSkipped prometheus.Counter

	// Pipeline
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec

	// Database
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "granville_signal_lab"
	}

	return &Metrics{
		TickersProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "tickers_processed_total",
			Help:      "Total number of tickers run through feature computation",
		}),
		BarsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "bars_dropped_total",
			Help:      "Total number of malformed bars excluded from feature computation",
		}),
		FeatureRowsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "rows_built_total",
			Help:      "Total number of feature rows computed",
		}),

		SignalsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "detected_total",
			Help:      "Total number of signals detected by rule label",
		}, []string{"rule"}),

		TradesSimulated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_total",
			Help:      "Total number of trades simulated by exit reason",
		}, []string{"exit_reason"}),
		SignalsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "signals_skipped_total",
			Help:      "Total number of signals with no following trading session",
		}),

		FoldsTrained: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "folds_trained_total",
			Help:      "Total number of walk-forward folds trained",
		}),
		FoldsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "folds_skipped_total",
			Help:      "Total number of walk-forward folds skipped",
		}),

		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"stage", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),

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

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFeaturesComputed records one feature-computation pass.
func RecordFeaturesComputed(tickers, droppedBars, rowsBuilt int) {
	DefaultMetrics.TickersProcessed.Add(float64(tickers))
	DefaultMetrics.BarsDropped.Add(float64(droppedBars))
	DefaultMetrics.FeatureRowsBuilt.Add(float64(rowsBuilt))
}

// RecordSignalSkipped counts a signal with no following trading session.
func RecordSignalSkipped() {
	DefaultMetrics.SignalsSkipped.Inc()
}

// RecordTradeSimulated increments the simulated-trades counter.
func RecordTradeSimulated(exitReason string) {
	DefaultMetrics.TradesSimulated.WithLabelValues(exitReason).Inc()
}

// RecordSignalDetected increments the detected-signals counter.
func RecordSignalDetected(ruleLabel string) {
	DefaultMetrics.SignalsDetected.WithLabelValues(ruleLabel).Inc()
}

// RecordFold records a walk-forward fold outcome.
func RecordFold(skipped bool) {
	if skipped {
		DefaultMetrics.FoldsSkipped.Inc()
		return
	}
	DefaultMetrics.FoldsTrained.Inc()
}

// RecordPipelineRun records a pipeline stage run.
func RecordPipelineRun(stage, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(stage, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
