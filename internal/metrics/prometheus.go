package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics shared by the API server and the pipeline worker

var (
	// Upstream API call metrics (The Odds API, NBA stats)
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbet_api_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openbet_api_call_duration_seconds",
			Help:    "Duration of upstream API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// HTTP server metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbet_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openbet_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbet_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openbet_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "openbet_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "openbet_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openbet_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openbet_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openbet_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Pipeline metrics
	PipelineStagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbet_pipeline_stages_total",
			Help: "Total number of pipeline stage runs",
		},
		[]string{"stage", "status"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openbet_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"stage"},
	)

	LastSuccessfulPipeline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "openbet_last_successful_pipeline_timestamp",
			Help: "Timestamp of the last fully successful pipeline run",
		},
	)

	// Model metrics
	ModelHoldoutMAE = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "openbet_model_holdout_mae",
			Help: "Mean absolute error of the latest trained model on its holdout split",
		},
		[]string{"model", "target"},
	)

	ModelTrainingRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "openbet_model_training_rows",
			Help: "Rows used to train the latest model",
		},
		[]string{"model"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbet_predictions_total",
			Help: "Total number of predictions produced",
		},
		[]string{"kind", "status"},
	)

	ArbitrageOpportunities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "openbet_arbitrage_opportunities",
			Help: "Arbitrage opportunities found by the latest scan",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbet_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "openbet_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordHTTPRequest records a served request
func RecordHTTPRequest(method, route, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordPipelineStage records one stage run
func RecordPipelineStage(stage, status string, duration float64) {
	PipelineStagesTotal.WithLabelValues(stage, status).Inc()
	PipelineStageDuration.WithLabelValues(stage).Observe(duration)
}

// RecordPipelineSuccess stamps a completed pipeline run
func RecordPipelineSuccess() {
	LastSuccessfulPipeline.SetToCurrentTime()
}

// RecordModel records holdout error and training size for a model target
func RecordModel(model, target string, mae float64, rows int) {
	ModelHoldoutMAE.WithLabelValues(model, target).Set(mae)
	ModelTrainingRows.WithLabelValues(model).Set(float64(rows))
}

// RecordPrediction counts a produced (or skipped) prediction
func RecordPrediction(kind, status string) {
	PredictionsTotal.WithLabelValues(kind, status).Inc()
}

// RecordArbitrageScan records the size of the latest scan result
func RecordArbitrageScan(found int) {
	ArbitrageOpportunities.Set(float64(found))
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
