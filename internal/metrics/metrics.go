// Package metrics provides the centralized Prometheus metrics registry for the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hoopscore"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	GamesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_ingested_total",
		Help:      "Raw game rows processed by ingestion, by status",
	}, []string{"status"})
	DataQualityIssuesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_quality_issues_total",
		Help:      "Data quality issues found during ingestion, by kind",
	}, []string{"kind"})
	FeatureVectorsBuiltTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feature_vectors_built_total",
		Help:      "Total number of point-in-time feature vectors computed",
	})
	FeatureFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feature_fallbacks_total",
		Help:      "Feature vectors filled from a fallback source, by fallback type",
	}, []string{"type"})
	FeatureCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feature_cache_requests_total",
		Help:      "Online feature cache lookups, by backend and result",
	}, []string{"backend", "result"})
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Predictions emitted, by fallback flag",
	}, []string{"fallback"})
)

// Histogram metrics
var (
	FeatureBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feature_build_duration_seconds",
		Help:      "Duration of batch feature store builds in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
	})
	RatingsDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ratings_duration_seconds",
		Help:      "Duration of a single power ratings calculation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	RatingsIterations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ratings_iterations",
		Help:      "Iterations used by power ratings calculations",
		Buckets:   []float64{1, 2, 3, 5, 8, 10, 15, 20, 30},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register pipeline metrics
		registry.MustRegister(GamesIngestedTotal)
		registry.MustRegister(DataQualityIssuesTotal)
		registry.MustRegister(FeatureVectorsBuiltTotal)
		registry.MustRegister(FeatureFallbacksTotal)
		registry.MustRegister(FeatureCacheRequestsTotal)
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(FeatureBuildDuration)
		registry.MustRegister(RatingsDuration)
		registry.MustRegister(RatingsIterations)

		// Register model metrics
		registry.MustRegister(TrainingRunsTotal)
		registry.MustRegister(LeakageViolationsTotal)
		registry.MustRegister(ConvergenceWarningsTotal)
		registry.MustRegister(ModelState)
		registry.MustRegister(ValidationECE)
		registry.MustRegister(CalibrationTemperature)
		registry.MustRegister(HomeCourtShift)
		registry.MustRegister(TrainingDuration)

		// Register drift metrics
		registry.MustRegister(DriftAccuracy)
		registry.MustRegister(DriftBrier)
		registry.MustRegister(DriftLogLoss)
		registry.MustRegister(DriftBias)
		registry.MustRegister(DriftFlagsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordGameIngested records one processed raw row.
func RecordGameIngested(accepted bool) {
	status := "accepted"
	if !accepted {
		status = "skipped"
	}
	GamesIngestedTotal.WithLabelValues(status).Inc()
}

// RecordDataQualityIssue records a data quality issue of the given kind.
func RecordDataQualityIssue(kind string) {
	DataQualityIssuesTotal.WithLabelValues(kind).Inc()
}

// RecordFeatureVectors records computed vectors and how many used a fallback.
func RecordFeatureVectors(built int, fallbacks map[string]int) {
	FeatureVectorsBuiltTotal.Add(float64(built))
	for kind, n := range fallbacks {
		FeatureFallbacksTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordFeatureCacheLookup records an online feature cache lookup.
func RecordFeatureCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	FeatureCacheRequestsTotal.WithLabelValues(backend, result).Inc()
}

// RecordPrediction records an emitted prediction.
func RecordPrediction(fallback bool) {
	label := "false"
	if fallback {
		label = "true"
	}
	PredictionsTotal.WithLabelValues(label).Inc()
}

// RecordFeatureBuildDuration records batch build duration.
func RecordFeatureBuildDuration(durationSeconds float64) {
	FeatureBuildDuration.Observe(durationSeconds)
}

// RecordRatingsRun records one power ratings calculation.
func RecordRatingsRun(durationSeconds float64, iterations int, converged bool) {
	RatingsDuration.Observe(durationSeconds)
	RatingsIterations.Observe(float64(iterations))
	if !converged {
		ConvergenceWarningsTotal.Inc()
	}
}
