// Package metrics defines model lifecycle metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model counter vectors
var (
	TrainingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "training_runs_total",
		Help:      "Total number of predictor training runs by status",
	}, []string{"status"})
	LeakageViolationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leakage_violations_total",
		Help:      "Training runs aborted because the temporal split leaked",
	})
	ConvergenceWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratings_convergence_warnings_total",
		Help:      "Power ratings calculations that exhausted their iteration budget",
	})
)

// Model gauges
var (
	ModelState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_state",
		Help:      "Predictor lifecycle state (0 untrained, 1 training, 2 calibrating, 3 ready)",
	})
	ValidationECE = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "validation_ece",
		Help:      "Expected calibration error on the validation split, by calibration stage",
	}, []string{"stage"})
	CalibrationTemperature = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "calibration_temperature",
		Help:      "Temperature selected by the latest calibration",
	})
	HomeCourtShift = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "home_court_shift",
		Help:      "Home-court probability shift selected by the latest calibration",
	})
)

// Model histograms
var (
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "training_duration_seconds",
		Help:      "Duration of predictor training runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// RecordTrainingRun records a training run.
// status should be one of: "success", "failure", "leakage"
func RecordTrainingRun(status string, durationSeconds float64) {
	TrainingRunsTotal.WithLabelValues(status).Inc()
	TrainingDuration.Observe(durationSeconds)
	if status == "leakage" {
		LeakageViolationsTotal.Inc()
	}
}

// UpdateModelState sets the lifecycle state gauge.
func UpdateModelState(state int) {
	ModelState.Set(float64(state))
}

// UpdateCalibration publishes the fitted calibration parameters.
func UpdateCalibration(temperature, homeShift, rawECE, calibratedECE float64) {
	CalibrationTemperature.Set(temperature)
	HomeCourtShift.Set(homeShift)
	ValidationECE.WithLabelValues("raw").Set(rawECE)
	ValidationECE.WithLabelValues("calibrated").Set(calibratedECE)
}
