// Package metrics defines drift monitoring metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Drift gauge vectors, labelled by scope ("cumulative" or "rolling").
var (
	DriftAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "drift_accuracy",
		Help:      "Prediction accuracy by scope",
	}, []string{"scope"})
	DriftBrier = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "drift_brier_score",
		Help:      "Brier score by scope",
	}, []string{"scope"})
	DriftLogLoss = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "drift_log_loss",
		Help:      "Log loss by scope",
	}, []string{"scope"})
	DriftBias = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "drift_home_win_bias",
		Help:      "Expected minus actual home wins, per game",
	})
)

// Drift counter vectors
var (
	DriftFlagsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "drift_flags_total",
		Help:      "Drift flags raised by the monitor, by flag",
	}, []string{"flag"})
)

// UpdateDriftScope publishes the metrics of one scope.
func UpdateDriftScope(scope string, accuracy, brier, logLoss float64) {
	DriftAccuracy.WithLabelValues(scope).Set(accuracy)
	DriftBrier.WithLabelValues(scope).Set(brier)
	DriftLogLoss.WithLabelValues(scope).Set(logLoss)
}

// UpdateDriftBias publishes the per-game home-win bias.
func UpdateDriftBias(bias float64) {
	DriftBias.Set(bias)
}

// RecordDriftFlag records a raised drift flag.
func RecordDriftFlag(flag string) {
	DriftFlagsTotal.WithLabelValues(flag).Inc()
}
