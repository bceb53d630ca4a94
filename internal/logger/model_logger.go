package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ModelLogger provides dedicated logging for training and prediction runs.
type ModelLogger struct {
	*logrus.Entry
}

// NewModelLogger creates a new model logger.
func NewModelLogger(baseLogger *logrus.Logger) *ModelLogger {
	return &ModelLogger{
		Entry: baseLogger.WithField("component", "model"),
	}
}

// LogTrainingRun logs a completed fit with its validation summary.
func (ml *ModelLogger) LogTrainingRun(modelID string, trainGames, validationGames int, duration time.Duration, metrics map[string]float64) {
	ml.WithFields(logrus.Fields{
		"model_id":         modelID,
		"train_games":      trainGames,
		"validation_games": validationGames,
		"duration_ms":      duration.Milliseconds(),
		"metrics":          metrics,
	}).Info("Model training completed")
}

// LogCalibration logs the fitted calibration stages.
func (ml *ModelLogger) LogCalibration(modelID string, temperature, homeShift, rawECE, calibratedECE float64, identityIsotonic bool) {
	ml.WithFields(logrus.Fields{
		"model_id":          modelID,
		"temperature":       temperature,
		"home_shift":        homeShift,
		"raw_ece":           rawECE,
		"calibrated_ece":    calibratedECE,
		"identity_isotonic": identityIsotonic,
	}).Info("Calibration fitted")
}

// LogLeakageAbort logs a training run stopped by a leaking temporal split.
func (ml *ModelLogger) LogLeakageAbort(trainMax, validationMin time.Time) {
	ml.WithFields(logrus.Fields{
		"train_max":      trainMax.Format("2006-01-02"),
		"validation_min": validationMin.Format("2006-01-02"),
	}).Error("Training aborted: validation does not start after training")
}

// LogPredictionBatch logs a batch of emitted predictions.
func (ml *ModelLogger) LogPredictionBatch(modelID string, games, fallbacks int, meanConfidence float64) {
	ml.WithFields(logrus.Fields{
		"model_id":        modelID,
		"games":           games,
		"fallbacks":       fallbacks,
		"mean_confidence": meanConfidence,
	}).Info("Prediction batch emitted")
}

// LogTrainingError logs a failed fit.
func (ml *ModelLogger) LogTrainingError(reason string) {
	ml.WithField("error_reason", reason).Error("Model training failed")
}
