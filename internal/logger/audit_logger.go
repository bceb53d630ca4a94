package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogModelActivated logs a model artifact becoming the active one.
func (al *AuditLogger) LogModelActivated(modelID, version string, trainedAt time.Time, previousID string) {
	al.WithFields(logrus.Fields{
		"model_id":    modelID,
		"version":     version,
		"trained_at":  trainedAt.Unix(),
		"previous_id": previousID,
	}).Info("Model activated")
}

// LogPredictionsPublished logs a batch of predictions written for consumers.
func (al *AuditLogger) LogPredictionsPublished(modelID string, games int, from, to time.Time) {
	al.WithFields(logrus.Fields{
		"model_id": modelID,
		"games":    games,
		"from":     from.Format("2006-01-02"),
		"to":       to.Format("2006-01-02"),
	}).Info("Predictions published")
}

// LogDriftFlag logs a raised drift flag with the values behind it.
func (al *AuditLogger) LogDriftFlag(flag, scope string, value, threshold float64) {
	al.WithFields(logrus.Fields{
		"flag":      flag,
		"scope":     scope,
		"value":     value,
		"threshold": threshold,
	}).Warn("Drift flag recorded")
}
