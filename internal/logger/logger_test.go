package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger("debug", buf, true)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = newLogger("nonsense", buf, false)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	assert.Contains(t, buf.String(), "Invalid log level 'nonsense'")
}

func TestModelLoggerTrainingRun(t *testing.T) {
	log, buf := setupTestLogger()
	ml := NewModelLogger(log)

	ml.LogTrainingRun("m-1", 900, 120, 1500*time.Millisecond, map[string]float64{"brier": 0.21})

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "model", entry["component"])
	assert.Equal(t, "m-1", entry["model_id"])
	assert.Equal(t, float64(900), entry["train_games"])
	assert.Equal(t, float64(1500), entry["duration_ms"])
	assert.Equal(t, "Model training completed", entry["msg"])
}

func TestModelLoggerCalibration(t *testing.T) {
	log, buf := setupTestLogger()
	NewModelLogger(log).LogCalibration("m-1", 0.7, 0.02, 0.09, 0.03, false)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, 0.7, entry["temperature"])
	assert.Equal(t, false, entry["identity_isotonic"])
}

func TestModelLoggerLeakageAbort(t *testing.T) {
	log, buf := setupTestLogger()
	NewModelLogger(log).LogLeakageAbort(
		time.Date(2024, 11, 27, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC),
	)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "2024-11-27", entry["train_max"])
	assert.Equal(t, "2024-11-05", entry["validation_min"])
}

func TestModelLoggerPredictionBatch(t *testing.T) {
	log, buf := setupTestLogger()
	NewModelLogger(log).LogPredictionBatch("m-2", 40, 3, 0.66)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, float64(3), entry["fallbacks"])
	assert.Equal(t, 0.66, entry["mean_confidence"])
}

func TestQualityLogger(t *testing.T) {
	log, buf := setupTestLogger()
	ql := NewQualityLogger(log)

	ql.LogSkippedGame("g1", "missing_score", "home score missing")
	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "data_quality", entry["component"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "missing_score", entry["kind"])

	buf.Reset()
	ql.LogConvergenceWarning("2024-25", 10, 0.4)
	entry = parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, float64(10), entry["iterations"])

	buf.Reset()
	ql.LogQualitySummary(95, 5, map[string]int{"missing_score": 5})
	entry = parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, float64(95), entry["accepted"])
}

func TestQualityLoggerDebugLevel(t *testing.T) {
	log, buf := setupTestLogger()
	log.SetLevel(logrus.InfoLevel)
	NewQualityLogger(log).LogUnresolvedTeam("Mystery St", "unresolved-1")
	assert.Empty(t, buf.String())

	log.SetLevel(logrus.DebugLevel)
	NewQualityLogger(log).LogUnresolvedTeam("Mystery St", "unresolved-1")
	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "Mystery St", entry["raw_name"])
}

func TestAuditLogger(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAuditLogger(log)

	al.LogModelActivated("m-3", "gbdt-isotonic-v1", time.Unix(1700000000, 0), "m-2")
	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "m-2", entry["previous_id"])
	assert.Equal(t, float64(1700000000), entry["trained_at"])

	buf.Reset()
	al.LogDriftFlag("calibration_decay", "rolling", 0.04, 0.02)
	entry = parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "calibration_decay", entry["flag"])
}
