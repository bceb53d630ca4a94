package logger

import (
	"github.com/sirupsen/logrus"
)

// QualityLogger records data quality problems found while normalizing games
// and computing ratings. None of them stop a run.
type QualityLogger struct {
	*logrus.Entry
}

// NewQualityLogger creates a new data quality logger.
func NewQualityLogger(baseLogger *logrus.Logger) *QualityLogger {
	return &QualityLogger{
		Entry: baseLogger.WithField("component", "data_quality"),
	}
}

// LogSkippedGame logs a raw row that was dropped.
func (ql *QualityLogger) LogSkippedGame(gameID, kind, detail string) {
	ql.WithFields(logrus.Fields{
		"game_id": gameID,
		"kind":    kind,
		"detail":  detail,
	}).Warn("Game skipped")
}

// LogNameCollision logs two raw names resolving to one canonical team in the
// same game.
func (ql *QualityLogger) LogNameCollision(gameID, homeRaw, awayRaw, canonical string) {
	ql.WithFields(logrus.Fields{
		"game_id":   gameID,
		"home_raw":  homeRaw,
		"away_raw":  awayRaw,
		"canonical": canonical,
	}).Warn("Team name collision")
}

// LogUnresolvedTeam logs a raw name that fell back to a deterministic id.
func (ql *QualityLogger) LogUnresolvedTeam(raw, teamID string) {
	ql.WithFields(logrus.Fields{
		"raw_name": raw,
		"team_id":  teamID,
	}).Debug("Unresolved team name")
}

// LogConvergenceWarning logs power ratings that stopped before converging.
func (ql *QualityLogger) LogConvergenceWarning(season string, iterations int, lastDelta float64) {
	ql.WithFields(logrus.Fields{
		"season":     season,
		"iterations": iterations,
		"last_delta": lastDelta,
	}).Warn("Power ratings did not converge")
}

// LogQualitySummary logs the issue counts of one ingestion run.
func (ql *QualityLogger) LogQualitySummary(accepted, skipped int, byKind map[string]int) {
	ql.WithFields(logrus.Fields{
		"accepted": accepted,
		"skipped":  skipped,
		"by_kind":  byKind,
	}).Info("Data quality summary")
}
