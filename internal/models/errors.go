package models

import (
	"errors"
	"fmt"
	"time"
)

// Custom errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrNoTrainingData      = errors.New("no completed games available for training")
	ErrInsufficientHistory = errors.New("insufficient history for feature computation")
	ErrNotReady            = errors.New("predictor has no fitted artifact")
)

// DataQualityKind classifies a skipped or flagged input row.
type DataQualityKind string

const (
	QualityMissingScore  DataQualityKind = "missing_score"
	QualityPartialScore  DataQualityKind = "partial_score"
	QualityMalformedDate DataQualityKind = "malformed_date"
	QualityOutsideSeason DataQualityKind = "outside_season"
	QualitySameTeam      DataQualityKind = "same_team"
	QualityDuplicateGame DataQualityKind = "duplicate_game"
	QualityNameCollision DataQualityKind = "name_collision"
	QualityDoubleBooked  DataQualityKind = "double_booked"
	QualityEmptyTeamName DataQualityKind = "empty_team_name"
	QualityMissingGameID DataQualityKind = "missing_game_id"
)

// DataQualityError describes a row that was skipped or flagged during ingestion.
// It is never fatal to a pipeline run.
type DataQualityError struct {
	Kind   DataQualityKind
	GameID string
	Detail string
}

func (e *DataQualityError) Error() string {
	if e.GameID == "" {
		return fmt.Sprintf("data quality (%s): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("data quality (%s) game %s: %s", e.Kind, e.GameID, e.Detail)
}

// LeakageViolation is raised when the temporal train/validation split would
// let validation rows precede or overlap training rows. It aborts training.
type LeakageViolation struct {
	TrainMax      time.Time
	ValidationMin time.Time
}

func (e *LeakageViolation) Error() string {
	return fmt.Sprintf("leakage violation: latest training date %s is not before earliest validation date %s",
		e.TrainMax.Format(DateLayout), e.ValidationMin.Format(DateLayout))
}

// ConvergenceWarning reports that power ratings were still moving when the
// iteration budget ran out. The ratings are still usable.
type ConvergenceWarning struct {
	Iterations int
	LastDelta  float64
	Tolerance  float64
}

func (e *ConvergenceWarning) Error() string {
	return fmt.Sprintf("power ratings did not converge after %d iterations (last delta %.4f, tolerance %.4f)",
		e.Iterations, e.LastDelta, e.Tolerance)
}

// IsLeakageViolation reports whether err wraps a LeakageViolation.
func IsLeakageViolation(err error) bool {
	var lv *LeakageViolation
	return errors.As(err, &lv)
}
