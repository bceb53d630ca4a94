package predictor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/hoopscore/internal/models"
)

// ArtifactVersion tags the serialized layout.
const ArtifactVersion = "gbdt-isotonic-v1"

// ValidationMetrics summarizes a fit on its validation slice.
type ValidationMetrics struct {
	TrainGames        int       `json:"train_games"`
	ValidationGames   int       `json:"validation_games"`
	TrainMaxDate      time.Time `json:"train_max_date"`
	ValidationMinDate time.Time `json:"validation_min_date"`
	TrainHomeWinRate  float64   `json:"train_home_win_rate"`
	RawECE            float64   `json:"raw_ece"`
	CalibratedECE     float64   `json:"calibrated_ece"`
	LogLoss           float64   `json:"log_loss"`
	Brier             float64   `json:"brier"`
	Accuracy          float64   `json:"accuracy"`
	IdentityIsotonic  bool      `json:"identity_isotonic"`
	PrunedColumns     int       `json:"pruned_columns"`
}

// Artifact is an immutable fitted model with its calibration. A new fit
// always produces a new artifact.
type Artifact struct {
	ID               uuid.UUID          `json:"id"`
	Version          string             `json:"version"`
	TrainedAt        time.Time          `json:"trained_at"`
	Columns          []string           `json:"columns"`
	Model            *Booster           `json:"model"`
	Isotonic         *Isotonic          `json:"isotonic"`
	HomeShift        float64            `json:"home_shift"`
	Temperature      float64            `json:"temperature"`
	ConfidenceCap    float64            `json:"confidence_cap"`
	FallbackCap      float64            `json:"fallback_cap"`
	EarlySeasonGames int                `json:"early_season_games"`
	Importance       map[string]float64 `json:"importance"`
	Metrics          ValidationMetrics  `json:"metrics"`

	// index maps Columns into the full feature row.
	index []int
}

// Calibrate runs the fixed stage order on a raw probability: isotonic, home
// shift, temperature.
func (a *Artifact) Calibrate(raw float64, neutral bool) float64 {
	p := a.Isotonic.Predict(raw)
	p = ApplyHomeShift(p, a.HomeShift, neutral)
	return ApplyTemperature(p, a.Temperature)
}

// Finalize applies the confidence caps and the early-season pull toward 0.5.
func (a *Artifact) Finalize(p float64, fallback bool, minGamesPlayed int) float64 {
	limit := a.ConfidenceCap
	if fallback {
		limit = min(limit, a.FallbackCap)
	}
	p = Cap(p, limit)
	return EarlySeason(p, minGamesPlayed, a.EarlySeasonGames)
}

// RawProbability runs the tree ensemble on a full feature row.
func (a *Artifact) RawProbability(row []float64) float64 {
	x := make([]float64, len(a.index))
	for i, j := range a.index {
		x[i] = row[j]
	}
	return a.Model.PredictProba(x)
}

// bind resolves the artifact's columns against the current feature layout.
func (a *Artifact) bind(all []string) error {
	pos := make(map[string]int, len(all))
	for i, name := range all {
		pos[name] = i
	}
	a.index = make([]int, len(a.Columns))
	for i, name := range a.Columns {
		j, ok := pos[name]
		if !ok {
			return fmt.Errorf("artifact column %q is not produced by the feature store", name)
		}
		a.index[i] = j
	}
	if a.Model == nil || a.Model.Features != len(a.Columns) {
		return fmt.Errorf("artifact model does not match its %d columns", len(a.Columns))
	}
	return nil
}

// TopFactors returns the most important team stats, highest first.
func (a *Artifact) TopFactors(n int) []string {
	names := make([]string, 0, len(a.Importance))
	for name := range a.Importance {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if a.Importance[names[i]] != a.Importance[names[j]] {
			return a.Importance[names[i]] > a.Importance[names[j]]
		}
		return names[i] < names[j]
	})
	if n < len(names) {
		names = names[:n]
	}
	return names
}

// statImportance folds column importance into per-stat importance by
// dropping the home_, away_ and diff_ prefixes.
func statImportance(columns []string, importance []float64) map[string]float64 {
	out := make(map[string]float64)
	for i, col := range columns {
		stat := col
		for _, prefix := range []string{"home_", "away_", "diff_"} {
			if strings.HasPrefix(col, prefix) {
				stat = strings.TrimPrefix(col, prefix)
				break
			}
		}
		if importance[i] > 0 {
			out[stat] += importance[i]
		}
	}
	return out
}

// ToRecord serializes the artifact for the model repository.
func (a *Artifact) ToRecord() (*models.ModelRecord, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode artifact metrics: %w", err)
	}
	return &models.ModelRecord{
		ID:        a.ID,
		Version:   a.Version,
		Features:  a.Columns,
		Metrics:   metrics,
		Artifact:  body,
		TrainedAt: a.TrainedAt,
	}, nil
}

// ArtifactFromRecord decodes a stored artifact.
func ArtifactFromRecord(rec *models.ModelRecord) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(rec.Artifact, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", rec.ID, err)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %q", a.Version)
	}
	return &a, nil
}
