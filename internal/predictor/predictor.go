// Package predictor trains and serves calibrated home-win probabilities: a
// gradient boosted tree ensemble, isotonic calibration on a temporal
// validation slice, a home-court shift, temperature scaling and confidence
// caps.
package predictor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/features"
	"github.com/yourusername/hoopscore/internal/metrics"
	"github.com/yourusername/hoopscore/internal/models"
)

// State is the model lifecycle state.
type State int32

const (
	StateUntrained State = iota
	StateTraining
	StateCalibrating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUntrained:
		return "untrained"
	case StateTraining:
		return "training"
	case StateCalibrating:
		return "calibrating"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Predictor owns the current artifact. Readers always see either the
// previous or the new artifact in full.
type Predictor struct {
	config Config
	store  *features.Store
	logger *logrus.Entry

	fitMu    sync.Mutex
	state    atomic.Int32
	artifact atomic.Pointer[Artifact]
}

// New creates an untrained predictor.
func New(config Config, store *features.Store, logger *logrus.Logger) (*Predictor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid predictor config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("feature store is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	p := &Predictor{
		config: config,
		store:  store,
		logger: logger.WithField("component", "predictor"),
	}
	p.setState(StateUntrained)
	return p, nil
}

// State returns the lifecycle state.
func (p *Predictor) State() State {
	return State(p.state.Load())
}

// Artifact returns the current artifact, or nil when untrained.
func (p *Predictor) Artifact() *Artifact {
	return p.artifact.Load()
}

func (p *Predictor) setState(s State) {
	p.state.Store(int32(s))
	metrics.UpdateModelState(int(s))
}

// Load installs a previously fitted artifact.
func (p *Predictor) Load(a *Artifact) error {
	if err := a.bind(features.Columns()); err != nil {
		return err
	}
	p.artifact.Store(a)
	p.setState(StateReady)
	p.logger.WithFields(logrus.Fields{
		"model_id":    a.ID,
		"trained_at":  a.TrainedAt,
		"temperature": a.Temperature,
		"home_shift":  a.HomeShift,
	}).Info("Loaded model artifact")
	return nil
}

// Fit builds features for games and fits a fresh artifact.
func (p *Predictor) Fit(ctx context.Context, games []models.Game) (*Artifact, error) {
	result, err := p.store.Build(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("failed to build training features: %w", err)
	}
	labelled := make([]models.GameFeatures, 0, len(result.Games))
	for _, gf := range result.Games {
		if gf.HomeWon != nil {
			labelled = append(labelled, gf)
		}
	}
	return p.FitFeatures(ctx, labelled)
}

// FitFeatures splits labelled games temporally and fits on the split.
func (p *Predictor) FitFeatures(ctx context.Context, games []models.GameFeatures) (*Artifact, error) {
	train, validation := TemporalSplit(games, p.config.ValidationDays)
	return p.FitSplit(ctx, train, validation)
}

// FitSplit fits the classifier on train and every calibration stage on
// validation. A validation slice that does not start strictly after the
// training slice aborts with a LeakageViolation. On any failure the
// previous artifact stays in place.
func (p *Predictor) FitSplit(ctx context.Context, train, validation []models.GameFeatures) (*Artifact, error) {
	p.fitMu.Lock()
	defer p.fitMu.Unlock()

	start := time.Now()
	p.setState(StateTraining)

	a, err := p.fit(ctx, train, validation)
	if err != nil {
		status := "failed"
		if models.IsLeakageViolation(err) {
			status = "leakage"
			p.logger.WithError(err).Error("Training aborted: temporal split leaks validation data")
		} else {
			p.logger.WithError(err).Error("Training failed")
		}
		metrics.RecordTrainingRun(status, time.Since(start).Seconds())
		if p.artifact.Load() != nil {
			p.setState(StateReady)
		} else {
			p.setState(StateUntrained)
		}
		return nil, err
	}

	p.artifact.Store(a)
	p.setState(StateReady)
	metrics.RecordTrainingRun("success", time.Since(start).Seconds())
	metrics.UpdateCalibration(a.Temperature, a.HomeShift, a.Metrics.RawECE, a.Metrics.CalibratedECE)

	p.logger.WithFields(logrus.Fields{
		"model_id":         a.ID,
		"train_games":      a.Metrics.TrainGames,
		"validation_games": a.Metrics.ValidationGames,
		"columns":          len(a.Columns),
		"temperature":      a.Temperature,
		"home_shift":       a.HomeShift,
		"raw_ece":          a.Metrics.RawECE,
		"calibrated_ece":   a.Metrics.CalibratedECE,
		"duration":         time.Since(start),
	}).Info("Model trained and calibrated")
	return a, nil
}

func (p *Predictor) fit(ctx context.Context, train, validation []models.GameFeatures) (*Artifact, error) {
	if err := AssertTemporalOrder(train, validation); err != nil {
		return nil, err
	}
	if len(train) == 0 {
		return nil, fmt.Errorf("empty training slice: %w", models.ErrNoTrainingData)
	}

	columns := features.Columns()
	xTrain, yTrain := features.Matrix(train)
	weights := SeasonWeights(train, p.config.SeasonDecay)

	booster, err := TrainBooster(xTrain, yTrain, weights, p.config.Booster)
	if err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := columns
	index := identityIndex(len(columns))
	if p.config.PruneImportance > 0 {
		kept, index = pruneColumns(columns, booster.Importance(), p.config.PruneImportance)
		if len(kept) < len(columns) {
			booster, err = TrainBooster(selectColumns(xTrain, index), yTrain, weights, p.config.Booster)
			if err != nil {
				return nil, fmt.Errorf("failed to refit pruned classifier: %w", err)
			}
		}
	}

	p.setState(StateCalibrating)

	a := &Artifact{
		ID:               uuid.New(),
		Version:          ArtifactVersion,
		TrainedAt:        time.Now().UTC(),
		Columns:          kept,
		Model:            booster,
		Isotonic:         &Isotonic{},
		Temperature:      1.0,
		ConfidenceCap:    p.config.ConfidenceCap,
		FallbackCap:      p.config.FallbackCap,
		EarlySeasonGames: p.config.EarlySeasonGames,
		Importance:       statImportance(kept, booster.Importance()),
		index:            index,
	}
	a.Metrics.TrainGames = len(train)
	a.Metrics.ValidationGames = len(validation)
	a.Metrics.TrainMaxDate = latestDate(train)
	a.Metrics.TrainHomeWinRate = HomeWinRate(train)
	a.Metrics.PrunedColumns = len(columns) - len(kept)

	if len(validation) == 0 {
		p.logger.Warn("No validation games; calibration stages left at identity")
		a.Metrics.IdentityIsotonic = true
		return a, nil
	}
	a.Metrics.ValidationMinDate = validation[0].Date
	for i := range validation {
		if validation[i].Date.Before(a.Metrics.ValidationMinDate) {
			a.Metrics.ValidationMinDate = validation[i].Date
		}
	}

	xVal, yVal := features.Matrix(validation)
	raw := make([]float64, len(validation))
	neutral := make([]bool, len(validation))
	for i := range validation {
		raw[i] = a.RawProbability(xVal[i])
		neutral[i] = validation[i].IsNeutral
	}
	a.Metrics.RawECE = ExpectedCalibrationError(raw, yVal)

	if len(validation) >= p.config.MinCalibrationSamples {
		a.Isotonic = FitIsotonic(raw, yVal, nil)
	} else {
		a.Metrics.IdentityIsotonic = true
		p.logger.WithFields(logrus.Fields{
			"validation_games": len(validation),
			"required":         p.config.MinCalibrationSamples,
		}).Warn("Too few validation games for isotonic calibration; using identity")
	}

	calibrated := make([]float64, len(raw))
	for i, r := range raw {
		calibrated[i] = a.Isotonic.Predict(r)
	}
	a.HomeShift = HomeShift(a.Metrics.TrainHomeWinRate, calibrated, neutral, p.config.MaxHomeShift)
	for i := range calibrated {
		calibrated[i] = ApplyHomeShift(calibrated[i], a.HomeShift, neutral[i])
	}
	a.Temperature, a.Metrics.CalibratedECE = TuneTemperature(calibrated, yVal, p.config.TemperatureGrid())

	final := make([]float64, len(calibrated))
	for i := range calibrated {
		final[i] = ApplyTemperature(calibrated[i], a.Temperature)
	}
	a.Metrics.LogLoss = LogLoss(final, yVal)
	a.Metrics.Brier = BrierScore(final, yVal)
	a.Metrics.Accuracy = Accuracy(final, yVal)
	return a, nil
}

// Predict returns exactly one prediction per upcoming game, in input order.
// Games whose features cannot be computed, or any game while no artifact is
// loaded, get a 50/50 fallback prediction.
func (p *Predictor) Predict(ctx context.Context, upcoming, history []models.Game) []models.Prediction {
	a := p.artifact.Load()
	now := time.Now().UTC()
	out := make([]models.Prediction, 0, len(upcoming))

	if a == nil {
		for i := range upcoming {
			pred := models.NewPrediction(&upcoming[i], 0.5, true)
			pred.Explanation = "model not trained"
			pred.PredictedAt = now
			out = append(out, pred)
			metrics.RecordPrediction(true)
		}
		p.logger.WithField("games", len(upcoming)).Warn("Predicting without a fitted model")
		return out
	}

	view := p.store.Prepare(history)
	fallbacks := 0
	for i := range upcoming {
		game := &upcoming[i]
		pred := p.predictOne(ctx, a, view, game)
		pred.PredictedAt = now
		if pred.IsFallback {
			fallbacks++
		}
		metrics.RecordPrediction(pred.IsFallback)
		out = append(out, pred)
	}

	p.logger.WithFields(logrus.Fields{
		"model_id":  a.ID,
		"games":     len(upcoming),
		"fallbacks": fallbacks,
	}).Info("Predictions generated")
	return out
}

func (p *Predictor) predictOne(ctx context.Context, a *Artifact, view *features.View, game *models.Game) models.Prediction {
	gf, err := view.Game(ctx, game)
	if err != nil {
		p.logger.WithError(err).WithField("game_id", game.ID).Warn("Feature computation failed; emitting 50/50")
		pred := models.NewPrediction(game, 0.5, true)
		pred.ModelID = a.ID
		pred.Explanation = "features unavailable"
		return pred
	}

	fallback := gf.IsFallback() || game.Unresolved
	prob := a.Calibrate(a.RawProbability(features.Row(&gf)), gf.IsNeutral)
	prob = a.Finalize(prob, fallback, gf.MinGamesPlayed())

	pred := models.NewPrediction(game, prob, fallback)
	pred.ModelID = a.ID
	pred.Explanation = explain(a, &gf, p.config.ExplainFactors)
	return pred
}

// explain lists the most important stats with both teams' values.
func explain(a *Artifact, gf *models.GameFeatures, n int) string {
	pos := make(map[string]int, len(models.StatNames))
	for i, name := range models.StatNames {
		pos[name] = i
	}
	home, away := gf.Home.Stats(), gf.Away.Stats()

	var parts []string
	for _, stat := range a.TopFactors(n) {
		i, ok := pos[stat]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.2f vs %.2f", stat, home[i], away[i]))
	}
	if gf.Home.IsFallback {
		parts = append(parts, fmt.Sprintf("home features from %s", gf.Home.FallbackType))
	}
	if gf.Away.IsFallback {
		parts = append(parts, fmt.Sprintf("away features from %s", gf.Away.FallbackType))
	}
	return strings.Join(parts, "; ")
}

func identityIndex(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// pruneColumns keeps columns whose importance share reaches threshold. At
// least one column is always kept.
func pruneColumns(columns []string, importance []float64, threshold float64) ([]string, []int) {
	var kept []string
	var index []int
	best := 0
	for i := range columns {
		if importance[i] > importance[best] {
			best = i
		}
		if importance[i] >= threshold {
			kept = append(kept, columns[i])
			index = append(index, i)
		}
	}
	if len(kept) == 0 {
		return []string{columns[best]}, []int{best}
	}
	return kept, index
}

func selectColumns(x [][]float64, index []int) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		sel := make([]float64, len(index))
		for k, j := range index {
			sel[k] = row[j]
		}
		out[i] = sel
	}
	return out
}
