package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/drift"
	"github.com/yourusername/hoopscore/internal/features"
	"github.com/yourusername/hoopscore/internal/logger"
	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/predictor"
	"github.com/yourusername/hoopscore/internal/repository"
)

// PipelineConfig scopes the games a pipeline run reads.
type PipelineConfig struct {
	// Seasons are the seasons being modelled.
	Seasons []string
	// HistorySeasons adds that many earlier seasons per modelled season, so
	// prior-season fallbacks have data.
	HistorySeasons int
	// UpcomingDays is how far ahead PredictUpcoming looks, today included.
	UpcomingDays int
}

// Pipeline runs the daily refresh, training, prediction and drift steps over
// the repositories.
type Pipeline struct {
	config      PipelineConfig
	repos       *repository.Repositories
	ingestion   *IngestionService
	store       *features.Store
	predictor   *predictor.Predictor
	monitor     *drift.Monitor
	modelLogger *logger.ModelLogger
	audit       *logger.AuditLogger
	quality     *logger.QualityLogger
	logger      *logrus.Entry
	now         func() time.Time
}

// NewPipeline wires a pipeline. All collaborators are required.
func NewPipeline(
	config PipelineConfig,
	repos *repository.Repositories,
	ingestion *IngestionService,
	store *features.Store,
	pred *predictor.Predictor,
	monitor *drift.Monitor,
	log *logrus.Logger,
) (*Pipeline, error) {
	switch {
	case repos == nil:
		return nil, fmt.Errorf("repositories are required")
	case ingestion == nil:
		return nil, fmt.Errorf("ingestion service is required")
	case store == nil:
		return nil, fmt.Errorf("feature store is required")
	case pred == nil:
		return nil, fmt.Errorf("predictor is required")
	case monitor == nil:
		return nil, fmt.Errorf("drift monitor is required")
	}
	if len(config.Seasons) == 0 {
		return nil, fmt.Errorf("at least one season is required")
	}
	if config.UpcomingDays <= 0 {
		config.UpcomingDays = 1
	}
	if log == nil {
		log = logrus.New()
	}

	return &Pipeline{
		config:      config,
		repos:       repos,
		ingestion:   ingestion,
		store:       store,
		predictor:   pred,
		monitor:     monitor,
		modelLogger: logger.NewModelLogger(log),
		audit:       logger.NewAuditLogger(log),
		quality:     logger.NewQualityLogger(log),
		logger:      log.WithField("component", "pipeline"),
		now:         time.Now,
	}, nil
}

// Predictor returns the predictor owned by the pipeline.
func (p *Pipeline) Predictor() *predictor.Predictor {
	return p.predictor
}

// Ingest stores raw rows, then normalizes and stores the games built from them.
func (p *Pipeline) Ingest(ctx context.Context, raws []models.RawGame) (*DataQualityReport, error) {
	if err := p.repos.Game.UpsertRaw(ctx, raws); err != nil {
		return nil, fmt.Errorf("failed to store raw games: %w", err)
	}
	games, report := p.ingestion.Normalize(raws)
	if err := p.repos.Game.Upsert(ctx, games); err != nil {
		return report, fmt.Errorf("failed to store games: %w", err)
	}
	return report, nil
}

// RefreshResult summarizes a feature refresh.
type RefreshResult struct {
	Quality *DataQualityReport
	Build   *features.BuildResult
	Stored  int64
}

// RefreshFeatures re-normalizes every stored raw row of the configured
// seasons, then rebuilds and stores all point-in-time feature vectors.
func (p *Pipeline) RefreshFeatures(ctx context.Context) (*RefreshResult, error) {
	seasons := p.seasons()
	raws, err := p.repos.Game.ListRaw(ctx, seasons)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw games: %w", err)
	}

	games, report := p.ingestion.Normalize(raws)
	if err := p.repos.Game.Upsert(ctx, games); err != nil {
		return nil, fmt.Errorf("failed to store games: %w", err)
	}

	build, err := p.store.Build(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("failed to build features: %w", err)
	}
	p.reportConvergence(games)

	stored, err := p.repos.Feature.Replace(ctx, build.Vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to store features: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"games":     len(games),
		"vectors":   stored,
		"fallbacks": build.FallbackCount(),
		"duration":  build.Duration,
	}).Info("Feature refresh completed")
	return &RefreshResult{Quality: report, Build: build, Stored: stored}, nil
}

// reportConvergence logs seasons whose end-of-data ratings did not converge.
func (p *Pipeline) reportConvergence(games []models.Game) {
	latest := make(map[string]time.Time)
	for i := range games {
		if games[i].IsFinal() && games[i].Date.After(latest[games[i].Season]) {
			latest[games[i].Season] = games[i].Date
		}
	}
	view := p.store.Prepare(games)
	for season, last := range latest {
		result := view.Ratings(season, last.AddDate(0, 0, 1))
		if result != nil && result.Warning != nil {
			p.quality.LogConvergenceWarning(season, result.Warning.Iterations, result.Warning.LastDelta)
		}
	}
}

// Train fits a new artifact on every stored game of the configured seasons,
// stores it and makes it the active model. A failed fit leaves the previous
// model active.
func (p *Pipeline) Train(ctx context.Context) (*predictor.Artifact, error) {
	games, err := p.repos.Game.ListBySeasons(ctx, p.seasons())
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	start := time.Now()
	artifact, err := p.predictor.Fit(ctx, games)
	if err != nil {
		var leak *models.LeakageViolation
		if errors.As(err, &leak) {
			p.modelLogger.LogLeakageAbort(leak.TrainMax, leak.ValidationMin)
		} else {
			p.modelLogger.LogTrainingError(err.Error())
		}
		return nil, fmt.Errorf("training failed: %w", err)
	}

	m := artifact.Metrics
	p.modelLogger.LogTrainingRun(artifact.ID.String(), m.TrainGames, m.ValidationGames, time.Since(start), map[string]float64{
		"log_loss": m.LogLoss,
		"brier":    m.Brier,
		"accuracy": m.Accuracy,
	})
	p.modelLogger.LogCalibration(artifact.ID.String(), artifact.Temperature, artifact.HomeShift, m.RawECE, m.CalibratedECE, m.IdentityIsotonic)

	record, err := artifact.ToRecord()
	if err != nil {
		return nil, err
	}
	if err := p.repos.Model.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store model: %w", err)
	}

	previous := ""
	if active, err := p.repos.Model.GetActive(ctx); err == nil {
		previous = active.ID.String()
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to read active model: %w", err)
	}
	if err := p.repos.Model.SetActive(ctx, artifact.ID); err != nil {
		return nil, fmt.Errorf("failed to activate model: %w", err)
	}
	p.audit.LogModelActivated(artifact.ID.String(), artifact.Version, artifact.TrainedAt, previous)
	return artifact, nil
}

// LoadActiveModel installs the stored active model. It returns
// models.ErrNotFound when no model has been trained yet.
func (p *Pipeline) LoadActiveModel(ctx context.Context) error {
	record, err := p.repos.Model.GetActive(ctx)
	if err != nil {
		return err
	}
	artifact, err := predictor.ArtifactFromRecord(record)
	if err != nil {
		return err
	}
	return p.predictor.Load(artifact)
}

// PredictUpcoming predicts every unplayed game from today through the
// configured horizon and stores the predictions.
func (p *Pipeline) PredictUpcoming(ctx context.Context) ([]models.Prediction, error) {
	from := models.TruncateDay(p.now())
	to := from.AddDate(0, 0, p.config.UpcomingDays-1)

	upcoming, err := p.repos.Game.ListScheduled(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled games: %w", err)
	}
	if len(upcoming) == 0 {
		p.logger.WithField("from", from.Format(models.DateLayout)).Info("No scheduled games to predict")
		return nil, nil
	}

	history, err := p.repos.Game.ListBySeasons(ctx, p.seasons())
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	predictions := p.predictor.Predict(ctx, upcoming, history)
	modelID := uuid.Nil
	if a := p.predictor.Artifact(); a != nil {
		modelID = a.ID
	}
	fallbacks, confidence := 0, 0.0
	for i := range predictions {
		predictions[i].ModelID = modelID
		confidence += predictions[i].Confidence
		if predictions[i].IsFallback {
			fallbacks++
		}
	}

	if _, err := p.repos.Prediction.SaveBatch(ctx, predictions); err != nil {
		return nil, fmt.Errorf("failed to store predictions: %w", err)
	}

	p.modelLogger.LogPredictionBatch(modelID.String(), len(predictions), fallbacks, confidence/float64(len(predictions)))
	p.audit.LogPredictionsPublished(modelID.String(), len(predictions), from, to)
	return predictions, nil
}

// CheckDrift scores stored predictions of games dated within [from, to]
// against their results. window <= 0 uses the monitor default.
func (p *Pipeline) CheckDrift(ctx context.Context, from, to time.Time, window int) (*drift.Report, error) {
	outcomes, err := p.repos.Prediction.ListOutcomes(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction outcomes: %w", err)
	}

	report := p.monitor.ComputeMetrics(outcomes, window)
	for _, flag := range report.Flags {
		p.audit.LogDriftFlag(flag.Name, flag.Scope, flag.Value, flag.Threshold)
	}
	return report, nil
}

// seasons returns the configured seasons plus their history seasons, oldest first.
func (p *Pipeline) seasons() []string {
	seen := make(map[string]struct{})
	for _, season := range p.config.Seasons {
		label := season
		seen[label] = struct{}{}
		for i := 0; i < p.config.HistorySeasons; i++ {
			prev, err := models.PreviousSeason(label)
			if err != nil {
				break
			}
			seen[prev] = struct{}{}
			label = prev
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
