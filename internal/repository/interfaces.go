package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/hoopscore/internal/models"
)

// GameRepository stores raw scraped rows and the normalized games built from them.
type GameRepository interface {
	UpsertRaw(ctx context.Context, raws []models.RawGame) error
	ListRaw(ctx context.Context, seasons []string) ([]models.RawGame, error)
	Upsert(ctx context.Context, games []models.Game) error
	ListBySeasons(ctx context.Context, seasons []string) ([]models.Game, error)
	ListScheduled(ctx context.Context, from, to time.Time) ([]models.Game, error)
}

// FeatureRepository stores point-in-time feature vectors keyed by
// (team_id, season, as_of_date).
type FeatureRepository interface {
	Replace(ctx context.Context, vectors []models.FeatureVector) (int64, error)
	Get(ctx context.Context, team models.TeamID, season string, asOf time.Time) (*models.FeatureVector, error)
}

// PredictionRepository stores emitted predictions and joins them with results.
type PredictionRepository interface {
	SaveBatch(ctx context.Context, predictions []models.Prediction) (int64, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Prediction, error)
	ListOutcomes(ctx context.Context, from, to time.Time) ([]models.PredictionOutcome, error)
}

// ModelRepository stores fitted predictor artifacts.
type ModelRepository interface {
	Create(ctx context.Context, model *models.ModelRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ModelRecord, error)
	GetActive(ctx context.Context) (*models.ModelRecord, error)
	SetActive(ctx context.Context, id uuid.UUID) error
}
