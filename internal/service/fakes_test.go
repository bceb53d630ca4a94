package service

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/repository"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

type memGames struct {
	mu    sync.Mutex
	raw   map[string]models.RawGame
	games map[string]models.Game
}

func newMemGames() *memGames {
	return &memGames{raw: map[string]models.RawGame{}, games: map[string]models.Game{}}
}

func (m *memGames) UpsertRaw(ctx context.Context, raws []models.RawGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range raws {
		m.raw[r.GameID] = r
	}
	return nil
}

func (m *memGames) ListRaw(ctx context.Context, seasons []string) ([]models.RawGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RawGame
	for _, r := range m.raw {
		if contains(seasons, r.Season) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

func (m *memGames) Upsert(ctx context.Context, games []models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range games {
		m.games[g.ID] = g
	}
	return nil
}

func (m *memGames) ListBySeasons(ctx context.Context, seasons []string) ([]models.Game, error) {
	return m.filter(func(g *models.Game) bool { return contains(seasons, g.Season) }), nil
}

func (m *memGames) ListScheduled(ctx context.Context, from, to time.Time) ([]models.Game, error) {
	return m.filter(func(g *models.Game) bool {
		return !g.IsFinal() && !g.Date.Before(from) && !g.Date.After(to)
	}), nil
}

func (m *memGames) filter(keep func(*models.Game) bool) []models.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Game
	for _, g := range m.games {
		if keep(&g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type memFeatures struct {
	vectors map[string]models.FeatureVector
}

func featureKey(team models.TeamID, season string, asOf time.Time) string {
	return string(team) + "|" + season + "|" + asOf.Format(models.DateLayout)
}

func (m *memFeatures) Replace(ctx context.Context, vectors []models.FeatureVector) (int64, error) {
	m.vectors = make(map[string]models.FeatureVector, len(vectors))
	for _, v := range vectors {
		m.vectors[featureKey(v.TeamID, v.Season, v.AsOf)] = v
	}
	return int64(len(vectors)), nil
}

func (m *memFeatures) Get(ctx context.Context, team models.TeamID, season string, asOf time.Time) (*models.FeatureVector, error) {
	v, ok := m.vectors[featureKey(team, season, asOf)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &v, nil
}

type memPredictions struct {
	games *memGames
	rows  map[string]models.Prediction
}

func (m *memPredictions) SaveBatch(ctx context.Context, predictions []models.Prediction) (int64, error) {
	for _, p := range predictions {
		m.rows[p.GameID+"|"+p.ModelID.String()] = p
	}
	return int64(len(predictions)), nil
}

func (m *memPredictions) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Prediction, error) {
	var out []models.Prediction
	for _, p := range m.rows {
		if !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

func (m *memPredictions) ListOutcomes(ctx context.Context, from, to time.Time) ([]models.PredictionOutcome, error) {
	latest := map[string]models.Prediction{}
	for _, p := range m.rows {
		if cur, ok := latest[p.GameID]; !ok || p.PredictedAt.After(cur.PredictedAt) {
			latest[p.GameID] = p
		}
	}
	var out []models.PredictionOutcome
	for id, p := range latest {
		g, ok := m.games.games[id]
		if !ok || !g.IsFinal() || g.Date.Before(from) || g.Date.After(to) {
			continue
		}
		out = append(out, models.PredictionOutcome{
			GameID: id, Date: g.Date, Season: g.Season,
			HomeTeamID: g.HomeTeamID, AwayTeamID: g.AwayTeamID,
			HomeConference: g.HomeConference, AwayConference: g.AwayConference,
			HomeWinProbability: p.HomeWinProbability, IsFallback: p.IsFallback, HomeWon: g.HomeWon(),
		})
	}
	return out, nil
}

type memModels struct {
	records map[uuid.UUID]models.ModelRecord
}

func (m *memModels) Create(ctx context.Context, model *models.ModelRecord) error {
	if _, ok := m.records[model.ID]; ok {
		return models.ErrDuplicateKey
	}
	m.records[model.ID] = *model
	return nil
}

func (m *memModels) GetByID(ctx context.Context, id uuid.UUID) (*models.ModelRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &rec, nil
}

func (m *memModels) GetActive(ctx context.Context) (*models.ModelRecord, error) {
	for _, rec := range m.records {
		if rec.Active {
			return &rec, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memModels) SetActive(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.records[id]; !ok {
		return models.ErrNotFound
	}
	for k, rec := range m.records {
		rec.Active = k == id
		m.records[k] = rec
	}
	return nil
}

// MockModelRepository mocks the model repository
type MockModelRepository struct {
	mock.Mock
}

func (m *MockModelRepository) Create(ctx context.Context, model *models.ModelRecord) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ModelRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ModelRecord), args.Error(1)
}

func (m *MockModelRepository) GetActive(ctx context.Context) (*models.ModelRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ModelRecord), args.Error(1)
}

func (m *MockModelRepository) SetActive(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newMemRepositories() (*repository.Repositories, *memGames) {
	games := newMemGames()
	return &repository.Repositories{
		Game:       games,
		Feature:    &memFeatures{},
		Prediction: &memPredictions{games: games, rows: map[string]models.Prediction{}},
		Model:      &memModels{records: map[uuid.UUID]models.ModelRecord{}},
	}, games
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
