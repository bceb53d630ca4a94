package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hoopscore/internal/database"
	"github.com/yourusername/hoopscore/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, 11, d, 0, 0, 0, 0, time.UTC)
}

func TestFeatureRowMatchesColumns(t *testing.T) {
	v := models.LeagueDefaults("duke", "2024-25", day(10))
	v.GamesPlayed = 4
	v.Conference = "acc"
	v.IsFallback = true
	v.FallbackType = models.FallbackConference

	row := featureRow(&v)
	require.Len(t, row, len(featureColumns))
	assert.Equal(t, "team_id", featureColumns[0])
	assert.Equal(t, "games_played", featureColumns[4])
	assert.Equal(t, "fallback_type", featureColumns[len(featureColumns)-1])

	assert.Equal(t, "duke", row[0])
	assert.Equal(t, int32(4), row[4])
	assert.Equal(t, models.DefaultWinPct, row[5])
	assert.Equal(t, true, row[len(row)-2])
	assert.Equal(t, "conference", row[len(row)-1])
}

func TestVectorSeasons(t *testing.T) {
	vectors := []models.FeatureVector{
		{Season: "2024-25"}, {Season: "2023-24"}, {Season: "2024-25"},
	}
	assert.Equal(t, []string{"2023-24", "2024-25"}, vectorSeasons(vectors))
}

func TestPredictionRowMatchesColumns(t *testing.T) {
	game := &models.Game{ID: "g1", Date: day(12), Season: "2024-25", HomeTeamID: "duke", AwayTeamID: "unc"}
	pred := models.NewPrediction(game, 0.75, false)
	row := predictionRow(&pred)
	require.Len(t, row, len(predictionColumns))
	assert.Equal(t, "duke", row[6])
	assert.Equal(t, "home", row[7])
}

func TestNumericConversion(t *testing.T) {
	for _, s := range []string{"-300", "233", "0", "-110.5"} {
		d := decimal.RequireFromString(s)
		back := numericToDecimal(decimalToNumeric(d))
		assert.True(t, d.Equal(back), "%s round trip gave %s", s, back)
	}
	assert.True(t, numericToDecimal(decimalToNumeric(decimal.Decimal{})).IsZero())
}

func setupRepos(t *testing.T) (*Repositories, context.Context) {
	t.Helper()
	db := database.SetupTestDB(t)
	t.Cleanup(func() { database.TeardownTestDB(t, db) })

	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return repos, ctx
}

func TestNewRepositoriesRequiresDB(t *testing.T) {
	_, err := NewRepositories(nil)
	assert.Error(t, err)
}

func TestGameRepositoryRoundTrip(t *testing.T) {
	repos, ctx := setupRepos(t)

	raws := []models.RawGame{{
		GameID: "r1", Date: "2024-11-04", Season: "2024-25", HomeTeamRaw: "Duke", AwayTeamRaw: "UNC",
		HomeScore: models.IntPtr(80), AwayScore: models.IntPtr(70),
		HomeBox: &models.BoxScore{FGA: 60, ORB: 10, TO: 12},
	}}
	require.NoError(t, repos.Game.UpsertRaw(ctx, raws))
	raws[0].AwayScore = models.IntPtr(72)
	require.NoError(t, repos.Game.UpsertRaw(ctx, raws))

	gotRaw, err := repos.Game.ListRaw(ctx, []string{"2024-25"})
	require.NoError(t, err)
	require.Len(t, gotRaw, 1)
	assert.Equal(t, 72, *gotRaw[0].AwayScore)
	require.NotNil(t, gotRaw[0].HomeBox)
	assert.Equal(t, 60, gotRaw[0].HomeBox.FGA)
	assert.Nil(t, gotRaw[0].AwayBox)

	games := []models.Game{
		{ID: "g1", Date: day(4), Season: "2024-25", HomeTeamID: "duke", AwayTeamID: "unc",
			HomeConference: "acc", AwayConference: "acc", HomeScore: models.IntPtr(80), AwayScore: models.IntPtr(72)},
		{ID: "g2", Date: day(20), Season: "2024-25", HomeTeamID: "unc", AwayTeamID: "duke"},
	}
	require.NoError(t, repos.Game.Upsert(ctx, games))

	all, err := repos.Game.ListBySeasons(ctx, []string{"2024-25"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.TeamID("duke"), all[0].HomeTeamID)
	assert.True(t, all[0].IsFinal())

	scheduled, err := repos.Game.ListScheduled(ctx, day(1), day(30))
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "g2", scheduled[0].ID)
}

func TestFeatureRepositoryReplace(t *testing.T) {
	repos, ctx := setupRepos(t)

	v := models.LeagueDefaults("duke", "2024-25", day(10))
	v.GamesPlayed = 3
	v.PowerRating = 4.5
	n, err := repos.Feature.Replace(ctx, []models.FeatureVector{v})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	v.PowerRating = 6
	n, err = repos.Feature.Replace(ctx, []models.FeatureVector{v})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repos.Feature.Get(ctx, "duke", "2024-25", day(10))
	require.NoError(t, err)
	assert.Equal(t, 6.0, got.PowerRating)
	assert.Equal(t, 3, got.GamesPlayed)

	_, err = repos.Feature.Get(ctx, "duke", "2024-25", day(11))
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestPredictionRepositoryOutcomes(t *testing.T) {
	repos, ctx := setupRepos(t)

	game := models.Game{ID: "g1", Date: day(4), Season: "2024-25", HomeTeamID: "duke", AwayTeamID: "unc",
		HomeConference: "acc", AwayConference: "acc", HomeScore: models.IntPtr(60), AwayScore: models.IntPtr(72)}
	require.NoError(t, repos.Game.Upsert(ctx, []models.Game{game}))

	modelID := uuid.New()
	first := models.NewPrediction(&game, 0.7, false)
	first.ModelID = modelID
	first.PredictedAt = day(3)
	_, err := repos.Prediction.SaveBatch(ctx, []models.Prediction{first})
	require.NoError(t, err)

	second := models.NewPrediction(&game, 0.4, true)
	second.ModelID = modelID
	second.PredictedAt = day(3).Add(time.Hour)
	n, err := repos.Prediction.SaveBatch(ctx, []models.Prediction{second})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := repos.Prediction.ListByDateRange(ctx, day(1), day(5))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, second.AwayFairOdds.Equal(stored[0].AwayFairOdds))
	assert.Equal(t, models.SideAway, stored[0].PredictedSide)

	outcomes, err := repos.Prediction.ListOutcomes(ctx, day(1), day(5))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.InDelta(t, 0.4, outcomes[0].HomeWinProbability, 1e-9)
	assert.False(t, outcomes[0].HomeWon)
	assert.True(t, outcomes[0].IsFallback)
	assert.Equal(t, "acc", outcomes[0].HomeConference)
}

func TestModelRepositoryActivation(t *testing.T) {
	repos, ctx := setupRepos(t)

	_, err := repos.Model.GetActive(ctx)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	newRecord := func() *models.ModelRecord {
		return &models.ModelRecord{
			ID:        uuid.New(),
			Version:   "gbdt-isotonic-v1",
			Features:  []string{"diff_power_rating"},
			Metrics:   json.RawMessage(`{"brier":0.2}`),
			Artifact:  json.RawMessage(`{"version":"gbdt-isotonic-v1"}`),
			TrainedAt: day(20),
		}
	}
	a, b := newRecord(), newRecord()
	require.NoError(t, repos.Model.Create(ctx, a))
	require.NoError(t, repos.Model.Create(ctx, b))

	require.NoError(t, repos.Model.SetActive(ctx, a.ID))
	require.NoError(t, repos.Model.SetActive(ctx, b.ID))

	active, err := repos.Model.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)
	assert.Equal(t, []string{"diff_power_rating"}, active.Features)
	assert.JSONEq(t, `{"brier":0.2}`, string(active.Metrics))

	old, err := repos.Model.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)

	err = repos.Model.SetActive(ctx, uuid.New())
	assert.True(t, errors.Is(err, models.ErrNotFound))
	active, err = repos.Model.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID, "failed activation rolls back")
}
