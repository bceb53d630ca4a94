package features

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hoopscore/internal/models"
)

var (
	start2324 = time.Date(2023, 11, 6, 0, 0, 0, 0, time.UTC)
	start2425 = time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)
)

var testTeams = []models.TeamID{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"}

func testConference(team models.TeamID) string {
	switch team {
	case "t1", "t2", "t3", "t4":
		return "alpha"
	case "t5", "t6", "t7", "t8":
		return "beta"
	}
	return ""
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestStore(t *testing.T, mutate func(*Config)) *Store {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	store, err := NewStore(cfg, nil, discardLogger())
	require.NoError(t, err)
	return store
}

func finalGame(id, season string, date time.Time, home, away models.TeamID, hs, as int) models.Game {
	return models.Game{
		ID:             id,
		Date:           date,
		Season:         season,
		HomeTeamID:     home,
		AwayTeamID:     away,
		HomeConference: testConference(home),
		AwayConference: testConference(away),
		HomeScore:      models.IntPtr(hs),
		AwayScore:      models.IntPtr(as),
	}
}

// roundRobinSeason plays every team once every other day using the circle
// method. Scores follow a fixed strength ladder plus seeded noise.
func roundRobinSeason(season string, start time.Time, rounds int) []models.Game {
	strength := map[models.TeamID]int{"t1": 12, "t2": 9, "t3": 6, "t4": 3, "t5": 0, "t6": -3, "t7": -6, "t8": -9}
	rng := rand.New(rand.NewSource(7))

	n := len(testTeams)
	order := append([]models.TeamID(nil), testTeams...)
	var games []models.Game
	for r := 0; r < rounds; r++ {
		date := start.AddDate(0, 0, 2*r)
		for i := 0; i < n/2; i++ {
			home, away := order[i], order[n-1-i]
			if r%2 == 1 {
				home, away = away, home
			}
			hs := 70 + strength[home] + rng.Intn(15)
			as := 70 + strength[away] + rng.Intn(15)
			if hs == as {
				hs++
			}
			games = append(games, finalGame(fmt.Sprintf("%s-r%02d-%d", season, r, i), season, date, home, away, hs, as))
		}
		rotated := []models.TeamID{order[0], order[n-1]}
		order = append(rotated, order[1:n-1]...)
	}
	return games
}

func before(games []models.Game, cutoff time.Time) []models.Game {
	var out []models.Game
	for _, g := range games {
		if g.Date.Before(cutoff) {
			out = append(out, g)
		}
	}
	return out
}

func withoutAdjusted(v models.FeatureVector) models.FeatureVector {
	v.AdjOffShort, v.AdjOffLong, v.AdjDefShort, v.AdjDefLong = 0, 0, 0, 0
	return v
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.ShortWindow = 10
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.OpponentScope = "future"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.PriorSeasonRegression = 1.5
	assert.Error(t, cfg.Validate())

	_, err := NewStore(cfg, nil, discardLogger())
	assert.Error(t, err)
}

func TestPointInTimeIgnoresFutureGames(t *testing.T) {
	games := roundRobinSeason("2024-25", start2425, 15)
	cutoff := start2425.AddDate(0, 0, 16)
	truncated := before(games, cutoff)
	require.Less(t, len(truncated), len(games))

	ctx := context.Background()

	t.Run("point_in_time scope matches exactly", func(t *testing.T) {
		store := newTestStore(t, func(c *Config) { c.OpponentScope = ScopePointInTime })
		full := store.Prepare(games)
		past := store.Prepare(truncated)
		for _, team := range testTeams {
			a, err := full.Vector(ctx, team, "2024-25", cutoff)
			require.NoError(t, err)
			b, err := past.Vector(ctx, team, "2024-25", cutoff)
			require.NoError(t, err)
			assert.Equal(t, b, a, "team %s", team)
			assert.Equal(t, 8, a.GamesPlayed)
			assert.False(t, a.IsFallback)
		}
	})

	t.Run("season scope matches outside adjusted efficiency", func(t *testing.T) {
		store := newTestStore(t, nil)
		full := store.Prepare(games)
		past := store.Prepare(truncated)
		for _, team := range testTeams {
			a, err := full.Vector(ctx, team, "2024-25", cutoff)
			require.NoError(t, err)
			b, err := past.Vector(ctx, team, "2024-25", cutoff)
			require.NoError(t, err)
			assert.Equal(t, withoutAdjusted(b), withoutAdjusted(a), "team %s", team)
		}
	})
}

func TestBuildMatchesPointInTime(t *testing.T) {
	games := roundRobinSeason("2024-25", start2425, 12)
	store := newTestStore(t, nil)
	ctx := context.Background()

	result, err := store.Build(ctx, games)
	require.NoError(t, err)
	require.Len(t, result.Games, len(games))
	require.Len(t, result.Vectors, 2*len(games))

	view := store.Prepare(games)
	for _, gf := range result.Games {
		home, err := view.Vector(ctx, gf.HomeTeamID, gf.Season, gf.Date)
		require.NoError(t, err)
		away, err := view.Vector(ctx, gf.AwayTeamID, gf.Season, gf.Date)
		require.NoError(t, err)
		assert.Equal(t, home, gf.Home, "game %s", gf.GameID)
		assert.Equal(t, away, gf.Away, "game %s", gf.GameID)
		require.NotNil(t, gf.HomeWon)
	}
}

func TestBuildIsIdempotentAndOrderIndependent(t *testing.T) {
	games := roundRobinSeason("2024-25", start2425, 10)
	ctx := context.Background()

	first, err := newTestStore(t, nil).Build(ctx, games)
	require.NoError(t, err)
	second, err := newTestStore(t, nil).Build(ctx, games)
	require.NoError(t, err)
	assert.Equal(t, first.Vectors, second.Vectors)

	reversed := make([]models.Game, len(games))
	for i := range games {
		reversed[len(games)-1-i] = games[i]
	}
	third, err := newTestStore(t, nil).Build(ctx, reversed)
	require.NoError(t, err)
	assert.Equal(t, first.Vectors, third.Vectors)
}

func TestBuildVectorsAreChronological(t *testing.T) {
	games := roundRobinSeason("2024-25", start2425, 8)
	result, err := newTestStore(t, nil).Build(context.Background(), games)
	require.NoError(t, err)

	for i := 1; i < len(result.Games); i++ {
		assert.False(t, result.Games[i].Date.Before(result.Games[i-1].Date))
	}
	// Opening night has no history anywhere.
	for _, v := range result.Vectors[:8] {
		assert.Equal(t, 0, v.GamesPlayed)
		assert.Equal(t, models.FallbackLeague, v.FallbackType)
	}
	assert.Equal(t, 4*5*2, result.FallbackCount())
}

func TestBuildLogsConvergenceOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ratings.MaxIterations = 1
	cfg.Ratings.Tolerance = 1e-9

	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	store, err := NewStore(cfg, nil, log)
	require.NoError(t, err)

	_, err = store.Build(context.Background(), roundRobinSeason("2024-25", start2425, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(buf.String(), "did not converge"))
	assert.Contains(t, buf.String(), "as_of_dates=7")
}

func TestBuildPointInTimeScopeIsStableUnderAppends(t *testing.T) {
	games := roundRobinSeason("2024-25", start2425, 14)
	cutoff := start2425.AddDate(0, 0, 14)
	truncated := before(games, cutoff)
	ctx := context.Background()
	pit := func(c *Config) { c.OpponentScope = ScopePointInTime }

	past, err := newTestStore(t, pit).Build(ctx, truncated)
	require.NoError(t, err)
	full, err := newTestStore(t, pit).Build(ctx, games)
	require.NoError(t, err)

	require.Greater(t, len(full.Vectors), len(past.Vectors))
	assert.Equal(t, past.Vectors, full.Vectors[:len(past.Vectors)])
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestStore(t, nil).Build(ctx, roundRobinSeason("2024-25", start2425, 4))
	assert.Error(t, err)
}

func TestColdStartTeamGetsLeagueDefaults(t *testing.T) {
	games := roundRobinSeason("2024-25", start2425, 15)
	day := start2425.AddDate(0, 0, 23)
	games = append(games, models.Game{
		ID:         "ghost-1",
		Date:       day,
		Season:     "2024-25",
		HomeTeamID: "ghost",
		AwayTeamID: "t6",
		HomeScore:  models.IntPtr(60),
		AwayScore:  models.IntPtr(70),
	})

	v, err := newTestStore(t, nil).PointInTime(context.Background(), "ghost", "2024-25", day, games)
	require.NoError(t, err)

	assert.Equal(t, 0, v.GamesPlayed)
	assert.True(t, v.IsFallback)
	assert.Equal(t, models.FallbackLeague, v.FallbackType)
	assert.Equal(t, models.DefaultWinPct, v.WinPctShort)
	assert.Equal(t, models.DefaultWinPct, v.WinPctLong)
	assert.Equal(t, models.DefaultPointDiff, v.PointDiffLong)
	assert.Equal(t, models.DefaultAdjEff, v.AdjOffLong)
	assert.Equal(t, 0.0, v.PowerRating)
	assert.Equal(t, models.DefaultRestDays, v.RestDays)
}

func TestPriorSeasonFallbackIsRegressed(t *testing.T) {
	games := append(roundRobinSeason("2023-24", start2324, 15), roundRobinSeason("2024-25", start2425, 15)...)
	view := newTestStore(t, nil).Prepare(games)
	ctx := context.Background()

	v, err := view.Vector(ctx, "t1", "2024-25", start2425)
	require.NoError(t, err)
	assert.True(t, v.IsFallback)
	assert.Equal(t, models.FallbackPriorSeason, v.FallbackType)
	assert.Equal(t, 0, v.GamesPlayed)
	assert.Equal(t, models.DefaultRestDays, v.RestDays)

	endOfYear, err := view.Vector(ctx, "t1", "2023-24", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.False(t, endOfYear.IsFallback)
	assert.Equal(t, 15, endOfYear.GamesPlayed)

	assert.InDelta(t, 0.5+0.75*(endOfYear.WinPctLong-0.5), v.WinPctLong, 1e-12)
	assert.InDelta(t, 0.75*endOfYear.PointDiffLong, v.PointDiffLong, 1e-12)
	assert.InDelta(t, 0.75*endOfYear.PowerRating, v.PowerRating, 1e-12)
	assert.Greater(t, v.PowerRating, 0.0)
}

func TestConferenceFallbackAveragesPeers(t *testing.T) {
	games := roundRobinSeason("2024-25", start2425, 15)
	day := start2425.AddDate(0, 0, 21)
	games = append(games, models.Game{
		ID:             "newbie-1",
		Date:           day,
		Season:         "2024-25",
		HomeTeamID:     "newbie",
		AwayTeamID:     "t5",
		HomeConference: "alpha",
		AwayConference: "beta",
		HomeScore:      models.IntPtr(66),
		AwayScore:      models.IntPtr(64),
	})
	view := newTestStore(t, nil).Prepare(games)
	ctx := context.Background()

	v, err := view.Vector(ctx, "newbie", "2024-25", day)
	require.NoError(t, err)
	assert.True(t, v.IsFallback)
	assert.Equal(t, models.FallbackConference, v.FallbackType)
	assert.Equal(t, "alpha", v.Conference)

	var winPct, power float64
	for _, peer := range []models.TeamID{"t1", "t2", "t3", "t4"} {
		pv, err := view.Vector(ctx, peer, "2024-25", day)
		require.NoError(t, err)
		require.False(t, pv.IsFallback)
		winPct += pv.WinPctLong
		power += pv.PowerRating
	}
	assert.InDelta(t, winPct/4, v.WinPctLong, 1e-12)
	assert.InDelta(t, power/4, v.PowerRating, 1e-12)
}

func TestRollingWindowsAndRest(t *testing.T) {
	diffs := []int{10, 5, -3, -8, -2, 4}
	var games []models.Game
	for i, d := range diffs {
		date := start2425.AddDate(0, 0, 2*i)
		opp := models.TeamID(fmt.Sprintf("o%d", i+1))
		if i%2 == 0 {
			games = append(games, finalGame(fmt.Sprintf("w%d", i), "2024-25", date, "a", opp, 70+d, 70))
		} else {
			games = append(games, finalGame(fmt.Sprintf("w%d", i), "2024-25", date, opp, "a", 70, 70+d))
		}
	}
	view := newTestStore(t, nil).Prepare(games)
	ctx := context.Background()

	v, err := view.Vector(ctx, "a", "2024-25", start2425.AddDate(0, 0, 12))
	require.NoError(t, err)
	assert.False(t, v.IsFallback)
	assert.Equal(t, 6, v.GamesPlayed)
	assert.InDelta(t, 0.4, v.WinPctShort, 1e-12)
	assert.InDelta(t, 0.5, v.WinPctLong, 1e-12)
	assert.InDelta(t, -0.8, v.PointDiffShort, 1e-12)
	assert.InDelta(t, 1.0, v.PointDiffLong, 1e-12)
	assert.InDelta(t, -0.1, v.Momentum, 1e-12)
	assert.InDelta(t, 1.0/3, v.HomeWinPct, 1e-12)
	assert.InDelta(t, 5.0/3, v.HomePointDiff, 1e-12)
	assert.InDelta(t, 2.0/3, v.AwayWinPct, 1e-12)
	assert.InDelta(t, 1.0/3, v.AwayPointDiff, 1e-12)
	assert.Equal(t, 2.0, v.RestDays)

	later, err := view.Vector(ctx, "a", "2024-25", start2425.AddDate(0, 0, 40))
	require.NoError(t, err)
	assert.Equal(t, 14.0, later.RestDays)
	assert.Equal(t, v.WinPctLong, later.WinPctLong)

	early, err := view.Vector(ctx, "a", "2024-25", start2425.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.Equal(t, 4, early.GamesPlayed)
	assert.True(t, early.IsFallback)
	assert.Equal(t, models.FallbackLeague, early.FallbackType)
	assert.Equal(t, 2.0, early.RestDays)
}

func TestSameDayGameIsNotHistory(t *testing.T) {
	games := []models.Game{
		finalGame("g1", "2024-25", start2425, "a", "b", 80, 60),
	}
	v, err := newTestStore(t, nil).PointInTime(context.Background(), "a", "2024-25", start2425, games)
	require.NoError(t, err)
	assert.Equal(t, 0, v.GamesPlayed)

	v, err = newTestStore(t, nil).PointInTime(context.Background(), "a", "2024-25", start2425.Add(20*time.Hour), games)
	require.NoError(t, err)
	assert.Equal(t, 0, v.GamesPlayed)
}

func TestPointInTimeRejectsBadInput(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.PointInTime(ctx, "a", "2024", start2425, nil)
	assert.Error(t, err)

	_, err = store.PointInTime(ctx, "", "2024-25", start2425, nil)
	assert.Error(t, err)
}

func TestColumnsAndRowsAlign(t *testing.T) {
	games := roundRobinSeason("2024-25", start2425, 6)
	result, err := newTestStore(t, nil).Build(context.Background(), games)
	require.NoError(t, err)

	cols := Columns()
	x, y := Matrix(result.Games)
	require.Len(t, x, len(games))
	for i := range x {
		assert.Len(t, x[i], len(cols))
		assert.Contains(t, []float64{0, 1}, y[i])
	}
	assert.Equal(t, "home_games_played", cols[0])
	assert.Equal(t, "is_neutral", cols[len(cols)-1])

	last := result.Games[len(result.Games)-1]
	row := Row(&last)
	n := len(models.StatNames)
	assert.Equal(t, row[1]-row[n+1], row[2*n+1])
}
