package ratings

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hoopscore/internal/models"
)

func quietLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	return log, buf
}

var day0 = time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)

func game(id string, dayOffset int, home, away models.TeamID, hs, as int) models.Game {
	return models.Game{
		ID:         id,
		Date:       day0.AddDate(0, 0, dayOffset),
		Season:     "2024-25",
		HomeTeamID: home,
		AwayTeamID: away,
		HomeScore:  models.IntPtr(hs),
		AwayScore:  models.IntPtr(as),
	}
}

// roundRobin has a strictly ordered field: strong > mid > weak.
func roundRobin() []models.Game {
	return []models.Game{
		game("g1", 0, "strong", "weak", 85, 60),
		game("g2", 1, "mid", "weak", 75, 65),
		game("g3", 2, "strong", "mid", 80, 70),
		game("g4", 3, "weak", "strong", 62, 84),
		game("g5", 4, "weak", "mid", 66, 72),
		game("g6", 5, "mid", "strong", 68, 79),
	}
}

func TestRecencyWeights(t *testing.T) {
	w := RecencyWeights(6, 0.5, 1.0)
	require.Len(t, w, 6)
	assert.InDelta(t, 0.5, w[0], 1e-12)
	assert.InDelta(t, 1.0, w[5], 1e-12)
	assert.InDelta(t, 0.6, w[1], 1e-12)

	assert.Equal(t, []float64{1.0}, RecencyWeights(1, 0.5, 1.0))
	assert.Nil(t, RecencyWeights(0, 0.5, 1.0))
}

func TestCalculateOrdersTeams(t *testing.T) {
	log, _ := quietLogger()
	engine := NewEngine(DefaultConfig(), log)

	result := engine.CalculateGames(roundRobin())
	require.Equal(t, 3, result.Len())

	strong, mid, weak := result.Get("strong"), result.Get("mid"), result.Get("weak")
	assert.Equal(t, 1, strong.Rank)
	assert.Equal(t, 2, mid.Rank)
	assert.Equal(t, 3, weak.Rank)
	assert.Greater(t, strong.NetRating, mid.NetRating)
	assert.Greater(t, mid.NetRating, weak.NetRating)
	assert.InDelta(t, strong.AdjOffense-strong.AdjDefense, strong.NetRating, 1e-9)
	assert.Equal(t, 4, strong.Games)
}

func TestCalculateIsDeterministic(t *testing.T) {
	log, _ := quietLogger()
	engine := NewEngine(DefaultConfig(), log)

	a := engine.CalculateGames(roundRobin())
	b := engine.CalculateGames(roundRobin())
	assert.Equal(t, a.Ratings, b.Ratings)
	assert.Equal(t, a.Iterations, b.Iterations)
}

func TestUnknownTeamGetsNeutralDefault(t *testing.T) {
	log, _ := quietLogger()
	result := NewEngine(DefaultConfig(), log).CalculateGames(roundRobin())

	ghost := result.Get("ghost")
	assert.Equal(t, models.TeamID("ghost"), ghost.TeamID)
	assert.Equal(t, 100.0, ghost.AdjOffense)
	assert.Equal(t, 100.0, ghost.AdjDefense)
	assert.Equal(t, 0.0, ghost.NetRating)
	assert.Equal(t, 2, ghost.Rank)
}

func TestConvergenceWarningWhenBudgetExhausted(t *testing.T) {
	log, buf := quietLogger()
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	cfg.Tolerance = 1e-9

	// Callers aggregate warnings; the engine itself only logs at debug.
	NewEngine(cfg, log).CalculateGames(roundRobin())
	assert.Empty(t, buf.String())
	log.SetLevel(logrus.DebugLevel)

	result := NewEngine(cfg, log).CalculateGames(roundRobin())
	assert.False(t, result.Converged)
	require.NotNil(t, result.Warning)
	assert.Equal(t, 1, result.Warning.Iterations)
	assert.Contains(t, buf.String(), "did not converge")
	assert.Equal(t, 3, result.Len())
}

func TestFixedIterationModeNeverWarns(t *testing.T) {
	log, buf := quietLogger()
	cfg := DefaultConfig()
	cfg.Tolerance = 0

	result := NewEngine(cfg, log).CalculateGames(roundRobin())
	assert.True(t, result.Converged)
	assert.Nil(t, result.Warning)
	assert.Equal(t, cfg.MaxIterations, result.Iterations)
	assert.Empty(t, buf.String())
}

func TestEmptyInput(t *testing.T) {
	log, _ := quietLogger()
	result := NewEngine(DefaultConfig(), log).Calculate(nil)
	assert.Equal(t, 0, result.Len())
	assert.Nil(t, result.Warning)
	assert.Equal(t, 1, result.Get("anyone").Rank)
}

func TestStrengthOfSchedule(t *testing.T) {
	log, _ := quietLogger()
	cfg := DefaultConfig()
	cfg.QualityWinTopK = 1
	cfg.BadLossBottomK = 1

	engine := NewEngine(cfg, log)
	games := roundRobin()
	// mid upsets strong once more
	games = append(games, game("g7", 6, "mid", "strong", 81, 80))
	result := engine.CalculateGames(games)

	midRows := []models.TeamGameRow{
		{TeamID: "mid", OpponentID: "strong", PointsFor: 81, PointsAgainst: 80},
		{TeamID: "mid", OpponentID: "weak", PointsFor: 60, PointsAgainst: 70},
	}
	sos := StrengthOfSchedule(midRows, result, cfg)

	assert.Equal(t, 2, sos.Games)
	assert.Equal(t, 1, sos.QualityWins)
	assert.Equal(t, 1, sos.BadLosses)
	expected := (result.Get("strong").NetRating + result.Get("weak").NetRating) / 2
	assert.InDelta(t, expected, sos.AvgOpponentNet, 1e-9)

	assert.Equal(t, SOS{}, StrengthOfSchedule(nil, result, cfg))
}

func TestStrengthOfScheduleSmallLeague(t *testing.T) {
	log, _ := quietLogger()
	cfg := DefaultConfig()
	require.Greater(t, cfg.QualityWinTopK, 3)

	result := NewEngine(cfg, log).CalculateGames(roundRobin())
	require.Equal(t, 1, result.Get("strong").Rank)
	require.Equal(t, 3, result.Get("weak").Rank)

	// Beating the last-ranked team is not a quality win and losing to the
	// first-ranked team is not a bad loss.
	routine := StrengthOfSchedule([]models.TeamGameRow{
		{TeamID: "strong", OpponentID: "weak", PointsFor: 80, PointsAgainst: 60},
		{TeamID: "weak", OpponentID: "strong", PointsFor: 60, PointsAgainst: 80},
	}, result, cfg)
	assert.Equal(t, 0, routine.QualityWins)
	assert.Equal(t, 0, routine.BadLosses)

	upsets := StrengthOfSchedule([]models.TeamGameRow{
		{TeamID: "weak", OpponentID: "strong", PointsFor: 81, PointsAgainst: 80},
		{TeamID: "strong", OpponentID: "weak", PointsFor: 70, PointsAgainst: 72},
		{TeamID: "weak", OpponentID: "mid", PointsFor: 75, PointsAgainst: 70},
	}, result, cfg)
	assert.Equal(t, 1, upsets.QualityWins)
	assert.Equal(t, 1, upsets.BadLosses)
}

func TestStrengthOfScheduleIgnoresUnratedOpponents(t *testing.T) {
	log, _ := quietLogger()
	cfg := DefaultConfig()
	cfg.QualityWinTopK = 1
	cfg.BadLossBottomK = 1
	result := NewEngine(cfg, log).CalculateGames(roundRobin())

	sos := StrengthOfSchedule([]models.TeamGameRow{
		{TeamID: "mid", OpponentID: "newcomer", PointsFor: 90, PointsAgainst: 50},
		{TeamID: "mid", OpponentID: "newcomer", PointsFor: 50, PointsAgainst: 90},
	}, result, cfg)
	assert.Equal(t, 2, sos.Games)
	assert.Equal(t, 0, sos.QualityWins)
	assert.Equal(t, 0, sos.BadLosses)
	assert.InDelta(t, 0, sos.AvgOpponentNet, 1e-9)
	assert.False(t, result.Has("newcomer"))
	assert.True(t, result.Has("mid"))
}
