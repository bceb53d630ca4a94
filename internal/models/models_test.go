package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeason(t *testing.T) {
	tests := []struct {
		label   string
		want    int
		wantErr bool
	}{
		{"2024-25", 2024, false},
		{"1999-00", 1999, false},
		{"2024-26", 0, true},
		{"2024", 0, true},
		{"abcd-ef", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseSeason(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeasonWindow(t *testing.T) {
	assert.True(t, InSeasonWindow("2024-25", time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, InSeasonWindow("2024-25", time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)))
	assert.False(t, InSeasonWindow("2024-25", time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, InSeasonWindow("2024-25", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))

	season, ok := SeasonForDate(time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, "2024-25", season)

	_, ok = SeasonForDate(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)

	prev, err := PreviousSeason("2024-25")
	require.NoError(t, err)
	assert.Equal(t, "2023-24", prev)
}

func TestLeakageViolationDetection(t *testing.T) {
	lv := &LeakageViolation{
		TrainMax:      time.Date(2024, 11, 25, 0, 0, 0, 0, time.UTC),
		ValidationMin: time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC),
	}
	wrapped := fmt.Errorf("fit aborted: %w", lv)

	assert.True(t, IsLeakageViolation(wrapped))
	assert.False(t, IsLeakageViolation(errors.New("other")))
	assert.Contains(t, lv.Error(), "2024-11-25")
}

func TestNewPrediction(t *testing.T) {
	game := &Game{ID: "g1", HomeTeamID: "duke", AwayTeamID: "unc"}

	home := NewPrediction(game, 0.7, false)
	assert.Equal(t, TeamID("duke"), home.PredictedWinner)
	assert.Equal(t, SideHome, home.PredictedSide)
	assert.InDelta(t, 0.7, home.Confidence, 1e-12)

	away := NewPrediction(game, 0.3, true)
	assert.Equal(t, TeamID("unc"), away.PredictedWinner)
	assert.InDelta(t, 0.7, away.Confidence, 1e-12)
	assert.True(t, away.IsFallback)
}

func TestFairMoneyline(t *testing.T) {
	assert.True(t, FairMoneyline(0.75).Equal(decimal.NewFromInt(-300)))
	assert.True(t, FairMoneyline(0.25).Equal(decimal.NewFromInt(300)))
	assert.True(t, FairMoneyline(0.5).Equal(decimal.NewFromInt(-100)))

	assert.True(t, FairMoneyline(0.001).Equal(FairMoneyline(0.01)))
	assert.True(t, FairMoneyline(0.999).Equal(FairMoneyline(0.99)))

	for _, p := range []float64{0.05, 0.2, 0.45, 0.55, 0.8, 0.95} {
		assert.InDelta(t, p, impliedProbability(FairMoneyline(p)), 0.003, "p=%v", p)
	}
}

// impliedProbability converts American odds back into a probability.
func impliedProbability(moneyline decimal.Decimal) float64 {
	hundred := decimal.NewFromInt(100)
	if moneyline.IsNegative() {
		abs := moneyline.Abs()
		return abs.Div(abs.Add(hundred)).InexactFloat64()
	}
	return hundred.Div(moneyline.Add(hundred)).InexactFloat64()
}

func TestEfficiencyTableDefaults(t *testing.T) {
	table := NewEfficiencyTable()
	table.Set("duke", EfficiencyRecord{OffEff: 118, DefEff: 92})

	assert.Equal(t, 118.0, table.Get("duke").OffEff)
	assert.Equal(t, LeagueAverageEfficiency, table.Get("unknown").DefEff)

	var nilTable *EfficiencyTable
	assert.Equal(t, LeagueAverageEfficiency, nilTable.Get("duke").OffEff)
}

func TestFeatureVectorStatsAlignWithNames(t *testing.T) {
	v := LeagueDefaults("duke", "2024-25", time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC))
	assert.Len(t, v.Stats(), len(StatNames))
	assert.Equal(t, DefaultWinPct, v.WinPctShort)
	assert.Equal(t, DefaultRestDays, v.RestDays)
}
