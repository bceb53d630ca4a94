package models

import (
	"time"
)

// FallbackType records which source filled a feature vector when the team had
// too little current-season history.
type FallbackType string

const (
	FallbackNone        FallbackType = ""
	FallbackPriorSeason FallbackType = "prior_season"
	FallbackConference  FallbackType = "conference"
	FallbackLeague      FallbackType = "league"
)

// League-average defaults used for the last fallback tier and for empty windows.
const (
	DefaultWinPct    = 0.5
	DefaultPointDiff = 0.0
	DefaultAdjEff    = 0.0
	DefaultRestDays  = 7.0
)

// FeatureVector is a point-in-time snapshot of a team, computed only from
// games strictly before AsOf. Every field is always populated.
type FeatureVector struct {
	TeamID     TeamID    `db:"team_id" json:"team_id"`
	Season     string    `db:"season" json:"season"`
	AsOf       time.Time `db:"as_of_date" json:"as_of_date"`
	Conference string    `db:"conference" json:"conference"`

	GamesPlayed int `db:"games_played" json:"games_played"`

	WinPctShort    float64 `db:"win_pct_short" json:"win_pct_short"`
	WinPctLong     float64 `db:"win_pct_long" json:"win_pct_long"`
	PointDiffShort float64 `db:"point_diff_short" json:"point_diff_short"`
	PointDiffLong  float64 `db:"point_diff_long" json:"point_diff_long"`
	AdjOffShort    float64 `db:"adj_off_short" json:"adj_off_short"`
	AdjOffLong     float64 `db:"adj_off_long" json:"adj_off_long"`
	AdjDefShort    float64 `db:"adj_def_short" json:"adj_def_short"`
	AdjDefLong     float64 `db:"adj_def_long" json:"adj_def_long"`

	HomeWinPct    float64 `db:"home_win_pct" json:"home_win_pct"`
	HomePointDiff float64 `db:"home_point_diff" json:"home_point_diff"`
	AwayWinPct    float64 `db:"away_win_pct" json:"away_win_pct"`
	AwayPointDiff float64 `db:"away_point_diff" json:"away_point_diff"`

	RestDays float64 `db:"rest_days" json:"rest_days"`
	Momentum float64 `db:"momentum" json:"momentum"`

	PowerRating float64 `db:"power_rating" json:"power_rating"`
	SOS         float64 `db:"sos" json:"sos"`
	QualityWins float64 `db:"quality_wins" json:"quality_wins"`
	BadLosses   float64 `db:"bad_losses" json:"bad_losses"`

	IsFallback   bool         `db:"is_fallback" json:"is_fallback"`
	FallbackType FallbackType `db:"fallback_type" json:"fallback_type"`
}

// StatNames lists the numeric features of a vector in the order returned by Stats.
var StatNames = []string{
	"games_played",
	"win_pct_short", "win_pct_long",
	"point_diff_short", "point_diff_long",
	"adj_off_short", "adj_off_long",
	"adj_def_short", "adj_def_long",
	"home_win_pct", "home_point_diff",
	"away_win_pct", "away_point_diff",
	"rest_days", "momentum",
	"power_rating", "sos", "quality_wins", "bad_losses",
}

// Stats returns the numeric features in StatNames order.
func (v *FeatureVector) Stats() []float64 {
	return []float64{
		float64(v.GamesPlayed),
		v.WinPctShort, v.WinPctLong,
		v.PointDiffShort, v.PointDiffLong,
		v.AdjOffShort, v.AdjOffLong,
		v.AdjDefShort, v.AdjDefLong,
		v.HomeWinPct, v.HomePointDiff,
		v.AwayWinPct, v.AwayPointDiff,
		v.RestDays, v.Momentum,
		v.PowerRating, v.SOS, v.QualityWins, v.BadLosses,
	}
}

// PerformanceFields returns pointers to the fields a fallback source replaces.
// Schedule facts (games played, rest days) are not included.
func (v *FeatureVector) PerformanceFields() []*float64 {
	return []*float64{
		&v.WinPctShort, &v.WinPctLong,
		&v.PointDiffShort, &v.PointDiffLong,
		&v.AdjOffShort, &v.AdjOffLong,
		&v.AdjDefShort, &v.AdjDefLong,
		&v.HomeWinPct, &v.HomePointDiff,
		&v.AwayWinPct, &v.AwayPointDiff,
		&v.Momentum,
		&v.PowerRating, &v.SOS, &v.QualityWins, &v.BadLosses,
	}
}

// LeagueDefaults returns a vector whose performance fields hold the documented
// league-average defaults.
func LeagueDefaults(team TeamID, season string, asOf time.Time) FeatureVector {
	return FeatureVector{
		TeamID:         team,
		Season:         season,
		AsOf:           asOf,
		WinPctShort:    DefaultWinPct,
		WinPctLong:     DefaultWinPct,
		PointDiffShort: DefaultPointDiff,
		PointDiffLong:  DefaultPointDiff,
		AdjOffShort:    DefaultAdjEff,
		AdjOffLong:     DefaultAdjEff,
		AdjDefShort:    DefaultAdjEff,
		AdjDefLong:     DefaultAdjEff,
		HomeWinPct:     DefaultWinPct,
		HomePointDiff:  DefaultPointDiff,
		AwayWinPct:     DefaultWinPct,
		AwayPointDiff:  DefaultPointDiff,
		RestDays:       DefaultRestDays,
	}
}

// GameFeatures joins the home and away vectors of one game. HomeWon is nil
// for games that are not final.
type GameFeatures struct {
	GameID     string        `json:"game_id"`
	Date       time.Time     `json:"date"`
	Season     string        `json:"season"`
	HomeTeamID TeamID        `json:"home_team_id"`
	AwayTeamID TeamID        `json:"away_team_id"`
	IsNeutral  bool          `json:"is_neutral"`
	Home       FeatureVector `json:"home"`
	Away       FeatureVector `json:"away"`
	HomeWon    *bool         `json:"home_won,omitempty"`
}

// IsFallback reports whether either side used a fallback source.
func (g *GameFeatures) IsFallback() bool {
	return g.Home.IsFallback || g.Away.IsFallback
}

// MinGamesPlayed returns the smaller current-season game count of the two sides.
func (g *GameFeatures) MinGamesPlayed() int {
	return min(g.Home.GamesPlayed, g.Away.GamesPlayed)
}
