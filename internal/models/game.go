package models

import (
	"time"
)

// TeamID is a stable team identifier produced by the identity resolver.
type TeamID string

// BoxScore carries the optional counting stats used to estimate possessions.
type BoxScore struct {
	FGA int `db:"fga" json:"fga"`
	ORB int `db:"orb" json:"orb"`
	TO  int `db:"to" json:"to"`
}

// RawGame is a game row as supplied by scrapers or persistence, before team
// names are resolved.
type RawGame struct {
	GameID      string    `db:"game_id" json:"game_id"`
	Date        string    `db:"date" json:"date"`
	Season      string    `db:"season" json:"season"`
	HomeTeamRaw string    `db:"home_team" json:"home_team"`
	AwayTeamRaw string    `db:"away_team" json:"away_team"`
	HomeScore   *int      `db:"home_score" json:"home_score"`
	AwayScore   *int      `db:"away_score" json:"away_score"`
	IsNeutral   bool      `db:"is_neutral" json:"is_neutral"`
	HomeRank    *int      `db:"home_rank" json:"home_rank"`
	AwayRank    *int      `db:"away_rank" json:"away_rank"`
	HomeBox     *BoxScore `json:"home_box,omitempty"`
	AwayBox     *BoxScore `json:"away_box,omitempty"`
}

// Game is a completed or scheduled contest with resolved team identities.
type Game struct {
	ID             string    `db:"game_id" json:"game_id" validate:"required"`
	Date           time.Time `db:"date" json:"date" validate:"required"`
	Season         string    `db:"season" json:"season" validate:"required"`
	HomeTeamID     TeamID    `db:"home_team_id" json:"home_team_id" validate:"required"`
	AwayTeamID     TeamID    `db:"away_team_id" json:"away_team_id" validate:"required"`
	HomeConference string    `db:"home_conference" json:"home_conference"`
	AwayConference string    `db:"away_conference" json:"away_conference"`
	HomeScore      *int      `db:"home_score" json:"home_score"`
	AwayScore      *int      `db:"away_score" json:"away_score"`
	IsNeutral      bool      `db:"is_neutral" json:"is_neutral"`
	HomeRank       *int      `db:"home_rank" json:"home_rank"`
	AwayRank       *int      `db:"away_rank" json:"away_rank"`
	HomeBox        *BoxScore `json:"home_box,omitempty"`
	AwayBox        *BoxScore `json:"away_box,omitempty"`
	// Unresolved is set when either team only has a fallback identity.
	Unresolved bool `json:"unresolved"`
}

// IsFinal reports whether both scores are known.
func (g *Game) IsFinal() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// HomeWon reports whether the home team won. Only meaningful for final games.
func (g *Game) HomeWon() bool {
	return g.IsFinal() && *g.HomeScore > *g.AwayScore
}

// Margin returns home minus away points, or 0 for games that are not final.
func (g *Game) Margin() int {
	if !g.IsFinal() {
		return 0
	}
	return *g.HomeScore - *g.AwayScore
}

// Involves reports whether team played in the game.
func (g *Game) Involves(team TeamID) bool {
	return g.HomeTeamID == team || g.AwayTeamID == team
}

// DateKey returns the calendar date of the game as a string key.
func (g *Game) DateKey() string {
	return g.Date.Format(DateLayout)
}

// IntPtr is a small helper for building optional scores and ranks.
func IntPtr(v int) *int {
	return &v
}
