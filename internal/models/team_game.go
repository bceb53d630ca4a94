package models

import "time"

// TeamGameRow is one team's perspective of one completed game.
type TeamGameRow struct {
	GameID        string    `db:"game_id" json:"game_id"`
	TeamID        TeamID    `db:"team_id" json:"team_id"`
	OpponentID    TeamID    `db:"opponent_id" json:"opponent_id"`
	Conference    string    `db:"conference" json:"conference"`
	Season        string    `db:"season" json:"season"`
	Date          time.Time `db:"date" json:"date"`
	PointsFor     int       `db:"points_for" json:"points_for"`
	PointsAgainst int       `db:"points_against" json:"points_against"`
	Possessions   float64   `db:"possessions_estimate" json:"possessions_estimate"`
	IsHome        bool      `db:"is_home" json:"is_home"`
	IsNeutral     bool      `db:"is_neutral" json:"is_neutral"`
}

// Won reports whether the team won the game.
func (r *TeamGameRow) Won() bool {
	return r.PointsFor > r.PointsAgainst
}

// PointDiff returns points for minus points against.
func (r *TeamGameRow) PointDiff() float64 {
	return float64(r.PointsFor - r.PointsAgainst)
}

// Venue returns the venue bucket of the row from the team's perspective.
func (r *TeamGameRow) Venue() Venue {
	switch {
	case r.IsNeutral:
		return VenueNeutral
	case r.IsHome:
		return VenueHome
	default:
		return VenueAway
	}
}

// Venue is home, away or neutral.
type Venue string

const (
	VenueHome    Venue = "home"
	VenueAway    Venue = "away"
	VenueNeutral Venue = "neutral"
)
