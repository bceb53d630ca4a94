package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side names the team a prediction favours.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Prediction is the calibrated output for one scheduled game.
type Prediction struct {
	GameID             string          `db:"game_id" json:"game_id" validate:"required"`
	ModelID            uuid.UUID       `db:"model_id" json:"model_id"`
	Date               time.Time       `db:"date" json:"date"`
	Season             string          `db:"season" json:"season"`
	HomeTeamID         TeamID          `db:"home_team_id" json:"home_team_id"`
	AwayTeamID         TeamID          `db:"away_team_id" json:"away_team_id"`
	PredictedWinner    TeamID          `db:"predicted_winner" json:"predicted_winner"`
	PredictedSide      Side            `db:"predicted_side" json:"predicted_side"`
	HomeWinProbability float64         `db:"home_win_probability" json:"home_win_probability" validate:"gte=0,lte=1"`
	Confidence         float64         `db:"confidence" json:"confidence" validate:"gte=0.5,lte=1"`
	IsFallback         bool            `db:"is_fallback" json:"is_fallback"`
	Explanation        string          `db:"explanation" json:"explanation,omitempty"`
	HomeFairOdds       decimal.Decimal `db:"home_fair_odds" json:"home_fair_odds"`
	AwayFairOdds       decimal.Decimal `db:"away_fair_odds" json:"away_fair_odds"`
	PredictedAt        time.Time       `db:"predicted_at" json:"predicted_at"`
}

// NewPrediction fills the derived fields from a final home-win probability.
func NewPrediction(game *Game, p float64, fallback bool) Prediction {
	pred := Prediction{
		GameID:             game.ID,
		Date:               game.Date,
		Season:             game.Season,
		HomeTeamID:         game.HomeTeamID,
		AwayTeamID:         game.AwayTeamID,
		HomeWinProbability: p,
		Confidence:         max(p, 1-p),
		IsFallback:         fallback,
		HomeFairOdds:       FairMoneyline(p),
		AwayFairOdds:       FairMoneyline(1 - p),
	}
	if p >= 0.5 {
		pred.PredictedWinner = game.HomeTeamID
		pred.PredictedSide = SideHome
	} else {
		pred.PredictedWinner = game.AwayTeamID
		pred.PredictedSide = SideAway
	}
	return pred
}

// MeetsThreshold checks if the confidence meets the given threshold
func (p *Prediction) MeetsThreshold(threshold float64) bool {
	return p.Confidence >= threshold
}

// PredictionOutcome pairs a stored prediction with the final result.
type PredictionOutcome struct {
	GameID             string    `db:"game_id" json:"game_id"`
	Date               time.Time `db:"date" json:"date"`
	Season             string    `db:"season" json:"season"`
	HomeTeamID         TeamID    `db:"home_team_id" json:"home_team_id"`
	AwayTeamID         TeamID    `db:"away_team_id" json:"away_team_id"`
	HomeConference     string    `db:"home_conference" json:"home_conference"`
	AwayConference     string    `db:"away_conference" json:"away_conference"`
	HomeWinProbability float64   `db:"home_win_probability" json:"home_win_probability"`
	IsFallback         bool      `db:"is_fallback" json:"is_fallback"`
	HomeWon            bool      `db:"home_won" json:"home_won"`
}

// Correct reports whether the favoured side won.
func (o *PredictionOutcome) Correct() bool {
	return (o.HomeWinProbability >= 0.5) == o.HomeWon
}
