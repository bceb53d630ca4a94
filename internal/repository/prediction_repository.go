package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/yourusername/hoopscore/internal/database"
	"github.com/yourusername/hoopscore/internal/models"
)

var predictionColumns = []string{
	"game_id", "model_id", "date", "season", "home_team_id", "away_team_id",
	"predicted_winner", "predicted_side", "home_win_probability", "confidence",
	"is_fallback", "explanation", "home_fair_odds", "away_fair_odds", "predicted_at",
}

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// SaveBatch stores predictions, replacing earlier rows for the same game and model.
func (p *PostgresPredictionRepository) SaveBatch(ctx context.Context, predictions []models.Prediction) (int64, error) {
	if len(predictions) == 0 {
		return 0, nil
	}

	var copied int64
	err := p.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		gameIDs := make([]string, len(predictions))
		modelIDs := make([]string, len(predictions))
		rows := make([][]any, len(predictions))
		for i := range predictions {
			gameIDs[i] = predictions[i].GameID
			modelIDs[i] = predictions[i].ModelID.String()
			rows[i] = predictionRow(&predictions[i])
		}

		_, err := tx.Exec(ctx, `
			DELETE FROM predictions p
			USING unnest($1::text[], $2::uuid[]) AS k(game_id, model_id)
			WHERE p.game_id = k.game_id AND p.model_id = k.model_id
		`, gameIDs, modelIDs)
		if err != nil {
			return fmt.Errorf("failed to clear previous predictions: %w", err)
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{"predictions"}, predictionColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy predictions: %w", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

// ListOutcomes joins the latest prediction per game with final results for
// games dated within [from, to].
func (p *PostgresPredictionRepository) ListOutcomes(ctx context.Context, from, to time.Time) ([]models.PredictionOutcome, error) {
	query := `
		SELECT DISTINCT ON (p.game_id)
			p.game_id, g.date, g.season, g.home_team_id, g.away_team_id,
			g.home_conference, g.away_conference, p.home_win_probability, p.is_fallback,
			g.home_score > g.away_score AS home_won
		FROM predictions p
		JOIN games g ON g.game_id = p.game_id
		WHERE g.date >= $1 AND g.date <= $2
			AND g.home_score IS NOT NULL AND g.away_score IS NOT NULL
		ORDER BY p.game_id, p.predicted_at DESC
	`

	rows, err := p.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.PredictionOutcome
	for rows.Next() {
		var o models.PredictionOutcome
		var home, away string
		if err := rows.Scan(
			&o.GameID, &o.Date, &o.Season, &home, &away,
			&o.HomeConference, &o.AwayConference, &o.HomeWinProbability, &o.IsFallback, &o.HomeWon,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction outcome: %w", err)
		}
		o.HomeTeamID, o.AwayTeamID = models.TeamID(home), models.TeamID(away)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// ListByDateRange returns stored predictions for games dated within [from, to].
func (p *PostgresPredictionRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Prediction, error) {
	query := `
		SELECT game_id, model_id, date, season, home_team_id, away_team_id,
			predicted_winner, predicted_side, home_win_probability, confidence,
			is_fallback, explanation, home_fair_odds, away_fair_odds, predicted_at
		FROM predictions
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC, game_id ASC, predicted_at DESC
	`

	rows, err := p.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		var pred models.Prediction
		var home, away, winner, side string
		var homeOdds, awayOdds pgtype.Numeric
		if err := rows.Scan(
			&pred.GameID, &pred.ModelID, &pred.Date, &pred.Season, &home, &away,
			&winner, &side, &pred.HomeWinProbability, &pred.Confidence,
			&pred.IsFallback, &pred.Explanation, &homeOdds, &awayOdds, &pred.PredictedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		pred.HomeTeamID, pred.AwayTeamID = models.TeamID(home), models.TeamID(away)
		pred.PredictedWinner, pred.PredictedSide = models.TeamID(winner), models.Side(side)
		pred.HomeFairOdds, pred.AwayFairOdds = numericToDecimal(homeOdds), numericToDecimal(awayOdds)
		predictions = append(predictions, pred)
	}
	return predictions, rows.Err()
}

func predictionRow(pred *models.Prediction) []any {
	return []any{
		pred.GameID, pred.ModelID, pred.Date, pred.Season,
		string(pred.HomeTeamID), string(pred.AwayTeamID), string(pred.PredictedWinner), string(pred.PredictedSide),
		pred.HomeWinProbability, pred.Confidence, pred.IsFallback, pred.Explanation,
		decimalToNumeric(pred.HomeFairOdds), decimalToNumeric(pred.AwayFairOdds), pred.PredictedAt,
	}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
