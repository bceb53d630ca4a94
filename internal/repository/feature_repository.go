package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/hoopscore/internal/database"
	"github.com/yourusername/hoopscore/internal/models"
)

// featureColumns is the column order used by COPY and SELECT.
var featureColumns = append(
	[]string{"team_id", "season", "as_of_date", "conference"},
	append(append([]string{}, models.StatNames...), "is_fallback", "fallback_type")...,
)

// PostgresFeatureRepository implements FeatureRepository for PostgreSQL
type PostgresFeatureRepository struct {
	db *database.DB
}

// NewPostgresFeatureRepository creates a new feature repository
func NewPostgresFeatureRepository(db *database.DB) FeatureRepository {
	return &PostgresFeatureRepository{db: db}
}

// Replace swaps out every stored vector of the seasons present in vectors and
// bulk-loads the new set in one transaction.
func (f *PostgresFeatureRepository) Replace(ctx context.Context, vectors []models.FeatureVector) (int64, error) {
	if len(vectors) == 0 {
		return 0, nil
	}

	var copied int64
	err := f.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM feature_vectors WHERE season = ANY($1)`, vectorSeasons(vectors)); err != nil {
			return fmt.Errorf("failed to clear feature vectors: %w", err)
		}

		rows := make([][]any, len(vectors))
		for i := range vectors {
			rows[i] = featureRow(&vectors[i])
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"feature_vectors"}, featureColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy feature vectors: %w", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

// Get retrieves the vector of a team as of a date.
func (f *PostgresFeatureRepository) Get(ctx context.Context, team models.TeamID, season string, asOf time.Time) (*models.FeatureVector, error) {
	query := `
		SELECT team_id, season, as_of_date, conference, games_played,
			win_pct_short, win_pct_long, point_diff_short, point_diff_long,
			adj_off_short, adj_off_long, adj_def_short, adj_def_long,
			home_win_pct, home_point_diff, away_win_pct, away_point_diff,
			rest_days, momentum, power_rating, sos, quality_wins, bad_losses,
			is_fallback, fallback_type
		FROM feature_vectors
		WHERE team_id = $1 AND season = $2 AND as_of_date = $3
	`

	v := &models.FeatureVector{}
	var teamID, fallbackType string
	err := f.db.QueryRow(ctx, query, string(team), season, asOf).Scan(
		&teamID, &v.Season, &v.AsOf, &v.Conference, &v.GamesPlayed,
		&v.WinPctShort, &v.WinPctLong, &v.PointDiffShort, &v.PointDiffLong,
		&v.AdjOffShort, &v.AdjOffLong, &v.AdjDefShort, &v.AdjDefLong,
		&v.HomeWinPct, &v.HomePointDiff, &v.AwayWinPct, &v.AwayPointDiff,
		&v.RestDays, &v.Momentum, &v.PowerRating, &v.SOS, &v.QualityWins, &v.BadLosses,
		&v.IsFallback, &fallbackType,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feature vector: %w", err)
	}
	v.TeamID = models.TeamID(teamID)
	v.FallbackType = models.FallbackType(fallbackType)
	return v, nil
}

// featureRow flattens a vector in featureColumns order.
func featureRow(v *models.FeatureVector) []any {
	stats := v.Stats()
	row := make([]any, 0, len(featureColumns))
	row = append(row, string(v.TeamID), v.Season, v.AsOf, v.Conference)
	// games_played is an integer column.
	row = append(row, int32(v.GamesPlayed))
	for _, s := range stats[1:] {
		row = append(row, s)
	}
	return append(row, v.IsFallback, string(v.FallbackType))
}

func vectorSeasons(vectors []models.FeatureVector) []string {
	seen := make(map[string]struct{})
	for i := range vectors {
		seen[vectors[i].Season] = struct{}{}
	}
	seasons := make([]string, 0, len(seen))
	for s := range seen {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)
	return seasons
}
