package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/hoopscore/internal/database"
	"github.com/yourusername/hoopscore/internal/models"
)

// PostgresGameRepository implements GameRepository for PostgreSQL
type PostgresGameRepository struct {
	db *database.DB
}

// NewPostgresGameRepository creates a new game repository
func NewPostgresGameRepository(db *database.DB) GameRepository {
	return &PostgresGameRepository{db: db}
}

const upsertRawGameQuery = `
	INSERT INTO raw_games (game_id, date, season, home_team, away_team, home_score, away_score,
		is_neutral, home_rank, away_rank, home_box, away_box)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (game_id) DO UPDATE SET
		date = EXCLUDED.date, season = EXCLUDED.season,
		home_team = EXCLUDED.home_team, away_team = EXCLUDED.away_team,
		home_score = EXCLUDED.home_score, away_score = EXCLUDED.away_score,
		is_neutral = EXCLUDED.is_neutral, home_rank = EXCLUDED.home_rank, away_rank = EXCLUDED.away_rank,
		home_box = EXCLUDED.home_box, away_box = EXCLUDED.away_box, scraped_at = NOW()
`

// UpsertRaw stores scraped rows, replacing earlier copies of the same game.
func (g *PostgresGameRepository) UpsertRaw(ctx context.Context, raws []models.RawGame) error {
	batch := &pgx.Batch{}
	for i := range raws {
		r := &raws[i]
		batch.Queue(upsertRawGameQuery,
			r.GameID, r.Date, r.Season, r.HomeTeamRaw, r.AwayTeamRaw, r.HomeScore, r.AwayScore,
			r.IsNeutral, r.HomeRank, r.AwayRank, r.HomeBox, r.AwayBox,
		)
	}
	return g.sendBatch(ctx, batch, "raw game")
}

// ListRaw returns the raw rows of the given seasons.
func (g *PostgresGameRepository) ListRaw(ctx context.Context, seasons []string) ([]models.RawGame, error) {
	query := `
		SELECT game_id, date, season, home_team, away_team, home_score, away_score,
			is_neutral, home_rank, away_rank, home_box, away_box
		FROM raw_games
		WHERE season = ANY($1)
		ORDER BY date ASC, game_id ASC
	`

	rows, err := g.db.Query(ctx, query, seasons)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw games: %w", err)
	}
	defer rows.Close()

	var raws []models.RawGame
	for rows.Next() {
		var r models.RawGame
		if err := rows.Scan(
			&r.GameID, &r.Date, &r.Season, &r.HomeTeamRaw, &r.AwayTeamRaw, &r.HomeScore, &r.AwayScore,
			&r.IsNeutral, &r.HomeRank, &r.AwayRank, &r.HomeBox, &r.AwayBox,
		); err != nil {
			return nil, fmt.Errorf("failed to scan raw game: %w", err)
		}
		raws = append(raws, r)
	}
	return raws, rows.Err()
}

const upsertGameQuery = `
	INSERT INTO games (game_id, date, season, home_team_id, away_team_id, home_conference, away_conference,
		home_score, away_score, is_neutral, home_rank, away_rank, home_box, away_box, unresolved)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (game_id) DO UPDATE SET
		date = EXCLUDED.date, season = EXCLUDED.season,
		home_team_id = EXCLUDED.home_team_id, away_team_id = EXCLUDED.away_team_id,
		home_conference = EXCLUDED.home_conference, away_conference = EXCLUDED.away_conference,
		home_score = EXCLUDED.home_score, away_score = EXCLUDED.away_score,
		is_neutral = EXCLUDED.is_neutral, home_rank = EXCLUDED.home_rank, away_rank = EXCLUDED.away_rank,
		home_box = EXCLUDED.home_box, away_box = EXCLUDED.away_box,
		unresolved = EXCLUDED.unresolved, updated_at = NOW()
`

// Upsert stores normalized games.
func (g *PostgresGameRepository) Upsert(ctx context.Context, games []models.Game) error {
	batch := &pgx.Batch{}
	for i := range games {
		gm := &games[i]
		batch.Queue(upsertGameQuery,
			gm.ID, gm.Date, gm.Season, string(gm.HomeTeamID), string(gm.AwayTeamID),
			gm.HomeConference, gm.AwayConference, gm.HomeScore, gm.AwayScore,
			gm.IsNeutral, gm.HomeRank, gm.AwayRank, gm.HomeBox, gm.AwayBox, gm.Unresolved,
		)
	}
	return g.sendBatch(ctx, batch, "game")
}

const selectGameColumns = `
	SELECT game_id, date, season, home_team_id, away_team_id, home_conference, away_conference,
		home_score, away_score, is_neutral, home_rank, away_rank, home_box, away_box, unresolved
	FROM games
`

// ListBySeasons returns the games of the given seasons in date order.
func (g *PostgresGameRepository) ListBySeasons(ctx context.Context, seasons []string) ([]models.Game, error) {
	rows, err := g.db.Query(ctx, selectGameColumns+`WHERE season = ANY($1) ORDER BY date ASC, game_id ASC`, seasons)
	if err != nil {
		return nil, fmt.Errorf("failed to query games by season: %w", err)
	}
	return collectGames(rows)
}

// ListScheduled returns games without a final score dated within [from, to].
func (g *PostgresGameRepository) ListScheduled(ctx context.Context, from, to time.Time) ([]models.Game, error) {
	rows, err := g.db.Query(ctx, selectGameColumns+`
		WHERE date >= $1 AND date <= $2 AND (home_score IS NULL OR away_score IS NULL)
		ORDER BY date ASC, game_id ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled games: %w", err)
	}
	return collectGames(rows)
}

func collectGames(rows pgx.Rows) ([]models.Game, error) {
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		var gm models.Game
		var home, away string
		if err := rows.Scan(
			&gm.ID, &gm.Date, &gm.Season, &home, &away, &gm.HomeConference, &gm.AwayConference,
			&gm.HomeScore, &gm.AwayScore, &gm.IsNeutral, &gm.HomeRank, &gm.AwayRank,
			&gm.HomeBox, &gm.AwayBox, &gm.Unresolved,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		gm.HomeTeamID, gm.AwayTeamID = models.TeamID(home), models.TeamID(away)
		games = append(games, gm)
	}
	return games, rows.Err()
}

func (g *PostgresGameRepository) sendBatch(ctx context.Context, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}
	br := g.db.GetPool().SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to upsert %s %d of %d: %w", what, i+1, batch.Len(), err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close %s batch: %w", what, err)
	}
	return nil
}
