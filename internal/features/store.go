package features

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/hoopscore/internal/efficiency"
	"github.com/yourusername/hoopscore/internal/metrics"
	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/ratings"
)

// Store builds feature vectors.
type Store struct {
	config Config
	engine *ratings.Engine
	cache  Cache
	logger *logrus.Entry
}

// NewStore creates a feature store. cache may be nil.
func NewStore(config Config, cache Cache, logger *logrus.Logger) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Store{
		config: config,
		engine: ratings.NewEngine(config.Ratings, logger),
		cache:  cache,
		logger: logger.WithField("component", "feature_store"),
	}, nil
}

// Config returns the store configuration.
func (s *Store) Config() Config {
	return s.config
}

// BuildResult is the output of a batch build.
type BuildResult struct {
	// Vectors holds one pre-game vector per team per game, ordered by date,
	// game id, then home before away.
	Vectors []models.FeatureVector
	// Games holds the joined home and away vectors per game in the same order.
	Games     []models.GameFeatures
	Fallbacks map[models.FallbackType]int
	Duration  time.Duration
}

// FallbackCount returns how many vectors used any fallback source.
func (r *BuildResult) FallbackCount() int {
	total := 0
	for _, n := range r.Fallbacks {
		total += n
	}
	return total
}

// Build computes the pre-game vectors of both teams for every game in
// games. Final and scheduled games are both featurized; only final games
// contribute history.
func (s *Store) Build(ctx context.Context, games []models.Game) (*BuildResult, error) {
	start := time.Now()
	ds := newDataset(s.config, s.engine, games)

	type task struct {
		team   models.TeamID
		season string
		dates  []time.Time
	}
	byKey := make(map[efficiency.TeamSeason]map[string]time.Time)
	for i := range games {
		g := &games[i]
		for _, team := range []models.TeamID{g.HomeTeamID, g.AwayTeamID} {
			key := efficiency.TeamSeason{Team: team, Season: g.Season}
			if byKey[key] == nil {
				byKey[key] = make(map[string]time.Time)
			}
			byKey[key][g.DateKey()] = models.TruncateDay(g.Date)
		}
	}
	tasks := make([]task, 0, len(byKey))
	for key, dates := range byKey {
		t := task{team: key.Team, season: key.Season}
		for _, d := range dates {
			t.dates = append(t.dates, d)
		}
		sort.Slice(t.dates, func(i, j int) bool { return t.dates[i].Before(t.dates[j]) })
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].season != tasks[j].season {
			return tasks[i].season < tasks[j].season
		}
		return tasks[i].team < tasks[j].team
	})

	var mu sync.Mutex
	vectors := make(map[string]models.FeatureVector, len(games)*2)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for _, t := range tasks {
		g.Go(func() error {
			local := make(map[string]models.FeatureVector, len(t.dates))
			for _, asOf := range t.dates {
				if err := gctx.Err(); err != nil {
					return err
				}
				local[snapshotKey(t.team, t.season, asOf)] = ds.vector(t.team, t.season, asOf)
			}
			mu.Lock()
			for k, v := range local {
				vectors[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("feature build cancelled: %w", err)
	}

	ordered := make([]models.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ID < ordered[j].ID
	})

	result := &BuildResult{
		Vectors:   make([]models.FeatureVector, 0, len(ordered)*2),
		Games:     make([]models.GameFeatures, 0, len(ordered)),
		Fallbacks: make(map[models.FallbackType]int),
	}
	for i := range ordered {
		game := &ordered[i]
		asOf := models.TruncateDay(game.Date)
		home := vectors[snapshotKey(game.HomeTeamID, game.Season, asOf)]
		away := vectors[snapshotKey(game.AwayTeamID, game.Season, asOf)]
		result.Vectors = append(result.Vectors, home, away)
		result.Games = append(result.Games, joinGame(game, home, away))
		for _, v := range []models.FeatureVector{home, away} {
			if v.IsFallback {
				result.Fallbacks[v.FallbackType]++
			}
		}
	}
	result.Duration = time.Since(start)

	if n, worst := ds.unconverged(); n > 0 {
		s.logger.WithFields(logrus.Fields{
			"as_of_dates": n,
			"max_delta":   worst,
			"tolerance":   s.config.Ratings.Tolerance,
		}).Warn("Power ratings did not converge within the iteration budget")
	}

	fallbacks := make(map[string]int, len(result.Fallbacks))
	for kind, n := range result.Fallbacks {
		fallbacks[string(kind)] = n
	}
	metrics.RecordFeatureVectors(len(result.Vectors), fallbacks)
	metrics.RecordFeatureBuildDuration(result.Duration.Seconds())

	s.logger.WithFields(logrus.Fields{
		"games":     len(ordered),
		"vectors":   len(result.Vectors),
		"fallbacks": result.FallbackCount(),
		"duration":  result.Duration,
	}).Info("Feature build complete")

	return result, nil
}

// PointInTime returns the team's vector as of asOf using only history.
// Given the same games, it returns exactly what Build attaches to a game of
// the team on that date.
func (s *Store) PointInTime(
	ctx context.Context,
	team models.TeamID,
	season string,
	asOf time.Time,
	history []models.Game,
) (models.FeatureVector, error) {
	return s.Prepare(history).Vector(ctx, team, season, asOf)
}

// Prepare indexes a history once for repeated point-in-time lookups.
func (s *Store) Prepare(history []models.Game) *View {
	return &View{store: s, ds: newDataset(s.config, s.engine, history)}
}

// View answers point-in-time queries against one fixed history. It is safe
// for concurrent use.
type View struct {
	store *Store
	ds    *dataset
}

// Vector returns the team's vector as of asOf.
func (v *View) Vector(ctx context.Context, team models.TeamID, season string, asOf time.Time) (models.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return models.FeatureVector{}, err
	}
	if team == "" {
		return models.FeatureVector{}, fmt.Errorf("team id is required")
	}
	if _, err := models.ParseSeason(season); err != nil {
		return models.FeatureVector{}, err
	}
	asOf = models.TruncateDay(asOf)

	key := CacheKey{TeamID: team, Season: season, AsOf: asOf, Fingerprint: v.ds.fingerprint}
	if v.store.cache != nil {
		if cached, ok := v.store.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	vector := v.ds.vector(team, season, asOf)
	if v.store.cache != nil {
		v.store.cache.Set(ctx, key, vector)
	}
	return vector, nil
}

// Game returns the joined pre-game vectors of game.
func (v *View) Game(ctx context.Context, game *models.Game) (models.GameFeatures, error) {
	home, err := v.Vector(ctx, game.HomeTeamID, game.Season, game.Date)
	if err != nil {
		return models.GameFeatures{}, fmt.Errorf("home features for game %s: %w", game.ID, err)
	}
	away, err := v.Vector(ctx, game.AwayTeamID, game.Season, game.Date)
	if err != nil {
		return models.GameFeatures{}, fmt.Errorf("away features for game %s: %w", game.ID, err)
	}
	return joinGame(game, home, away), nil
}

// Ratings returns the season's power ratings from games before asOf.
func (v *View) Ratings(season string, asOf time.Time) *ratings.Result {
	return v.ds.ratingsAsOf(season, models.TruncateDay(asOf))
}

func joinGame(game *models.Game, home, away models.FeatureVector) models.GameFeatures {
	gf := models.GameFeatures{
		GameID:     game.ID,
		Date:       models.TruncateDay(game.Date),
		Season:     game.Season,
		HomeTeamID: game.HomeTeamID,
		AwayTeamID: game.AwayTeamID,
		IsNeutral:  game.IsNeutral,
		Home:       home,
		Away:       away,
	}
	if game.IsFinal() {
		won := game.HomeWon()
		gf.HomeWon = &won
	}
	return gf
}
