// Package ratings computes iterative opponent-adjusted power ratings and
// strength of schedule.
package ratings

import (
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/efficiency"
	"github.com/yourusername/hoopscore/internal/metrics"
	"github.com/yourusername/hoopscore/internal/models"
)

// Config holds the power ratings knobs.
type Config struct {
	// MaxIterations bounds the number of passes.
	MaxIterations int
	// Tolerance stops iteration early once no rating moves more than this
	// between passes. Zero runs the full budget and never warns.
	Tolerance        float64
	LeagueAverage    float64
	DefaultTempo     float64
	RecencyWeightMin float64
	RecencyWeightMax float64
	QualityWinTopK   int
	BadLossBottomK   int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    10,
		Tolerance:        0.01,
		LeagueAverage:    100.0,
		DefaultTempo:     70.0,
		RecencyWeightMin: 0.5,
		RecencyWeightMax: 1.0,
		QualityWinTopK:   50,
		BadLossBottomK:   50,
	}
}

// Rating is one team's power rating.
type Rating struct {
	TeamID     models.TeamID `json:"team_id"`
	AdjOffense float64       `json:"adj_offense"`
	AdjDefense float64       `json:"adj_defense"`
	AdjTempo   float64       `json:"adj_tempo"`
	NetRating  float64       `json:"net_rating"`
	Rank       int           `json:"rank"`
	Games      int           `json:"games"`
}

// Result is an immutable set of ratings.
type Result struct {
	Ratings    map[models.TeamID]Rating
	Iterations int
	Converged  bool
	LastDelta  float64
	Warning    *models.ConvergenceWarning

	neutral Rating
}

// Get returns the team's rating, or the neutral default for unseen teams.
func (r *Result) Get(team models.TeamID) Rating {
	if r != nil {
		if rating, ok := r.Ratings[team]; ok {
			return rating
		}
		n := r.neutral
		n.TeamID = team
		return n
	}
	return Rating{TeamID: team, AdjOffense: 100, AdjDefense: 100, AdjTempo: 70, Rank: 1}
}

// Has reports whether team was rated.
func (r *Result) Has(team models.TeamID) bool {
	if r == nil {
		return false
	}
	_, ok := r.Ratings[team]
	return ok
}

// Len returns the number of rated teams.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Ratings)
}

// Engine computes power ratings.
type Engine struct {
	config Config
	logger *logrus.Logger
}

// NewEngine creates a ratings engine.
func NewEngine(config Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultConfig().MaxIterations
	}
	return &Engine{config: config, logger: logger}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// CalculateGames melts final games and rates them.
func (e *Engine) CalculateGames(games []models.Game) *Result {
	return e.Calculate(efficiency.Melt(games))
}

// Calculate rates every team appearing in rows. Each pass builds a new
// ratings snapshot from the previous one.
func (e *Engine) Calculate(rows []models.TeamGameRow) *Result {
	start := time.Now()

	byTeam := make(map[models.TeamID][]models.TeamGameRow)
	for _, r := range rows {
		byTeam[r.TeamID] = append(byTeam[r.TeamID], r)
	}
	teams := make([]models.TeamID, 0, len(byTeam))
	for team, teamRows := range byTeam {
		efficiency.SortRows(teamRows)
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })

	weights := make(map[models.TeamID][]float64, len(teams))
	for _, team := range teams {
		weights[team] = RecencyWeights(len(byTeam[team]), e.config.RecencyWeightMin, e.config.RecencyWeightMax)
	}

	current := make(map[models.TeamID]Rating, len(teams))
	for _, team := range teams {
		current[team] = Rating{
			TeamID:     team,
			AdjOffense: e.config.LeagueAverage,
			AdjDefense: e.config.LeagueAverage,
			AdjTempo:   e.config.DefaultTempo,
			Games:      len(byTeam[team]),
		}
	}

	result := &Result{}
	for iter := 1; iter <= e.config.MaxIterations; iter++ {
		next, delta := e.pass(teams, byTeam, weights, current)
		current = next
		result.Iterations = iter
		result.LastDelta = delta
		if e.config.Tolerance > 0 && delta < e.config.Tolerance {
			result.Converged = true
			break
		}
	}
	if e.config.Tolerance <= 0 {
		result.Converged = true
	}

	rank(teams, current)
	result.Ratings = current
	result.neutral = Rating{
		AdjOffense: e.config.LeagueAverage,
		AdjDefense: e.config.LeagueAverage,
		AdjTempo:   e.config.DefaultTempo,
		Rank:       (len(teams) + 1) / 2,
	}
	if result.neutral.Rank == 0 {
		result.neutral.Rank = 1
	}

	if !result.Converged && len(teams) > 0 {
		result.Warning = &models.ConvergenceWarning{
			Iterations: result.Iterations,
			LastDelta:  result.LastDelta,
			Tolerance:  e.config.Tolerance,
		}
		e.logger.WithFields(logrus.Fields{
			"iterations": result.Iterations,
			"last_delta": result.LastDelta,
			"tolerance":  e.config.Tolerance,
			"teams":      len(teams),
		}).Debug(result.Warning.Error())
	}

	metrics.RecordRatingsRun(time.Since(start).Seconds(), result.Iterations, result.Converged)
	return result
}

// pass computes one iteration. current is read only.
func (e *Engine) pass(
	teams []models.TeamID,
	byTeam map[models.TeamID][]models.TeamGameRow,
	weights map[models.TeamID][]float64,
	current map[models.TeamID]Rating,
) (map[models.TeamID]Rating, float64) {
	var sumO, sumD float64
	for _, team := range teams {
		sumO += current[team].AdjOffense
		sumD += current[team].AdjDefense
	}
	avgO, avgD := e.config.LeagueAverage, e.config.LeagueAverage
	if len(teams) > 0 {
		avgO = sumO / float64(len(teams))
		avgD = sumD / float64(len(teams))
	}

	next := make(map[models.TeamID]Rating, len(teams))
	maxDelta := 0.0
	for _, team := range teams {
		teamRows := byTeam[team]
		w := weights[team]

		var wo, wd, wt, wsum float64
		for i := range teamRows {
			row := &teamRows[i]
			rawOff, rawDef := efficiency.RowEfficiency(row)
			opp, ok := current[row.OpponentID]
			if !ok {
				opp = Rating{AdjOffense: avgO, AdjDefense: avgD}
			}
			wo += w[i] * (rawOff - (opp.AdjDefense - avgD))
			wd += w[i] * (rawDef - (opp.AdjOffense - avgO))
			wt += w[i] * row.Possessions
			wsum += w[i]
		}

		prev := current[team]
		updated := prev
		if wsum > 0 {
			updated.AdjOffense = wo / wsum
			updated.AdjDefense = wd / wsum
			updated.AdjTempo = wt / wsum
		}
		updated.NetRating = updated.AdjOffense - updated.AdjDefense
		next[team] = updated

		maxDelta = math.Max(maxDelta, math.Abs(updated.AdjOffense-prev.AdjOffense))
		maxDelta = math.Max(maxDelta, math.Abs(updated.AdjDefense-prev.AdjDefense))
	}
	return next, maxDelta
}

// rank assigns ranks by descending net rating, ties broken by team id.
func rank(teams []models.TeamID, ratings map[models.TeamID]Rating) {
	ordered := make([]models.TeamID, len(teams))
	copy(ordered, teams)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ratings[ordered[i]], ratings[ordered[j]]
		if a.NetRating != b.NetRating {
			return a.NetRating > b.NetRating
		}
		return ordered[i] < ordered[j]
	})
	for i, team := range ordered {
		r := ratings[team]
		r.Rank = i + 1
		ratings[team] = r
	}
}

// RecencyWeights returns n weights rising linearly from lo to hi. A single
// game gets weight hi.
func RecencyWeights(n int, lo, hi float64) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	if n == 1 {
		w[0] = hi
		return w
	}
	step := (hi - lo) / float64(n-1)
	for i := range w {
		w[i] = lo + step*float64(i)
	}
	return w
}
