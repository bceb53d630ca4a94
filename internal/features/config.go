// Package features builds point-in-time team feature vectors. Every value
// attached to a game is computed only from games strictly before it.
//
// The adjusted-efficiency features are the one exception under the default
// ScopeSeason: they adjust prior games by each opponent's full-season
// aggregate, so appending later games to a season can change them. Vectors
// are bit-identical under appends only with ScopePointInTime.
package features

import (
	"fmt"

	"github.com/yourusername/hoopscore/internal/ratings"
)

// OpponentScope selects which games feed the opponent efficiency reference
// used by the adjusted-efficiency features.
type OpponentScope string

const (
	// ScopeSeason uses each opponent's aggregate over the whole season,
	// including games after the as-of date.
	ScopeSeason OpponentScope = "season"
	// ScopePointInTime uses each opponent's aggregate over games before the
	// as-of date only.
	ScopePointInTime OpponentScope = "point_in_time"
)

// Config holds the feature store knobs.
type Config struct {
	ShortWindow           int
	LongWindow            int
	MinGamesThreshold     int
	RestDefaultDays       int
	RestCapDays           int
	PriorSeasonRegression float64
	OpponentScope         OpponentScope
	Workers               int
	Ratings               ratings.Config
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ShortWindow:           5,
		LongWindow:            10,
		MinGamesThreshold:     5,
		RestDefaultDays:       7,
		RestCapDays:           14,
		PriorSeasonRegression: 0.25,
		OpponentScope:         ScopeSeason,
		Workers:               4,
		Ratings:               ratings.DefaultConfig(),
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.ShortWindow <= 0 || c.LongWindow <= 0 {
		return fmt.Errorf("rolling windows must be positive, got %d and %d", c.ShortWindow, c.LongWindow)
	}
	if c.ShortWindow >= c.LongWindow {
		return fmt.Errorf("short window (%d) must be smaller than long window (%d)", c.ShortWindow, c.LongWindow)
	}
	if c.MinGamesThreshold < 0 {
		return fmt.Errorf("min games threshold cannot be negative")
	}
	if c.RestCapDays < c.RestDefaultDays {
		return fmt.Errorf("rest cap (%d) cannot be below the season-opener default (%d)", c.RestCapDays, c.RestDefaultDays)
	}
	if c.PriorSeasonRegression < 0 || c.PriorSeasonRegression > 1 {
		return fmt.Errorf("prior season regression must be within [0, 1]")
	}
	switch c.OpponentScope {
	case ScopeSeason, ScopePointInTime:
	default:
		return fmt.Errorf("unknown opponent scope %q", c.OpponentScope)
	}
	return nil
}
