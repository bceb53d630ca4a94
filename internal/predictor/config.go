package predictor

import (
	"fmt"
)

// BoosterConfig controls the gradient boosted tree ensemble.
type BoosterConfig struct {
	Trees        int     `json:"trees"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
	MinLeaf      int     `json:"min_leaf"`
	MaxBins      int     `json:"max_bins"`
	L2           float64 `json:"l2"`
}

// Config holds the predictor knobs.
type Config struct {
	ValidationDays int
	SeasonDecay    float64
	Booster        BoosterConfig

	TemperatureMin  float64
	TemperatureMax  float64
	TemperatureStep float64
	MaxHomeShift    float64

	ConfidenceCap    float64
	FallbackCap      float64
	EarlySeasonGames int

	MinCalibrationSamples int
	// PruneImportance drops columns whose share of total split gain falls
	// below this value and refits. Zero disables pruning.
	PruneImportance float64
	ExplainFactors  int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ValidationDays: 14,
		SeasonDecay:    0.5,
		Booster: BoosterConfig{
			Trees:        150,
			MaxDepth:     3,
			LearningRate: 0.08,
			MinLeaf:      20,
			MaxBins:      32,
			L2:           1.0,
		},
		TemperatureMin:        0.3,
		TemperatureMax:        1.0,
		TemperatureStep:       0.05,
		MaxHomeShift:          0.06,
		ConfidenceCap:         0.85,
		FallbackCap:           0.75,
		EarlySeasonGames:      5,
		MinCalibrationSamples: 40,
		PruneImportance:       0,
		ExplainFactors:        3,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.ValidationDays <= 0 {
		return fmt.Errorf("validation days must be positive")
	}
	if c.SeasonDecay <= 0 || c.SeasonDecay > 1 {
		return fmt.Errorf("season decay must be within (0, 1]")
	}
	if c.Booster.Trees <= 0 || c.Booster.MaxDepth <= 0 {
		return fmt.Errorf("booster needs at least one tree of depth one")
	}
	if c.Booster.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive")
	}
	if c.Booster.MaxBins < 2 || c.Booster.MaxBins > 256 {
		return fmt.Errorf("max bins must be within [2, 256]")
	}
	if c.TemperatureMin <= 0 || c.TemperatureMin > c.TemperatureMax || c.TemperatureStep <= 0 {
		return fmt.Errorf("invalid temperature grid [%.2f, %.2f] step %.2f", c.TemperatureMin, c.TemperatureMax, c.TemperatureStep)
	}
	if c.ConfidenceCap <= 0.5 || c.ConfidenceCap > 1 {
		return fmt.Errorf("confidence cap must be within (0.5, 1]")
	}
	if c.FallbackCap <= 0.5 || c.FallbackCap > c.ConfidenceCap {
		return fmt.Errorf("fallback cap must be within (0.5, confidence cap]")
	}
	if c.MaxHomeShift < 0 || c.MaxHomeShift >= 0.5 {
		return fmt.Errorf("max home shift must be within [0, 0.5)")
	}
	if c.EarlySeasonGames < 0 {
		return fmt.Errorf("early season games cannot be negative")
	}
	return nil
}

// TemperatureGrid lists the candidate temperatures in ascending order.
func (c Config) TemperatureGrid() []float64 {
	var grid []float64
	for k := 0; ; k++ {
		t := c.TemperatureMin + float64(k)*c.TemperatureStep
		if t > c.TemperatureMax+1e-9 {
			break
		}
		grid = append(grid, t)
	}
	return grid
}
