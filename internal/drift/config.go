package drift

import "fmt"

// Config holds the drift monitor thresholds.
type Config struct {
	// Window is the number of most recent games in the rolling scope.
	Window int
	// MinSamples is the smallest scope on which a flag may be raised.
	MinSamples int
	// BrierDegradation is how much worse the rolling Brier score may be than
	// the cumulative one before calibration_decay is raised.
	BrierDegradation float64
	// BiasThreshold bounds |expected - actual| wins per game.
	BiasThreshold float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Window:           100,
		MinSamples:       30,
		BrierDegradation: 0.02,
		BiasThreshold:    0.05,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("drift window must be positive")
	}
	if c.MinSamples <= 0 {
		return fmt.Errorf("drift min samples must be positive")
	}
	if c.BrierDegradation <= 0 || c.BiasThreshold <= 0 {
		return fmt.Errorf("drift thresholds must be positive")
	}
	return nil
}
