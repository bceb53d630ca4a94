package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/hoopscore/internal/drift"
	"github.com/yourusername/hoopscore/internal/features"
	"github.com/yourusername/hoopscore/internal/predictor"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "HOOPSCORE"

const defaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration with the documented defaults for every
// pipeline knob. A missing file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "hoopscore")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "hoopscore")
	v.SetDefault("database.user", "hoopscore")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("redis.ttl_minutes", 60)

	v.SetDefault("ingestion.upcoming_days", 7)
	v.SetDefault("ingestion.history_seasons", 3)
	v.SetDefault("ingestion.feed_rate_limit", 2.0)
	v.SetDefault("ingestion.feed_max_retries", 5)

	f := features.DefaultConfig()
	v.SetDefault("features.windows", []int{f.ShortWindow, f.LongWindow})
	v.SetDefault("features.min_games_threshold", f.MinGamesThreshold)
	v.SetDefault("features.rest_default_days", f.RestDefaultDays)
	v.SetDefault("features.rest_cap_days", f.RestCapDays)
	v.SetDefault("features.prior_season_regression", f.PriorSeasonRegression)
	v.SetDefault("features.opponent_scope", string(f.OpponentScope))
	v.SetDefault("features.workers", f.Workers)
	v.SetDefault("features.cache_ttl_minutes", 30)

	r := f.Ratings
	v.SetDefault("ratings.max_iterations", r.MaxIterations)
	v.SetDefault("ratings.tolerance", r.Tolerance)
	v.SetDefault("ratings.league_average", r.LeagueAverage)
	v.SetDefault("ratings.default_tempo", r.DefaultTempo)
	v.SetDefault("ratings.recency_weight_min", r.RecencyWeightMin)
	v.SetDefault("ratings.recency_weight_max", r.RecencyWeightMax)
	v.SetDefault("ratings.quality_win_top_k", r.QualityWinTopK)
	v.SetDefault("ratings.bad_loss_bottom_k", r.BadLossBottomK)

	p := predictor.DefaultConfig()
	v.SetDefault("predictor.validation_days", p.ValidationDays)
	v.SetDefault("predictor.season_decay", p.SeasonDecay)
	v.SetDefault("predictor.trees", p.Booster.Trees)
	v.SetDefault("predictor.max_depth", p.Booster.MaxDepth)
	v.SetDefault("predictor.learning_rate", p.Booster.LearningRate)
	v.SetDefault("predictor.min_leaf", p.Booster.MinLeaf)
	v.SetDefault("predictor.max_bins", p.Booster.MaxBins)
	v.SetDefault("predictor.l2", p.Booster.L2)
	v.SetDefault("predictor.temperature_min", p.TemperatureMin)
	v.SetDefault("predictor.temperature_max", p.TemperatureMax)
	v.SetDefault("predictor.temperature_step", p.TemperatureStep)
	v.SetDefault("predictor.max_home_shift", p.MaxHomeShift)
	v.SetDefault("predictor.confidence_cap", p.ConfidenceCap)
	v.SetDefault("predictor.fallback_cap", p.FallbackCap)
	v.SetDefault("predictor.early_season_games", p.EarlySeasonGames)
	v.SetDefault("predictor.min_calibration_samples", p.MinCalibrationSamples)
	v.SetDefault("predictor.prune_importance", p.PruneImportance)
	v.SetDefault("predictor.explain_factors", p.ExplainFactors)

	d := drift.DefaultConfig()
	v.SetDefault("drift.window", d.Window)
	v.SetDefault("drift.min_samples", d.MinSamples)
	v.SetDefault("drift.brier_degradation", d.BrierDegradation)
	v.SetDefault("drift.bias_threshold", d.BiasThreshold)
	v.SetDefault("drift.lookback_days", 30)

	v.SetDefault("schedule.refresh", "0 6 * * *")
	v.SetDefault("schedule.drift", "30 6 * * *")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
