// Package config provides configuration management for the hoopscore pipeline.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/hoopscore/internal/datasource"
	"github.com/yourusername/hoopscore/internal/drift"
	"github.com/yourusername/hoopscore/internal/features"
	"github.com/yourusername/hoopscore/internal/predictor"
	"github.com/yourusername/hoopscore/internal/ratings"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Ingestion IngestionConfig `mapstructure:"ingestion" validate:"required"`
	Features  FeaturesConfig  `mapstructure:"features" validate:"required"`
	Ratings   RatingsConfig   `mapstructure:"ratings" validate:"required"`
	Predictor PredictorConfig `mapstructure:"predictor" validate:"required"`
	Drift     DriftConfig     `mapstructure:"drift" validate:"required"`
	Schedule  ScheduleConfig  `mapstructure:"schedule" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// RedisConfig configures the shared feature cache. An empty URL disables it.
type RedisConfig struct {
	URL        string `mapstructure:"url" validate:"omitempty,url"`
	TTLMinutes int    `mapstructure:"ttl_minutes" validate:"omitempty,gt=0"`
}

// IngestionConfig controls raw game normalization
type IngestionConfig struct {
	Seasons        []string `mapstructure:"seasons" validate:"required,min=1,dive,season"`
	CatalogPath    string   `mapstructure:"catalog_path"`
	UpcomingDays   int      `mapstructure:"upcoming_days" validate:"required,gt=0"`
	HistorySeasons int      `mapstructure:"history_seasons" validate:"required,gt=0"`
	// FeedURL is polled before each scheduled refresh when set.
	FeedURL        string  `mapstructure:"feed_url" validate:"omitempty,url"`
	FeedRateLimit  float64 `mapstructure:"feed_rate_limit" validate:"omitempty,gt=0"`
	FeedMaxRetries int     `mapstructure:"feed_max_retries" validate:"gte=0"`
}

// FeaturesConfig represents feature store knobs
type FeaturesConfig struct {
	Windows               []int   `mapstructure:"windows" validate:"required,len=2,dive,gt=0"`
	MinGamesThreshold     int     `mapstructure:"min_games_threshold" validate:"gte=0"`
	RestDefaultDays       int     `mapstructure:"rest_default_days" validate:"gte=0"`
	RestCapDays           int     `mapstructure:"rest_cap_days" validate:"gt=0"`
	PriorSeasonRegression float64 `mapstructure:"prior_season_regression" validate:"gte=0,lte=1"`
	OpponentScope         string  `mapstructure:"opponent_scope" validate:"required,oneof=season point_in_time"`
	Workers               int     `mapstructure:"workers" validate:"required,gt=0"`
	CacheTTLMinutes       int     `mapstructure:"cache_ttl_minutes" validate:"required,gt=0"`
}

// RatingsConfig represents power ratings knobs
type RatingsConfig struct {
	MaxIterations    int     `mapstructure:"max_iterations" validate:"required,gt=0"`
	Tolerance        float64 `mapstructure:"tolerance" validate:"gte=0"`
	LeagueAverage    float64 `mapstructure:"league_average" validate:"required,gt=0"`
	DefaultTempo     float64 `mapstructure:"default_tempo" validate:"required,gt=0"`
	RecencyWeightMin float64 `mapstructure:"recency_weight_min" validate:"gt=0,lte=1"`
	RecencyWeightMax float64 `mapstructure:"recency_weight_max" validate:"gt=0,lte=1"`
	QualityWinTopK   int     `mapstructure:"quality_win_top_k" validate:"required,gt=0"`
	BadLossBottomK   int     `mapstructure:"bad_loss_bottom_k" validate:"required,gt=0"`
}

// PredictorConfig represents classifier and calibration knobs
type PredictorConfig struct {
	ValidationDays        int     `mapstructure:"validation_days" validate:"required,gt=0"`
	SeasonDecay           float64 `mapstructure:"season_decay" validate:"gt=0,lte=1"`
	Trees                 int     `mapstructure:"trees" validate:"required,gt=0"`
	MaxDepth              int     `mapstructure:"max_depth" validate:"required,gt=0,lte=8"`
	LearningRate          float64 `mapstructure:"learning_rate" validate:"gt=0,lte=1"`
	MinLeaf               int     `mapstructure:"min_leaf" validate:"required,gt=0"`
	MaxBins               int     `mapstructure:"max_bins" validate:"required,min=2,max=256"`
	L2                    float64 `mapstructure:"l2" validate:"gte=0"`
	TemperatureMin        float64 `mapstructure:"temperature_min" validate:"gt=0"`
	TemperatureMax        float64 `mapstructure:"temperature_max" validate:"gt=0"`
	TemperatureStep       float64 `mapstructure:"temperature_step" validate:"gt=0"`
	MaxHomeShift          float64 `mapstructure:"max_home_shift" validate:"gte=0,lt=0.5"`
	ConfidenceCap         float64 `mapstructure:"confidence_cap" validate:"gt=0.5,lte=1"`
	FallbackCap           float64 `mapstructure:"fallback_cap" validate:"gt=0.5,lte=1"`
	EarlySeasonGames      int     `mapstructure:"early_season_games" validate:"gte=0"`
	MinCalibrationSamples int     `mapstructure:"min_calibration_samples" validate:"gte=0"`
	PruneImportance       float64 `mapstructure:"prune_importance" validate:"gte=0,lt=1"`
	ExplainFactors        int     `mapstructure:"explain_factors" validate:"gte=0"`
}

// DriftConfig represents drift monitor thresholds
type DriftConfig struct {
	Window           int     `mapstructure:"window" validate:"required,gt=0"`
	MinSamples       int     `mapstructure:"min_samples" validate:"required,gt=0"`
	BrierDegradation float64 `mapstructure:"brier_degradation" validate:"gt=0"`
	BiasThreshold    float64 `mapstructure:"bias_threshold" validate:"gt=0"`
	LookbackDays     int     `mapstructure:"lookback_days" validate:"omitempty,gt=0"`
}

// ScheduleConfig holds cron expressions for the recurring jobs
type ScheduleConfig struct {
	Refresh string `mapstructure:"refresh" validate:"required,cronspec"`
	Drift   string `mapstructure:"drift" validate:"required,cronspec"`
	Retrain string `mapstructure:"retrain" validate:"omitempty,cronspec"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RedisTTL returns the shared cache entry lifetime.
func (c *Config) RedisTTL() time.Duration {
	if c.Redis.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Redis.TTLMinutes) * time.Minute
}

// FeatureCacheTTL returns the in-process feature cache lifetime.
func (c *Config) FeatureCacheTTL() time.Duration {
	return time.Duration(c.Features.CacheTTLMinutes) * time.Minute
}

// FeedHTTPConfig returns the client settings for HTTP feeds.
func (c *Config) FeedHTTPConfig() datasource.HTTPClientConfig {
	out := datasource.DefaultHTTPClientConfig()
	if c.Ingestion.FeedRateLimit > 0 {
		out.RateLimit = c.Ingestion.FeedRateLimit
	}
	out.MaxRetries = c.Ingestion.FeedMaxRetries
	return out
}

// ToRatingsConfig converts the ratings section.
func (c *Config) ToRatingsConfig() ratings.Config {
	r := c.Ratings
	return ratings.Config{
		MaxIterations:    r.MaxIterations,
		Tolerance:        r.Tolerance,
		LeagueAverage:    r.LeagueAverage,
		DefaultTempo:     r.DefaultTempo,
		RecencyWeightMin: r.RecencyWeightMin,
		RecencyWeightMax: r.RecencyWeightMax,
		QualityWinTopK:   r.QualityWinTopK,
		BadLossBottomK:   r.BadLossBottomK,
	}
}

// ToFeatureConfig converts the features section, ratings included.
func (c *Config) ToFeatureConfig() features.Config {
	f := c.Features
	out := features.Config{
		MinGamesThreshold:     f.MinGamesThreshold,
		RestDefaultDays:       f.RestDefaultDays,
		RestCapDays:           f.RestCapDays,
		PriorSeasonRegression: f.PriorSeasonRegression,
		OpponentScope:         features.OpponentScope(f.OpponentScope),
		Workers:               f.Workers,
		Ratings:               c.ToRatingsConfig(),
	}
	if len(f.Windows) == 2 {
		out.ShortWindow, out.LongWindow = f.Windows[0], f.Windows[1]
	}
	return out
}

// ToPredictorConfig converts the predictor section.
func (c *Config) ToPredictorConfig() predictor.Config {
	p := c.Predictor
	return predictor.Config{
		ValidationDays: p.ValidationDays,
		SeasonDecay:    p.SeasonDecay,
		Booster: predictor.BoosterConfig{
			Trees:        p.Trees,
			MaxDepth:     p.MaxDepth,
			LearningRate: p.LearningRate,
			MinLeaf:      p.MinLeaf,
			MaxBins:      p.MaxBins,
			L2:           p.L2,
		},
		TemperatureMin:        p.TemperatureMin,
		TemperatureMax:        p.TemperatureMax,
		TemperatureStep:       p.TemperatureStep,
		MaxHomeShift:          p.MaxHomeShift,
		ConfidenceCap:         p.ConfidenceCap,
		FallbackCap:           p.FallbackCap,
		EarlySeasonGames:      p.EarlySeasonGames,
		MinCalibrationSamples: p.MinCalibrationSamples,
		PruneImportance:       p.PruneImportance,
		ExplainFactors:        p.ExplainFactors,
	}
}

// DriftLookback returns how many days of settled predictions the scheduled
// drift check scores.
func (c *Config) DriftLookback() int {
	if c.Drift.LookbackDays <= 0 {
		return 30
	}
	return c.Drift.LookbackDays
}

// ToDriftConfig converts the drift section.
func (c *Config) ToDriftConfig() drift.Config {
	return drift.Config{
		Window:           c.Drift.Window,
		MinSamples:       c.Drift.MinSamples,
		BrierDegradation: c.Drift.BrierDegradation,
		BiasThreshold:    c.Drift.BiasThreshold,
	}
}
