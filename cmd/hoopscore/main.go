// Package main provides the hoopscore command line: ingestion, feature
// refresh, training, prediction, drift checks and the scheduled daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/hoopscore/internal/config"
	"github.com/yourusername/hoopscore/internal/database"
	"github.com/yourusername/hoopscore/internal/drift"
	"github.com/yourusername/hoopscore/internal/features"
	"github.com/yourusername/hoopscore/internal/identity"
	applogger "github.com/yourusername/hoopscore/internal/logger"
	"github.com/yourusername/hoopscore/internal/metrics"
	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/predictor"
	"github.com/yourusername/hoopscore/internal/repository"
	"github.com/yourusername/hoopscore/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile  string
	logger      *logrus.Logger
	cfg         *config.Config
	db          *database.DB
	redisClient *redis.Client
	pipeline    *service.Pipeline
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:           "hoopscore",
	Short:         "NCAA basketball game predictions",
	Long:          `Ingests game results, builds point-in-time team features, trains a calibrated win probability model and monitors its drift.`,
	Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeDependencies()
	},
}

func main() {
	rootCmd.AddCommand(ingestCmd, featuresCmd, trainCmd, predictCmd, driftCmd, runCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		closeDependencies()
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	return config.ValidateEnvironment(cfg)
}

func setupDependencies(ctx context.Context) error {
	logger = applogger.NewLogger(cfg.App.LogLevel)
	logger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"seasons":     cfg.Ingestion.Seasons,
	}).Info("hoopscore starting")

	metrics.InitRegistry()

	var err error
	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	resolver := identity.NewResolver(logger)
	if cfg.Ingestion.CatalogPath != "" {
		resolver, err = identity.NewResolverFromFile(cfg.Ingestion.CatalogPath, logger)
		if err != nil {
			return fmt.Errorf("failed to load team catalogue: %w", err)
		}
	}

	store, err := features.NewStore(cfg.ToFeatureConfig(), newFeatureCache(ctx), logger)
	if err != nil {
		return err
	}
	pred, err := predictor.New(cfg.ToPredictorConfig(), store, logger)
	if err != nil {
		return err
	}
	monitor, err := drift.NewMonitor(cfg.ToDriftConfig(), logger)
	if err != nil {
		return err
	}

	pipeline, err = service.NewPipeline(
		service.PipelineConfig{
			Seasons:        cfg.Ingestion.Seasons,
			HistorySeasons: cfg.Ingestion.HistorySeasons,
			UpcomingDays:   cfg.Ingestion.UpcomingDays,
		},
		repos,
		service.NewIngestionService(resolver, service.NewDataValidator(nil), logger),
		store,
		pred,
		monitor,
		logger,
	)
	if err != nil {
		return err
	}

	if err := pipeline.LoadActiveModel(ctx); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to load active model: %w", err)
		}
		logger.Warn("No trained model yet; predictions will use the fallback probability")
	}
	return nil
}

// newFeatureCache layers the in-process cache over Redis when a URL is set.
// An unreachable Redis degrades to the local cache only.
func newFeatureCache(ctx context.Context) features.Cache {
	local := features.NewMemoryCache(cfg.FeatureCacheTTL())
	if cfg.Redis.URL == "" {
		return local
	}

	client, err := features.DialRedis(ctx, cfg.Redis.URL)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, using the in-process feature cache only")
		return local
	}
	redisClient = client
	return features.NewTieredCache(local, features.NewRedisCache(client, cfg.RedisTTL(), logger))
}

func closeDependencies() {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil && logger != nil {
			logger.WithError(err).Warn("Failed to close redis client")
		}
		redisClient = nil
	}
	if db != nil {
		db.Close()
		db = nil
	}
}

func parseDate(value string) (time.Time, error) {
	d, err := service.ParseGameDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return d, nil
}
