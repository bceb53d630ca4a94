package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/hoopscore/internal/datasource"
	"github.com/yourusername/hoopscore/internal/health"
	"github.com/yourusername/hoopscore/internal/metrics"
	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/scheduler"
)

var (
	driftFrom   string
	driftTo     string
	driftWindow int
	runOnce     bool
)

func init() {
	driftCmd.Flags().StringVar(&driftFrom, "from", "", "First game date to score (default: lookback days before --to)")
	driftCmd.Flags().StringVar(&driftTo, "to", "", "Last game date to score (default: today)")
	driftCmd.Flags().IntVarP(&driftWindow, "window", "w", 0, "Rolling window size (default: configured window)")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run refresh and drift jobs once, then exit")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest LOCATION",
	Short: "Ingest raw game rows from a JSON file or HTTP feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := datasource.New(args[0], cfg.FeedHTTPConfig(), logger)
		raws, err := source.FetchGames(cmd.Context())
		if err != nil {
			return err
		}

		report, err := pipeline.Ingest(cmd.Context(), raws)
		if err != nil {
			return err
		}
		fmt.Println(report.String())
		byKind := report.ByKind()
		kinds := make([]string, 0, len(byKind))
		for kind := range byKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Printf("  %-16s %d\n", kind, byKind[kind])
		}
		return nil
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Rebuild and store point-in-time feature vectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := pipeline.RefreshFeatures(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Quality.String())
		fmt.Printf("Stored %d feature vectors (%d fallbacks) in %s\n",
			result.Stored, result.Build.FallbackCount(), result.Build.Duration.Round(time.Millisecond))
		return nil
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train, calibrate and activate a new model",
	RunE: func(cmd *cobra.Command, args []string) error {
		artifact, err := pipeline.Train(cmd.Context())
		if err != nil {
			return err
		}
		m := artifact.Metrics
		fmt.Printf("Model %s (%s) is active\n", artifact.ID, artifact.Version)
		fmt.Printf("  Train games:      %d (through %s)\n", m.TrainGames, m.TrainMaxDate.Format(models.DateLayout))
		fmt.Printf("  Validation games: %d (from %s)\n", m.ValidationGames, m.ValidationMinDate.Format(models.DateLayout))
		fmt.Printf("  Log loss:         %.4f\n", m.LogLoss)
		fmt.Printf("  Brier:            %.4f\n", m.Brier)
		fmt.Printf("  Accuracy:         %.2f%%\n", m.Accuracy*100)
		fmt.Printf("  ECE:              %.4f -> %.4f\n", m.RawECE, m.CalibratedECE)
		fmt.Printf("  Temperature:      %.2f, home shift %+.3f\n", artifact.Temperature, artifact.HomeShift)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict and store upcoming games",
	RunE: func(cmd *cobra.Command, args []string) error {
		predictions, err := pipeline.PredictUpcoming(cmd.Context())
		if err != nil {
			return err
		}
		if len(predictions) == 0 {
			fmt.Println("No upcoming games")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tHOME\tAWAY\tP(HOME)\tPICK\tCONF\tFAIR HOME\tFAIR AWAY\tFALLBACK")
		for _, p := range predictions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%s\t%.3f\t%s\t%s\t%t\n",
				p.Date.Format(models.DateLayout), p.HomeTeamID, p.AwayTeamID,
				p.HomeWinProbability, p.PredictedWinner, p.Confidence,
				p.HomeFairOdds.String(), p.AwayFairOdds.String(), p.IsFallback)
		}
		return tw.Flush()
	},
}

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Score stored predictions against results",
	RunE: func(cmd *cobra.Command, args []string) error {
		to := models.TruncateDay(time.Now())
		if driftTo != "" {
			d, err := parseDate(driftTo)
			if err != nil {
				return err
			}
			to = d
		}
		from := to.AddDate(0, 0, -cfg.DriftLookback())
		if driftFrom != "" {
			d, err := parseDate(driftFrom)
			if err != nil {
				return err
			}
			from = d
		}
		if from.After(to) {
			return fmt.Errorf("--from %s is after --to %s", from.Format(models.DateLayout), to.Format(models.DateLayout))
		}

		report, err := pipeline.CheckDrift(cmd.Context(), from, to, driftWindow)
		if err != nil {
			return err
		}
		return report.WriteTable(os.Stdout)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled refresh, drift and retrain jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		sched := scheduler.NewScheduler(pipeline, logger)
		var feed datasource.Source
		if cfg.Ingestion.FeedURL != "" {
			feed = datasource.New(cfg.Ingestion.FeedURL, cfg.FeedHTTPConfig(), logger)
		}
		if err := sched.ScheduleRefresh(cfg.Schedule.Refresh, feed); err != nil {
			return err
		}
		if err := sched.ScheduleDrift(cfg.Schedule.Drift, cfg.DriftLookback(), cfg.Drift.Window); err != nil {
			return err
		}
		if cfg.Schedule.Retrain != "" {
			if err := sched.ScheduleRetrain(cfg.Schedule.Retrain); err != nil {
				return err
			}
		}

		if runOnce {
			if err := sched.RunNow(scheduler.JobRefresh); err != nil {
				return err
			}
			return sched.RunNow(scheduler.JobDrift)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			server := health.NewServer(health.Config{
				ServiceName: cfg.App.Name,
				Version:     Version,
				Port:        cfg.Metrics.Port,
				MetricsPath: cfg.Metrics.Path,
				Metrics:     metrics.Handler(),
				Logger:      logger,
				DB:          db,
				Status:      daemonStatus{sched: sched},
			})
			if err := server.Start(ctx); err != nil {
				return err
			}
			server.SetReady(true)
		}

		if err := sched.Start(); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"jobs":     sched.Jobs(),
			"next_run": sched.GetNextRun(),
		}).Info("Scheduler running")

		<-ctx.Done()
		logger.Info("Shutdown signal received")
		return sched.Stop()
	},
}

// daemonStatus exposes the model state and next job time on /ready.
type daemonStatus struct {
	sched *scheduler.Scheduler
}

func (d daemonStatus) ModelState() string {
	return pipeline.Predictor().State().String()
}

func (d daemonStatus) NextRun() time.Time {
	return d.sched.GetNextRun()
}
