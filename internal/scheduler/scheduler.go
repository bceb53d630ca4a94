// Package scheduler runs the recurring pipeline jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/datasource"
	"github.com/yourusername/hoopscore/internal/drift"
	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/predictor"
	"github.com/yourusername/hoopscore/internal/service"
)

// Job names
const (
	JobRefresh = "refresh"
	JobDrift   = "drift"
	JobRetrain = "retrain"
)

// Pipeline is the part of service.Pipeline the jobs call.
type Pipeline interface {
	Ingest(ctx context.Context, raws []models.RawGame) (*service.DataQualityReport, error)
	RefreshFeatures(ctx context.Context) (*service.RefreshResult, error)
	Train(ctx context.Context) (*predictor.Artifact, error)
	PredictUpcoming(ctx context.Context) ([]models.Prediction, error)
	CheckDrift(ctx context.Context, from, to time.Time, window int) (*drift.Report, error)
}

type job struct {
	id      cron.EntryID
	spec    string
	timeout time.Duration
	run     func(ctx context.Context) error
}

// Scheduler manages scheduled pipeline jobs
type Scheduler struct {
	cron            *cron.Cron
	pipeline        Pipeline
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobs            map[string]*job
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler. A job still running when its next
// tick fires is skipped for that tick.
func NewScheduler(pipeline Pipeline, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	entry := logger.WithField("component", "scheduler")
	cronLogger := cron.PrintfLogger(entry)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		pipeline:        pipeline,
		logger:          entry,
		jobs:            make(map[string]*job),
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// ScheduleRefresh rebuilds features and then predicts upcoming games. With a
// feed, its rows are ingested first; a failed fetch is logged and the
// refresh still runs on stored data.
func (s *Scheduler) ScheduleRefresh(spec string, feed datasource.Source) error {
	return s.add(JobRefresh, spec, 2*time.Hour, func(ctx context.Context) error {
		if feed != nil {
			s.ingestFeed(ctx, feed)
		}
		result, err := s.pipeline.RefreshFeatures(ctx)
		if err != nil {
			return err
		}
		predictions, err := s.pipeline.PredictUpcoming(ctx)
		if err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"games":       result.Quality.Accepted,
			"skipped":     result.Quality.Skipped,
			"vectors":     result.Stored,
			"predictions": len(predictions),
		}).Info("Scheduled refresh completed")
		return nil
	})
}

func (s *Scheduler) ingestFeed(ctx context.Context, feed datasource.Source) {
	raws, err := feed.FetchGames(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("feed", feed.Name()).Warn("Feed fetch failed, refreshing from stored games")
		return
	}
	report, err := s.pipeline.Ingest(ctx, raws)
	if err != nil {
		s.logger.WithError(err).WithField("feed", feed.Name()).Warn("Feed ingest failed, refreshing from stored games")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"feed":     feed.Name(),
		"accepted": report.Accepted,
		"skipped":  report.Skipped,
	}).Info("Feed ingested")
}

// ScheduleDrift scores the predictions of the last lookbackDays days.
func (s *Scheduler) ScheduleDrift(spec string, lookbackDays, window int) error {
	if lookbackDays <= 0 {
		return fmt.Errorf("drift lookback must be positive, got %d", lookbackDays)
	}
	return s.add(JobDrift, spec, 10*time.Minute, func(ctx context.Context) error {
		to := models.TruncateDay(s.now())
		from := to.AddDate(0, 0, -lookbackDays)
		report, err := s.pipeline.CheckDrift(ctx, from, to, window)
		if err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"games":  report.Cumulative.Games,
			"brier":  report.Cumulative.Brier,
			"flags":  len(report.Flags),
			"window": report.Window,
		}).Info("Scheduled drift check completed")
		return nil
	})
}

// ScheduleRetrain refits and activates a new model.
func (s *Scheduler) ScheduleRetrain(spec string) error {
	return s.add(JobRetrain, spec, 4*time.Hour, func(ctx context.Context) error {
		artifact, err := s.pipeline.Train(ctx)
		if err != nil {
			return err
		}
		s.logger.WithField("model_id", artifact.ID).Info("Scheduled retrain completed")
		return nil
	})
}

func (s *Scheduler) add(name, spec string, timeout time.Duration, run func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s is already scheduled", name)
	}

	j := &job{spec: spec, timeout: timeout, run: run}
	entryID, err := s.cron.AddFunc(spec, func() { s.execute(name, j) })
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}
	j.id = entryID
	s.jobs[name] = j

	s.logger.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Scheduled job")
	return nil
}

func (s *Scheduler) execute(name string, j *job) error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	s.logger.WithField("job", name).Info("Job started")
	if err := j.run(ctx); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"job":      name,
			"duration": time.Since(start),
		}).Error("Job failed")
		return err
	}
	return nil
}

// RunNow runs a scheduled job immediately on the calling goroutine.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s is not scheduled", name)
	}
	return s.execute(name, j)
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs, up to the graceful
// timeout.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulTimeout)
	defer cancel()

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for running jobs: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time any scheduled job is next due.
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().UTC()
	nextRun := time.Time{}
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.id)
		if !entry.Valid() {
			continue
		}
		next := entry.Schedule.Next(now)
		if nextRun.IsZero() || next.Before(nextRun) {
			nextRun = next
		}
	}
	return nextRun
}

// Jobs returns the scheduled job names in sorted order.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %s is not scheduled", name)
	}

	s.cron.Remove(j.id)
	delete(s.jobs, name)
	s.logger.WithField("job", name).Info("Removed job")
	return nil
}
