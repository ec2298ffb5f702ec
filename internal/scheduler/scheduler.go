// Package scheduler runs ingestion cycles on a fixed interval for the
// long-running ingest mode. Each tick passes through the throttle gate, so
// the tick interval only bounds how late an hourly cycle can start.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/albapepper/fuelprice-data/internal/ingest"
)

// DefaultInterval is shorter than ingest.MinInterval so tick jitter never
// pushes a cycle a whole interval past the hour.
const DefaultInterval = 10 * time.Minute

// Cycler runs one ingestion cycle.
type Cycler interface {
	Run(ctx context.Context, opts ingest.CycleOptions) (ingest.CycleResult, error)
}

// Config controls the scheduled job.
type Config struct {
	Interval time.Duration
	Country  string
}

// Scheduler periodically runs ingestion cycles.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cycler    Cycler
	cfg       Config
	logger    *slog.Logger
}

// New creates a Scheduler. A non-positive interval uses DefaultInterval.
func New(cycler Cycler, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, cycler: cycler, cfg: cfg, logger: logger}
}

// Start schedules the cycle job, runs it once immediately and returns.
// Cycles stop being started once ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.cfg.Interval).StartImmediately().Do(func() {
		if ctx.Err() != nil {
			return
		}
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule ingest job: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("Scheduler started", "interval", s.cfg.Interval, "country", s.cfg.Country)
	return nil
}

// Stop stops the scheduler and waits for a running cycle to return.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) runCycle(ctx context.Context) {
	res, err := s.cycler.Run(ctx, ingest.CycleOptions{Country: s.cfg.Country})
	if err != nil {
		s.logger.Error("Scheduled cycle failed", "error", err)
		return
	}
	if res.Skipped {
		s.logger.Debug("Scheduled cycle throttled", "cycle_id", res.ID)
	}
}
