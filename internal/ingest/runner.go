package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/fuelprice-data/internal/aggregate"
	"github.com/albapepper/fuelprice-data/internal/metrics"
)

// Fetcher gathers canonical stations from every configured provider.
type Fetcher interface {
	FetchAll(ctx context.Context) aggregate.Report
}

// CycleOptions control one ingestion cycle.
type CycleOptions struct {
	Force   bool
	Country string
}

// CycleResult describes one cycle.
type CycleResult struct {
	ID             string
	Skipped        bool
	LastObservedAt *time.Time
	RecordedAt     time.Time
	Fetched        int
	ProviderErrors []*aggregate.ProviderError
	Ingest         Result
	Duration       time.Duration
}

// Runner executes ingestion cycles: throttle gate, fetch, ingest.
type Runner struct {
	store   Store
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewRunner creates a cycle runner.
func NewRunner(st Store, fetcher Fetcher, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:   st,
		fetcher: fetcher,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one cycle. A throttled cycle returns Skipped=true and a nil
// error. Errors are returned only when the throttle gate cannot be read;
// provider and per-station failures are reported in the result.
func (r *Runner) Run(ctx context.Context, opts CycleOptions) (CycleResult, error) {
	start := r.now()
	res := CycleResult{ID: uuid.NewString()}
	logger := r.logger.With("cycle_id", res.ID)

	last, err := r.store.LatestObservationAt(ctx)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("failed").Inc()
		return res, fmt.Errorf("read last observation: %w", err)
	}
	res.LastObservedAt = last

	if !ShouldRun(start, last, opts.Force) {
		res.Skipped = true
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		logger.Info("Skipping fetch, last observation is recent",
			"last_observed_at", last.Format(time.RFC3339),
			"min_interval", MinInterval)
		return res, nil
	}

	report := r.fetcher.FetchAll(ctx)
	res.Fetched = len(report.Stations)
	res.ProviderErrors = report.Errors
	for _, pe := range report.Errors {
		logger.Error("Provider error", "provider", pe.Provider, "error", pe.Err)
	}

	// One timestamp for the whole cycle, taken when the cycle started so the
	// next gate check measures tick to tick and not fetch end to tick.
	res.RecordedAt = start
	res.Ingest = Ingest(ctx, r.store, report.Stations, Options{
		Country:    opts.Country,
		RecordedAt: res.RecordedAt,
	}, logger)
	res.Duration = r.now().Sub(start)

	metrics.CyclesTotal.WithLabelValues("ran").Inc()
	metrics.LastCycleTimestamp.Set(float64(res.RecordedAt.Unix()))
	logger.Info("Cycle finished",
		"fetched", res.Fetched,
		"provider_errors", len(res.ProviderErrors),
		"duration", res.Duration.Round(time.Millisecond),
		"summary", res.Ingest.Summary())
	return res, nil
}
