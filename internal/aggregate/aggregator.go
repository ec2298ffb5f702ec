// Package aggregate fans a fetch out across every configured provider
// adapter and collects the results into a single per-cycle report.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/fuelprice-data/internal/metrics"
	"github.com/albapepper/fuelprice-data/internal/provider"
)

// DefaultConcurrency bounds how many feeds are fetched at once.
const DefaultConcurrency = 4

// ProviderError records an adapter that returned an error or panicked.
// The cycle continues without that provider's stations.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Outcome summarises one adapter's contribution to a cycle.
type Outcome struct {
	Provider string
	Stations int
	Duration time.Duration
	Failed   bool
}

// Report is the result of one FetchAll call. Stations are ordered by
// adapter, then by position within each adapter's result.
type Report struct {
	Stations []provider.Station
	Outcomes []Outcome
	Errors   []*ProviderError
}

// Aggregator runs a fixed list of adapters.
type Aggregator struct {
	adapters    []provider.Adapter
	concurrency int
	logger      *slog.Logger
}

// New creates an Aggregator. concurrency <= 0 uses DefaultConcurrency.
func New(adapters []provider.Adapter, concurrency int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{adapters: adapters, concurrency: concurrency, logger: logger}
}

// Providers returns the adapter names in fetch order.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.adapters))
	for i, ad := range a.adapters {
		names[i] = ad.Name()
	}
	return names
}

type slot struct {
	stations []provider.Station
	err      *ProviderError
	duration time.Duration
}

// FetchAll fetches every adapter concurrently. A failing adapter never
// affects the others.
func (a *Aggregator) FetchAll(ctx context.Context) Report {
	slots := make([]slot, len(a.adapters))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, ad := range a.adapters {
		g.Go(func() error {
			slots[i] = a.fetchOne(ctx, ad)
			return nil
		})
	}
	_ = g.Wait()

	var report Report
	for i, s := range slots {
		name := a.adapters[i].Name()
		report.Outcomes = append(report.Outcomes, Outcome{
			Provider: name,
			Stations: len(s.stations),
			Duration: s.duration,
			Failed:   s.err != nil,
		})
		if s.err != nil {
			report.Errors = append(report.Errors, s.err)
			continue
		}
		report.Stations = append(report.Stations, s.stations...)
	}
	return report
}

func (a *Aggregator) fetchOne(ctx context.Context, ad provider.Adapter) (s slot) {
	name := ad.Name()
	start := time.Now()
	defer func() {
		s.duration = time.Since(start)
		if r := recover(); r != nil {
			a.logger.Error("Provider panicked", "provider", name, "panic", r, "stack", string(debug.Stack()))
			s = slot{err: &ProviderError{Provider: name, Err: fmt.Errorf("panic: %v", r)}, duration: time.Since(start)}
		}
		if s.err != nil {
			metrics.ProviderFetchesTotal.WithLabelValues(name, metrics.OutcomeFailed).Inc()
		}
	}()

	stations, err := ad.Fetch(ctx)
	if err != nil {
		a.logger.Error("Provider failed", "provider", name, "error", err)
		return slot{err: &ProviderError{Provider: name, Err: err}}
	}
	a.logger.Info("Provider fetched", "provider", name, "stations", len(stations))
	return slot{stations: stations}
}
