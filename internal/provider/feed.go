package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/albapepper/fuelprice-data/internal/metrics"
)

// FeedSpec declares one retailer feed: where it lives, which request headers
// it needs, where the station list sits and how each station maps.
type FeedSpec struct {
	Name     string
	URL      string
	Headers  map[string]string
	ListKeys []string // nil uses DefaultListKeys
	Mapping  Mapping
}

// BreakerConfig controls the per-feed circuit breaker.
type BreakerConfig struct {
	// Failures is the number of consecutive failed fetches that opens the
	// breaker. Zero disables the breaker.
	Failures uint32
	// Cooldown is how long an open breaker short-circuits fetches.
	Cooldown time.Duration
}

// DefaultBreakerConfig trips after three consecutive failures and retries
// after six hours.
var DefaultBreakerConfig = BreakerConfig{Failures: 3, Cooldown: 6 * time.Hour}

// Feed is the Adapter for a JSON retailer feed described by a FeedSpec.
type Feed struct {
	spec    FeedSpec
	client  *Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewFeed creates an adapter for spec using the shared client.
func NewFeed(spec FeedSpec, client *Client, bc BreakerConfig, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	if spec.ListKeys == nil {
		spec.ListKeys = DefaultListKeys
	}
	f := &Feed{spec: spec, client: client, logger: logger.With("provider", spec.Name)}
	if bc.Failures > 0 {
		f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        spec.Name,
			MaxRequests: 1,
			Timeout:     bc.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= bc.Failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				f.logger.Warn("Feed circuit breaker state changed", "from", from.String(), "to", to.String())
			},
		})
	}
	return f
}

// Name returns the retailer name used as the station source.
func (f *Feed) Name() string { return f.spec.Name }

// URL returns the feed endpoint.
func (f *Feed) URL() string { return f.spec.URL }

// Fetch retrieves and maps the feed. Every transient failure is logged and
// returned as an empty result.
func (f *Feed) Fetch(ctx context.Context) ([]Station, error) {
	start := time.Now()
	defer func() {
		metrics.ProviderFetchDuration.WithLabelValues(f.spec.Name).Observe(time.Since(start).Seconds())
	}()

	body, err := f.get(ctx)
	if err != nil {
		f.absorb(err)
		return nil, nil
	}

	doc, err := DecodeBody(body)
	if err != nil {
		f.logger.Warn("Feed returned malformed JSON", "error", err, "body", truncate(body, 200))
		f.count(metrics.OutcomeBadJSON)
		return nil, nil
	}

	raw := ExtractRecords(doc, f.spec.ListKeys)
	if len(raw) == 0 {
		f.logger.Info("Feed contained no station list")
		f.count(metrics.OutcomeEmpty)
		return nil, nil
	}

	stations := make([]Station, 0, len(raw))
	for _, r := range raw {
		stations = append(stations, f.spec.Mapping.Map(f.spec.Name, r))
	}
	f.count(metrics.OutcomeOK)
	metrics.ProviderStationsTotal.WithLabelValues(f.spec.Name).Add(float64(len(stations)))
	f.logger.Debug("Feed fetched", "stations", len(stations), "duration", time.Since(start).Round(time.Millisecond))
	return stations, nil
}

func (f *Feed) get(ctx context.Context) ([]byte, error) {
	if f.breaker == nil {
		return f.client.Get(ctx, f.spec.URL, f.spec.Headers)
	}
	result, err := f.breaker.Execute(func() (interface{}, error) {
		return f.client.Get(ctx, f.spec.URL, f.spec.Headers)
	})
	if err != nil {
		return nil, err
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func (f *Feed) absorb(err error) {
	var statusErr *StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		f.logger.Info("Feed skipped, circuit open")
		f.count(metrics.OutcomeCircuitOpen)
	case errors.Is(err, ErrBlocked) && errors.As(err, &statusErr):
		f.logger.Warn("Feed blocked", "status", statusErr.Code, "body", statusErr.Body)
		f.count(metrics.OutcomeBlocked)
	case errors.As(err, &statusErr):
		f.logger.Warn("Feed returned non-2xx", "status", statusErr.Code, "body", statusErr.Body)
		f.count(metrics.OutcomeHTTPError)
	default:
		f.logger.Warn("Feed fetch failed", "error", err)
		f.count(metrics.OutcomeFailed)
	}
}

func (f *Feed) count(outcome string) {
	metrics.ProviderFetchesTotal.WithLabelValues(f.spec.Name, outcome).Inc()
}
