// Package metrics provides Prometheus metrics for the fetch and ingest
// pipeline and the read API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider fetch outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeBlocked     = "blocked"
	OutcomeHTTPError   = "http_error"
	OutcomeBadJSON     = "bad_json"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeFailed      = "failed"
)

var (
	// ProviderFetchesTotal tracks feed fetches by provider and outcome
	ProviderFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuelprice",
			Subsystem: "provider",
			Name:      "fetches_total",
			Help:      "Total number of retailer feed fetches by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderFetchDuration tracks feed fetch duration in seconds
	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fuelprice",
			Subsystem: "provider",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of retailer feed fetches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"provider"},
	)

	// ProviderStationsTotal tracks canonical stations produced per provider
	ProviderStationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuelprice",
			Subsystem: "provider",
			Name:      "stations_total",
			Help:      "Total number of stations mapped from retailer feeds",
		},
		[]string{"provider"},
	)

	// CyclesTotal tracks ingestion cycles by status (ran, skipped, failed)
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuelprice",
			Subsystem: "ingest",
			Name:      "cycles_total",
			Help:      "Total number of ingestion cycles by status",
		},
		[]string{"status"},
	)

	// StationsUpsertedTotal tracks station upserts
	StationsUpsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fuelprice",
			Subsystem: "ingest",
			Name:      "stations_upserted_total",
			Help:      "Total number of stations upserted",
		},
	)

	// PriceRowsInsertedTotal tracks appended price observations
	PriceRowsInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fuelprice",
			Subsystem: "ingest",
			Name:      "price_rows_inserted_total",
			Help:      "Total number of price observations appended",
		},
	)

	// StationErrorsTotal tracks station records that failed to persist
	StationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fuelprice",
			Subsystem: "ingest",
			Name:      "station_errors_total",
			Help:      "Total number of station records that failed to persist",
		},
	)

	// LastCycleTimestamp records when the last ingestion cycle completed
	LastCycleTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fuelprice",
			Subsystem: "ingest",
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix timestamp of the last completed ingestion cycle",
		},
	)

	// HTTPRequestsTotal tracks API requests by route pattern and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuelprice",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"route", "status_code"},
	)

	// HTTPRequestDuration tracks API request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fuelprice",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route"},
	)
)
