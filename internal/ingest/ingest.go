// Package ingest persists canonical station records: one station upsert and
// a batch of appended price observations per record, plus the cycle runner
// that gates, fetches and ingests.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/albapepper/fuelprice-data/internal/metrics"
	"github.com/albapepper/fuelprice-data/internal/provider"
	"github.com/albapepper/fuelprice-data/internal/store"
)

// DefaultCountry is used when no country code is supplied.
const DefaultCountry = "GB"

// Store is the persistence the engine needs.
type Store interface {
	LatestObservationAt(ctx context.Context) (*time.Time, error)
	SaveStation(ctx context.Context, st store.StationFields, prices []store.PriceRow) (store.SaveResult, error)
}

// Options apply to every record of one ingestion pass.
type Options struct {
	Country    string
	RecordedAt time.Time // shared by every observation in the pass
}

// Result tracks counts and errors from an ingestion pass.
type Result struct {
	StationsCreated   int
	StationsUpdated   int
	PriceRowsInserted int
	Skipped           int
	Errors            []string
}

// StationsUpserted is the number of stations created or updated.
func (r *Result) StationsUpserted() int {
	return r.StationsCreated + r.StationsUpdated
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the pass.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"stations=%d created=%d price_rows=%d skipped=%d errors=%d",
		r.StationsUpserted(), r.StationsCreated,
		r.PriceRowsInserted, r.Skipped, len(r.Errors),
	)
}

// NormalizeCountry trims and upper-cases a country code, defaulting to GB.
func NormalizeCountry(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	if c == "" {
		return DefaultCountry
	}
	return c
}

// Ingest writes every record to st. Records without a source are skipped; a
// failure on one record is recorded and the pass continues.
func Ingest(ctx context.Context, st Store, records []provider.Station, opts Options, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	country := NormalizeCountry(opts.Country)
	recordedAt := opts.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	var result Result
	for i, rec := range records {
		if ctx.Err() != nil {
			result.AddErrorf("ingest aborted after %d of %d records: %v", i, len(records), ctx.Err())
			break
		}
		if strings.TrimSpace(rec.Source) == "" {
			result.Skipped++
			continue
		}

		fields, prices := toRows(rec, country, recordedAt)
		saved, err := st.SaveStation(ctx, fields, prices)
		if err != nil {
			logger.Error("Failed to save station", "source", rec.Source, "site_id", deref(rec.ProviderSiteID), "error", err)
			metrics.StationErrorsTotal.Inc()
			result.AddErrorf("%s/%s: %v", rec.Source, deref(rec.ProviderSiteID), err)
			continue
		}

		if saved.Created {
			result.StationsCreated++
		} else {
			result.StationsUpdated++
		}
		result.PriceRowsInserted += saved.PricesInserted
		metrics.StationsUpsertedTotal.Inc()
		metrics.PriceRowsInsertedTotal.Add(float64(saved.PricesInserted))
	}
	return result
}

// toRows maps a canonical record onto the station fields and price rows
// persisted for it.
func toRows(rec provider.Station, country string, recordedAt time.Time) (store.StationFields, []store.PriceRow) {
	fields := store.StationFields{
		Source:         rec.Source,
		ProviderSiteID: rec.ProviderSiteID,
		Name:           rec.DisplayName(),
		Address:        rec.DisplayAddress(),
		Latitude:       rec.Latitude,
		Longitude:      rec.Longitude,
		CountryCode:    country,
	}

	normalized := normalizePrices(rec.Prices)
	fuels := make([]string, 0, len(normalized))
	for fuel := range normalized {
		fuels = append(fuels, fuel)
	}
	sort.Strings(fuels)

	prices := make([]store.PriceRow, 0, len(fuels))
	for _, fuel := range fuels {
		price := normalized[fuel]
		prices = append(prices, store.PriceRow{
			FuelType:   fuel,
			Price:      &price,
			Currency:   provider.DefaultCurrency,
			RecordedAt: recordedAt,
		})
	}
	return fields, prices
}

// normalizePrices re-applies fuel key normalization for adapters that did
// not, dropping empty keys. Colliding keys resolve to the first in sorted
// order.
func normalizePrices(prices map[string]float64) map[string]float64 {
	keys := make([]string, 0, len(prices))
	for k := range prices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]float64, len(prices))
	for _, k := range keys {
		fuel := provider.NormalizeFuelType(k)
		if fuel == "" {
			continue
		}
		if _, exists := out[fuel]; !exists {
			out[fuel] = prices[k]
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return "<none>"
	}
	return *s
}
