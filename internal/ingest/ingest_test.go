package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/fuelprice-data/internal/aggregate"
	"github.com/albapepper/fuelprice-data/internal/provider"
	"github.com/albapepper/fuelprice-data/internal/store"
)

func sp(s string) *string    { return &s }
func fp(f float64) *float64 { return &f }

func record(source, id string, prices map[string]float64) provider.Station {
	return provider.Station{
		Source:         source,
		ProviderSiteID: sp(id),
		Address:        sp("1 High St"),
		Postcode:       sp("AB1 2CD"),
		Latitude:       fp(51.5),
		Longitude:      fp(-0.12),
		Prices:         prices,
	}
}

// failingStore wraps Memory and fails SaveStation for one site id.
type failingStore struct {
	*store.Memory
	failSite string
}

func (f *failingStore) SaveStation(ctx context.Context, st store.StationFields, prices []store.PriceRow) (store.SaveResult, error) {
	if st.ProviderSiteID != nil && *st.ProviderSiteID == f.failSite {
		return store.SaveResult{}, errors.New("connection reset")
	}
	return f.Memory.SaveStation(ctx, st, prices)
}

func TestIngestUpsertsIdentityAndAppendsPrices(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	t0 := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	first := Ingest(ctx, mem, []provider.Station{
		record("tesco", "1", map[string]float64{"e10": 139.9, "b7": 147.9}),
	}, Options{Country: "gb", RecordedAt: t0}, nil)
	second := Ingest(ctx, mem, []provider.Station{
		record("tesco", "1", map[string]float64{"e10": 138.9, "b7": 146.9}),
	}, Options{Country: "gb", RecordedAt: t0.Add(2 * time.Hour)}, nil)

	assert.Equal(t, 1, first.StationsCreated)
	assert.Equal(t, 2, first.PriceRowsInserted)
	assert.Equal(t, 0, second.StationsCreated)
	assert.Equal(t, 1, second.StationsUpdated)
	assert.Equal(t, 2, second.PriceRowsInserted)

	stations, observations := mem.Len()
	assert.Equal(t, 1, stations)
	assert.Equal(t, 4, observations)

	views, err := mem.ListStations(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	v := views[0]
	assert.Equal(t, "GB", v.CountryCode)
	assert.Equal(t, "1 High St", *v.Name)
	assert.Equal(t, "1 High St, AB1 2CD", *v.Address)
	require.Len(t, v.Prices, 2)
	assert.Equal(t, 146.9, *v.Prices[0].Price)
	assert.Equal(t, "GBP", v.Prices[0].Currency)
}

func TestIngestSharedRecordedAt(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	ts := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

	Ingest(ctx, mem, []provider.Station{
		record("asda", "1", map[string]float64{"e10": 1}),
		record("bp", "2", map[string]float64{"e10": 2, "b7": 3}),
	}, Options{RecordedAt: ts}, nil)

	views, err := mem.ListStations(ctx)
	require.NoError(t, err)
	for _, v := range views {
		for _, p := range v.Prices {
			assert.Equal(t, ts, p.RecordedAt)
		}
	}
}

func TestIngestSkipsRecordsWithoutSource(t *testing.T) {
	mem := store.NewMemory()

	res := Ingest(context.Background(), mem, []provider.Station{
		{Source: "", Prices: map[string]float64{"e10": 1}},
		{Source: "   "},
		record("shell", "1", nil),
	}, Options{}, nil)

	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.StationsUpserted())
	assert.Equal(t, 0, res.PriceRowsInserted)
}

func TestIngestContinuesAfterStoreFailure(t *testing.T) {
	st := &failingStore{Memory: store.NewMemory(), failSite: "2"}

	res := Ingest(context.Background(), st, []provider.Station{
		record("esso", "1", map[string]float64{"e10": 1}),
		record("esso", "2", map[string]float64{"e10": 2}),
		record("esso", "3", map[string]float64{"e10": 3}),
	}, Options{}, nil)

	assert.Equal(t, 2, res.StationsUpserted())
	assert.Equal(t, 2, res.PriceRowsInserted)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "esso/2")
	assert.Contains(t, res.Summary(), "errors=1")
}

func TestIngestNormalizesFuelKeys(t *testing.T) {
	mem := store.NewMemory()

	res := Ingest(context.Background(), mem, []provider.Station{
		record("rontec", "1", map[string]float64{" E10 ": 139.9, "": 1, "B7": 149.9}),
	}, Options{}, nil)

	assert.Equal(t, 2, res.PriceRowsInserted)
	views, _ := mem.ListStations(context.Background())
	require.Len(t, views[0].Prices, 2)
	assert.Equal(t, "b7", views[0].Prices[0].FuelType)
	assert.Equal(t, "e10", views[0].Prices[1].FuelType)
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "GB", NormalizeCountry(""))
	assert.Equal(t, "IE", NormalizeCountry(" ie "))
}

type stubFetcher struct {
	report aggregate.Report
	calls  int
}

func (s *stubFetcher) FetchAll(ctx context.Context) aggregate.Report {
	s.calls++
	return s.report
}

func TestRunnerThrottles(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	_, err := mem.SaveStation(ctx, store.StationFields{Source: "bp", ProviderSiteID: sp("1")}, []store.PriceRow{
		{FuelType: "e10", Price: fp(1), Currency: "GBP", RecordedAt: now.Add(-30 * time.Minute)},
	})
	require.NoError(t, err)

	fetcher := &stubFetcher{report: aggregate.Report{Stations: []provider.Station{record("bp", "2", map[string]float64{"e10": 2})}}}
	runner := NewRunner(mem, fetcher, nil)
	runner.now = func() time.Time { return now }

	res, err := runner.Run(ctx, CycleOptions{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, fetcher.calls)

	res, err = runner.Run(ctx, CycleOptions{Force: true, Country: "gb"})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 1, res.Ingest.PriceRowsInserted)
	assert.Equal(t, now, res.RecordedAt)
	assert.NotEmpty(t, res.ID)
}

func TestRunnerReportsProviderErrors(t *testing.T) {
	fetcher := &stubFetcher{report: aggregate.Report{
		Stations: []provider.Station{record("asda", "1", nil)},
		Errors:   []*aggregate.ProviderError{{Provider: "tesco", Err: errors.New("panic: boom")}},
	}}
	runner := NewRunner(store.NewMemory(), fetcher, nil)

	res, err := runner.Run(context.Background(), CycleOptions{})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	require.Len(t, res.ProviderErrors, 1)
	assert.Equal(t, "tesco", res.ProviderErrors[0].Provider)
	assert.Equal(t, 1, res.Ingest.StationsUpserted())
}

// slowFetcher advances the runner clock to simulate feeds that take a while.
type slowFetcher struct {
	clock *time.Time
	delay time.Duration
}

func (s *slowFetcher) FetchAll(ctx context.Context) aggregate.Report {
	*s.clock = s.clock.Add(s.delay)
	return aggregate.Report{Stations: []provider.Station{record("shell", "1", map[string]float64{"e10": 141.9})}}
}

func TestRunnerHourlyTicksWithSlowFetch(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	clock := t0

	runner := NewRunner(store.NewMemory(), &slowFetcher{clock: &clock, delay: 5 * time.Second}, nil)
	runner.now = func() time.Time { return clock }

	for i, tick := range []time.Time{t0, t0.Add(time.Hour), t0.Add(2 * time.Hour)} {
		clock = tick
		res, err := runner.Run(ctx, CycleOptions{})
		require.NoError(t, err)
		assert.False(t, res.Skipped, "tick %d", i)
		assert.Equal(t, tick, res.RecordedAt)
		assert.Equal(t, 5*time.Second, res.Duration)
	}

	clock = t0.Add(2*time.Hour + 59*time.Minute)
	res, err := runner.Run(ctx, CycleOptions{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}
