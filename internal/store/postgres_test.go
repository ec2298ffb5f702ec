package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/fuelprice-data/internal/config"
	"github.com/albapepper/fuelprice-data/internal/db"
)

// newTestPostgres connects to FUELPRICE_TEST_DATABASE_URL, applying
// migrations first. The test is skipped when the variable is unset.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("FUELPRICE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FUELPRICE_TEST_DATABASE_URL not set")
	}
	require.NoError(t, db.MigrateUp(url, nil))

	cfg := &config.Config{DatabaseURL: url, DBPoolMinConns: 1, DBPoolMaxConns: 4, DBPoolMaxLife: time.Minute}
	pool, err := db.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewPostgres(pool.Pool)
}

func TestPostgresSaveAndList(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()

	source := "test-" + uuid.NewString()
	recorded := time.Now().UTC().Truncate(time.Microsecond)
	st := StationFields{Source: source, ProviderSiteID: s("site-1"), Name: s("A"), Latitude: f(51.5), Longitude: f(-0.1), CountryCode: "GB"}

	first, err := p.SaveStation(ctx, st, []PriceRow{
		{FuelType: "e10", Price: f(139.9), Currency: "GBP", RecordedAt: recorded},
	})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 1, first.PricesInserted)

	st.Name = s("B")
	second, err := p.SaveStation(ctx, st, []PriceRow{
		{FuelType: "e10", Price: f(138.9), Currency: "GBP", RecordedAt: recorded.Add(time.Hour)},
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.StationID, second.StationID)

	views, err := p.ListStations(ctx)
	require.NoError(t, err)
	var found *StationView
	for i := range views {
		if views[i].ID == first.StationID {
			found = &views[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "B", *found.Name)
	require.Len(t, found.Prices, 1)
	assert.InDelta(t, 138.9, *found.Prices[0].Price, 1e-9)

	last, err := p.LatestObservationAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.False(t, last.Before(recorded.Add(time.Hour)))
}
