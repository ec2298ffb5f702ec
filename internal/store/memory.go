package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is a concurrency-safe in-memory store with the same identity and
// append semantics as Postgres.
type Memory struct {
	mu sync.RWMutex

	nextID   int64
	ids      map[identity]int64
	stations map[int64]*StationView
	history  []observation
}

type identity struct {
	source string
	siteID string
	hasID  bool
}

type observation struct {
	stationID int64
	seq       int
	row       PriceRow
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		ids:      make(map[identity]int64),
		stations: make(map[int64]*StationView),
	}
}

// LatestObservationAt returns the newest recorded time across all
// observations, or nil when there are none.
func (m *Memory) LatestObservationAt(ctx context.Context) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *time.Time
	for i := range m.history {
		t := m.history[i].row.RecordedAt
		if last == nil || t.After(*last) {
			last = &t
		}
	}
	return last, nil
}

// SaveStation upserts the station by (source, provider site id) and appends
// its price rows.
func (m *Memory) SaveStation(ctx context.Context, st StationFields, prices []PriceRow) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := identity{source: st.Source}
	if st.ProviderSiteID != nil {
		key.siteID, key.hasID = *st.ProviderSiteID, true
	}

	res := SaveResult{}
	id, exists := m.ids[key]
	if !exists {
		m.nextID++
		id = m.nextID
		m.ids[key] = id
		m.stations[id] = &StationView{ID: id, Source: st.Source, ProviderSiteID: st.ProviderSiteID}
		res.Created = true
	}
	v := m.stations[id]
	v.Name = st.Name
	v.Address = st.Address
	v.Latitude = st.Latitude
	v.Longitude = st.Longitude
	v.CountryCode = st.CountryCode
	v.UpdatedAt = time.Now().UTC()

	for _, row := range prices {
		m.history = append(m.history, observation{stationID: id, seq: len(m.history), row: row})
	}
	res.StationID = id
	res.PricesInserted = len(prices)
	return res, nil
}

// ListStations returns every station with its latest observation per fuel
// type, ordered by station id.
func (m *Memory) ListStations(ctx context.Context) ([]StationView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[int64]map[string]observation)
	for _, obs := range m.history {
		byFuel, ok := latest[obs.stationID]
		if !ok {
			byFuel = make(map[string]observation)
			latest[obs.stationID] = byFuel
		}
		cur, seen := byFuel[obs.row.FuelType]
		if !seen || obs.row.RecordedAt.After(cur.row.RecordedAt) ||
			(obs.row.RecordedAt.Equal(cur.row.RecordedAt) && obs.seq > cur.seq) {
			byFuel[obs.row.FuelType] = obs
		}
	}

	out := make([]StationView, 0, len(m.stations))
	for id, st := range m.stations {
		v := *st
		v.Prices = nil
		for _, obs := range latest[id] {
			v.Prices = append(v.Prices, LatestPrice{
				FuelType:   obs.row.FuelType,
				Price:      obs.row.Price,
				Currency:   obs.row.Currency,
				RecordedAt: obs.row.RecordedAt,
			})
		}
		sort.Slice(v.Prices, func(i, j int) bool { return v.Prices[i].FuelType < v.Prices[j].FuelType })
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len returns the number of stations and price observations held.
func (m *Memory) Len() (stations, observations int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stations), len(m.history)
}
