// Package store persists stations and their append-only price history.
// Postgres is the system of record; Memory backs dry runs and tests.
package store

import "time"

// StationFields are the mutable display fields written on every upsert.
// Source and ProviderSiteID form the station identity.
type StationFields struct {
	Source         string
	ProviderSiteID *string
	Name           *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	CountryCode    string
}

// PriceRow is one price observation appended for a station.
type PriceRow struct {
	FuelType   string
	Price      *float64
	Currency   string
	RecordedAt time.Time
}

// SaveResult reports what one SaveStation call wrote.
type SaveResult struct {
	StationID      int64
	Created        bool
	PricesInserted int
}

// LatestPrice is the most recent observation for one fuel type.
type LatestPrice struct {
	FuelType   string    `json:"fuel_type"`
	Price      *float64  `json:"price"`
	Currency   string    `json:"currency"`
	RecordedAt time.Time `json:"recorded_at"`
}

// StationView is a persisted station with its latest price per fuel type.
type StationView struct {
	ID             int64
	Source         string
	ProviderSiteID *string
	Name           *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	CountryCode    string
	UpdatedAt      time.Time
	Prices         []LatestPrice
}
