// Package provider defines the canonical station record that every retailer
// feed normalizes into, plus the table-driven feed adapter that fetches and
// maps those feeds.
//
// Adding a retailer means declaring a FeedSpec with its URL and Mapping.
// The ingestion engine and Postgres schema never change.
package provider

import "context"

// DefaultCurrency is attached to every price observation.
const DefaultCurrency = "GBP"

// Station is the canonical shape every adapter emits, one per station in a
// retailer feed. Missing identity and geo fields stay nil, never zero.
type Station struct {
	Source         string             `json:"source"`
	ProviderSiteID *string            `json:"provider_site_id"`
	Name           *string            `json:"name"`
	Address        *string            `json:"address"`
	Postcode       *string            `json:"postcode,omitempty"`
	Latitude       *float64           `json:"latitude"`
	Longitude      *float64           `json:"longitude"`
	Prices         map[string]float64 `json:"prices"`
}

// DisplayName is the name stored for the station: the provider's name when
// present, otherwise the raw address.
func (s Station) DisplayName() *string {
	if s.Name != nil {
		return s.Name
	}
	return s.Address
}

// DisplayAddress joins the address and postcode for storage.
func (s Station) DisplayAddress() *string {
	return AssembleAddress(s.Address, s.Postcode)
}

// Adapter fetches one retailer feed and maps it into canonical stations.
//
// Transient failures (network, timeout, non-2xx, malformed JSON) are absorbed
// by the adapter and reported as an empty result with a nil error. A non-nil
// error signals a defect and is surfaced by the aggregator.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]Station, error)
}
