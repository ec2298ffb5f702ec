package uk

import "github.com/albapepper/fuelprice-data/internal/provider"

// Sainsbury's feed has drifted between flat per-fuel columns
// ("unleaded_price", "diesel") and a nested prices object, so both are read.
var sainsburysMapping = provider.Mapping{
	ID:           []string{"id", "site_id", "SiteId"},
	Name:         []string{"trading_name", "site_name", "name"},
	Address:      []string{"address"},
	AddressParts: []string{"street", "addr_line1", "addr1"},
	Postcode:     postcodeKeys,
	Latitude:     []string{"location.latitude", "lat"},
	Longitude:    []string{"location.longitude", "lng", "lon"},
	Prices: provider.PriceSpec{
		FlatKeys:  []string{"unleaded", "petrol", "diesel", "super_unleaded", "e10", "e5"},
		FlatMatch: provider.MatchContains,
		Nested:    true,
	},
}

var sainsburys = provider.FeedSpec{
	Name:    "sainsburys",
	URL:     "https://api.sainsburys.co.uk/v1/exports/latest/fuel_prices_data.json",
	Mapping: sainsburysMapping,
}
