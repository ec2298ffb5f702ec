package uk

import "github.com/albapepper/fuelprice-data/internal/provider"

// postcodeKeys covers the spellings seen across retailer feeds.
var postcodeKeys = []string{"postcode", "post_code", "postal_code", "zip"}

// cmaMapping reads the open-data format retailers publish under the CMA
// road fuel pricing scheme:
//
//	{"site_id": "...", "brand": "...", "address": "...", "postcode": "...",
//	 "location": {"latitude": 51.5, "longitude": -0.1},
//	 "prices": {"E10": 139.9, "B7": 147.9}}
//
// The scheme has no station name, so the address stands in for it.
var cmaMapping = provider.Mapping{
	ID:        []string{"site_id", "id"},
	Address:   []string{"address", "addr"},
	Postcode:  postcodeKeys,
	Latitude:  []string{"location.latitude", "latitude", "lat"},
	Longitude: []string{"location.longitude", "longitude", "lng", "lon"},
	Prices:    provider.PriceSpec{Nested: true},
}

func cmaFeed(name, url string) provider.FeedSpec {
	return provider.FeedSpec{Name: name, URL: url, Mapping: cmaMapping}
}

var (
	asda      = cmaFeed("asda", "https://storelocator.asda.com/fuel_prices_data.json")
	morrisons = cmaFeed("morrisons", "https://www.morrisons.com/fuel-prices/fuel.json")
	bp        = cmaFeed("bp", "https://www.bp.com/en_gb/united-kingdom/home/fuelprices/fuel_prices_data.json")
	esso      = cmaFeed("esso", "https://fuelprices.esso.co.uk/latestdata.json")
	shell     = cmaFeed("shell", "https://www.shell.co.uk/fuel-prices-data.html")
	rontec    = cmaFeed("rontec", "https://www.rontec-servicestations.co.uk/fuel-prices/data/fuel_prices_data.json")
	ascona    = cmaFeed("ascona", "https://fuelprices.asconagroup.co.uk/newfuel.json")
)
