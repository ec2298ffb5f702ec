package uk

import "github.com/albapepper/fuelprice-data/internal/provider"

// Tesco sits behind bot protection that rejects requests without
// browser-like headers.
var tescoHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/javascript, */*; q=0.01",
	"Accept-Language": "en-GB,en;q=0.9",
	"Referer":         "https://www.tesco.com/",
	"Origin":          "https://www.tesco.com",
}

// tescoMapping accepts both the CMA scheme and Tesco's older store-locator
// shape, which carries a "fuels" list and flat price keys.
var tescoMapping = provider.Mapping{
	ID:           []string{"site_id", "id", "SiteId"},
	Name:         []string{"site_name", "name"},
	Address:      []string{"address"},
	AddressParts: []string{"street", "addr1", "addr_line1"},
	Postcode:     postcodeKeys,
	Latitude:     []string{"location.latitude", "latitude", "lat"},
	Longitude:    []string{"location.longitude", "longitude", "lng", "lon"},
	Prices: provider.PriceSpec{
		FlatKeys:  []string{"unleaded", "diesel", "e10", "e5", "super"},
		FlatMatch: provider.MatchExact,
		Nested:    true,
		Fuels:     true,
	},
}

var tesco = provider.FeedSpec{
	Name:     "tesco",
	URL:      "https://www.tesco.com/fuel_prices/fuel_prices_data.json",
	Headers:  tescoHeaders,
	ListKeys: append(append([]string{}, provider.DefaultListKeys...), "fuel_prices"),
	Mapping:  tescoMapping,
}
