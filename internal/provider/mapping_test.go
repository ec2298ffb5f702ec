package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeObject(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	doc, err := DecodeBody([]byte(body))
	require.NoError(t, err)
	obj, ok := doc.(map[string]interface{})
	require.True(t, ok, "expected JSON object")
	return obj
}

var testMapping = Mapping{
	ID:           []string{"site_id", "id"},
	Name:         []string{"trading_name", "name"},
	Address:      []string{"address"},
	AddressParts: []string{"street", "addr1"},
	Postcode:     []string{"postcode", "post_code"},
	Latitude:     []string{"location.latitude", "lat"},
	Longitude:    []string{"location.longitude", "lng"},
	Prices: PriceSpec{
		FlatKeys:  []string{"unleaded", "diesel", "super_unleaded"},
		FlatMatch: MatchContains,
		Nested:    true,
		Fuels:     true,
	},
}

func TestMappingFirstCandidateWins(t *testing.T) {
	raw := decodeObject(t, `{
		"site_id": 10234,
		"id": "ignored",
		"name": "Fallback Name",
		"trading_name": "Sainsbury's Kings Cross",
		"address": "1 York Way",
		"post_code": "N1 9AB",
		"location": {"latitude": "51.5343", "longitude": -0.1226}
	}`)

	st := testMapping.Map("sainsburys", raw)

	assert.Equal(t, "sainsburys", st.Source)
	require.NotNil(t, st.ProviderSiteID)
	assert.Equal(t, "10234", *st.ProviderSiteID)
	assert.Equal(t, "Sainsbury's Kings Cross", *st.Name)
	assert.Equal(t, "1 York Way", *st.Address)
	assert.Equal(t, "N1 9AB", *st.Postcode)
	assert.InDelta(t, 51.5343, *st.Latitude, 1e-9)
	assert.InDelta(t, -0.1226, *st.Longitude, 1e-9)
	assert.Equal(t, "1 York Way, N1 9AB", *st.DisplayAddress())
}

func TestMappingInvalidCandidateFallsThrough(t *testing.T) {
	raw := decodeObject(t, `{"location": {"latitude": "n/a"}, "lat": 52.1, "lng": "east"}`)

	st := testMapping.Map("x", raw)

	require.NotNil(t, st.Latitude)
	assert.InDelta(t, 52.1, *st.Latitude, 1e-9)
	assert.Nil(t, st.Longitude)
	assert.Nil(t, st.ProviderSiteID)
	assert.Nil(t, st.Name)
	assert.Nil(t, st.Address)
	assert.Empty(t, st.Prices)
}

func TestMappingAddressShapes(t *testing.T) {
	list := testMapping.Map("x", decodeObject(t, `{"address": ["Unit 4", "Retail Park", ""]}`))
	assert.Equal(t, "Unit 4, Retail Park", *list.Address)

	parts := testMapping.Map("x", decodeObject(t, `{"street": "High St", "addr1": "Leeds"}`))
	assert.Equal(t, "High St, Leeds", *parts.Address)
}

func TestPriceShapesMerge(t *testing.T) {
	raw := decodeObject(t, `{
		"unleaded_price": "139.9",
		"super_unleaded_price": 155.9,
		"prices": {" Diesel ": "147.9p", "UNLEADED": 999, "e10": "abc"},
		"fuels": [
			{"type": "e5", "price": 151.2},
			{"fuel": "diesel", "pence": 1},
			{"type": "lpg", "price": "n/a"}
		]
	}`)

	prices := testMapping.Map("x", raw).Prices

	assert.Equal(t, map[string]float64{
		"unleaded":       139.9,
		"super_unleaded": 155.9,
		"diesel":         147.9,
		"e10":            0.0,
		"e5":             151.2,
	}, prices)
}

func TestPriceShapesNestedList(t *testing.T) {
	raw := decodeObject(t, `{"prices": [{"type": "E10", "price": 138.7}, {"price": 1}, "junk"]}`)

	prices := testMapping.Map("x", raw).Prices

	assert.Equal(t, map[string]float64{"e10": 138.7}, prices)
}

func TestPriceShapesEncodedString(t *testing.T) {
	raw := decodeObject(t, `{"prices": "{\"B7\": 149.9}"}`)

	prices := testMapping.Map("x", raw).Prices

	assert.Equal(t, map[string]float64{"b7": 149.9}, prices)
}

func TestFlatExactIgnoresSubstrings(t *testing.T) {
	m := Mapping{Prices: PriceSpec{FlatKeys: []string{"unleaded", "diesel"}, FlatMatch: MatchExact}}
	raw := decodeObject(t, `{"unleaded": 140.1, "diesel_price": 150, "diesel": "n/a"}`)

	assert.Equal(t, map[string]float64{"unleaded": 140.1}, m.Map("x", raw).Prices)
}

func TestPriceShapesNullNestedSkipped(t *testing.T) {
	raw := decodeObject(t, `{"prices": {"E10": null, "B7": 149.9}}`)

	prices := testMapping.Map("x", raw).Prices

	assert.Equal(t, map[string]float64{"b7": 149.9}, prices)
	assert.NotContains(t, prices, "e10")
}
