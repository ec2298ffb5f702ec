package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		ok       bool
	}{
		{name: "pence suffix", input: "123.45p", expected: 123.45, ok: true},
		{name: "no digits", input: "abc", expected: 0.0, ok: true},
		{name: "integer", input: 42, expected: 42.0, ok: true},
		{name: "json number", input: json.Number("139.9"), expected: 139.9, ok: true},
		{name: "numeric string", input: " 141.7 ", expected: 141.7, ok: true},
		{name: "currency prefix", input: "£1.459", expected: 1.459, ok: true},
		{name: "repeated dots", input: "1.2.3", expected: 1.2, ok: true},
		{name: "empty string", input: "", expected: 0.0, ok: true},
		{name: "nan is not numeric", input: "NaN", expected: 0.0, ok: true},
		{name: "nil", input: nil, ok: false},
		{name: "object", input: map[string]interface{}{"x": 1}, ok: false},
		{name: "bool", input: true, ok: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := CleanPrice(test.input)
			assert.Equal(t, test.ok, ok)
			if test.ok {
				assert.InDelta(t, test.expected, got, 1e-9)
			}
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	assert.Nil(t, ParseCoordinate(nil))
	assert.Nil(t, ParseCoordinate("north"))
	assert.Nil(t, ParseCoordinate("0x1p-2"))

	lat := ParseCoordinate(json.Number("51.5074"))
	if assert.NotNil(t, lat) {
		assert.InDelta(t, 51.5074, *lat, 1e-9)
	}
	lon := ParseCoordinate("-0.1278")
	if assert.NotNil(t, lon) {
		assert.InDelta(t, -0.1278, *lon, 1e-9)
	}
}

func TestNormalizeFuelType(t *testing.T) {
	assert.Equal(t, "e10", NormalizeFuelType(" E10 "))
	assert.Equal(t, "super_unleaded", NormalizeFuelType("Super_Unleaded"))
	assert.Equal(t, "", NormalizeFuelType("   "))
}

func TestAssembleAddress(t *testing.T) {
	street, postcode := "Main St", "AB1 2CD"

	tests := []struct {
		name     string
		address  *string
		postcode *string
		expected *string
	}{
		{name: "both", address: &street, postcode: &postcode, expected: strPtr("Main St, AB1 2CD")},
		{name: "postcode only", postcode: &postcode, expected: strPtr("AB1 2CD")},
		{name: "address only", address: &street, expected: strPtr("Main St")},
		{name: "neither", expected: nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, AssembleAddress(test.address, test.postcode))
		})
	}
}

func TestStationDisplayName(t *testing.T) {
	addr := "1 High St"
	st := Station{Address: &addr}
	assert.Equal(t, &addr, st.DisplayName())

	name := "Tesco Extra"
	st.Name = &name
	assert.Equal(t, &name, st.DisplayName())
}

func TestStringify(t *testing.T) {
	id, ok := stringify(json.Number("10234"))
	assert.True(t, ok)
	assert.Equal(t, "10234", id)

	id, ok = stringify(12.0)
	assert.True(t, ok)
	assert.Equal(t, "12", id)

	_, ok = stringify("  ")
	assert.False(t, ok)

	_, ok = stringify([]interface{}{"a"})
	assert.False(t, ok)
}
