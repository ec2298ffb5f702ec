package provider

import (
	"encoding/json"
	"sort"
	"strings"
)

// MatchMode controls how flat price keys are matched against record keys.
type MatchMode int

const (
	// MatchExact requires the record key to equal the fuel name.
	MatchExact MatchMode = iota
	// MatchContains accepts any record key containing the fuel name,
	// preferring an exact match.
	MatchContains
)

// PriceSpec lists the price shapes a retailer feed may use. When several
// shapes are enabled they are merged in the order flat, nested, fuels; the
// first shape to supply a fuel type keeps it.
type PriceSpec struct {
	FlatKeys  []string
	FlatMatch MatchMode
	Nested    bool // "prices": {"e10": 139.9} or [{"type": "e10", "price": 139.9}]
	Fuels     bool // "fuels": [{"type"|"fuel": "e10", "price"|"pence": 139.9}]
}

// Mapping is the per-retailer heuristic table. Each field lists candidate
// paths in priority order; the first present and valid value wins.
type Mapping struct {
	ID           []string
	Name         []string
	Address      []string
	AddressParts []string // joined with ", " when no Address candidate matches
	Postcode     []string
	Latitude     []string
	Longitude    []string
	Prices       PriceSpec
}

// Map converts one raw feed object into a canonical station.
func (m Mapping) Map(source string, raw map[string]interface{}) Station {
	st := Station{
		Source:    source,
		Name:      firstString(raw, m.Name),
		Address:   m.address(raw),
		Postcode:  firstString(raw, m.Postcode),
		Latitude:  firstFloat(raw, m.Latitude),
		Longitude: firstFloat(raw, m.Longitude),
		Prices:    m.Prices.parse(raw),
	}
	for _, path := range m.ID {
		if v, ok := lookup(raw, path); ok {
			if id, ok := stringify(v); ok {
				st.ProviderSiteID = &id
				break
			}
		}
	}
	return st
}

func (m Mapping) address(raw map[string]interface{}) *string {
	for _, path := range m.Address {
		v, ok := lookup(raw, path)
		if !ok {
			continue
		}
		switch a := v.(type) {
		case string:
			if s := strings.TrimSpace(a); s != "" {
				return &s
			}
		case []interface{}:
			if s := joinStrings(a); s != "" {
				return &s
			}
		}
	}
	var parts []string
	for _, path := range m.AddressParts {
		if s := firstString(raw, []string{path}); s != nil {
			parts = append(parts, *s)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return strPtr(strings.Join(parts, ", "))
}

func (p PriceSpec) parse(raw map[string]interface{}) map[string]float64 {
	prices := make(map[string]float64)
	set := func(fuel string, price float64) {
		fuel = NormalizeFuelType(fuel)
		if fuel == "" {
			return
		}
		if _, exists := prices[fuel]; !exists {
			prices[fuel] = price
		}
	}

	if len(p.FlatKeys) > 0 {
		p.parseFlat(raw, set)
	}
	if p.Nested {
		parseNested(raw["prices"], set)
	}
	if p.Fuels {
		parseFuels(raw["fuels"], set)
	}
	return prices
}

func (p PriceSpec) parseFlat(raw map[string]interface{}, set func(string, float64)) {
	keys := sortedKeys(raw)
	for _, fuel := range p.FlatKeys {
		if v, ok := ToFloat(raw[fuel]); ok {
			set(fuel, v)
			continue
		}
		if p.FlatMatch != MatchContains {
			continue
		}
		// "unleaded_price" must beat "super_unleaded_price" for unleaded.
		if v, ok := matchKey(raw, keys, fuel, strings.HasPrefix); ok {
			set(fuel, v)
		} else if v, ok := matchKey(raw, keys, fuel, strings.Contains); ok {
			set(fuel, v)
		}
	}
}

func matchKey(raw map[string]interface{}, keys []string, fuel string, match func(s, substr string) bool) (float64, bool) {
	for _, k := range keys {
		if !match(strings.ToLower(k), fuel) {
			continue
		}
		if v, ok := ToFloat(raw[k]); ok {
			return v, true
		}
	}
	return 0, false
}

func parseNested(val interface{}, set func(string, float64)) {
	// Some feeds ship the prices object as an encoded JSON string.
	if s, ok := val.(string); ok {
		decoded, err := DecodeBody([]byte(s))
		if err != nil {
			return
		}
		val = decoded
	}

	switch prices := val.(type) {
	case map[string]interface{}:
		for _, k := range sortedKeys(prices) {
			if v, ok := CleanPrice(prices[k]); ok {
				set(k, v)
			}
		}
	case []interface{}:
		for _, item := range prices {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			fuel, ok := obj["type"].(string)
			if !ok {
				continue
			}
			if v, ok := CleanPrice(obj["price"]); ok {
				set(fuel, v)
			}
		}
	}
}

func parseFuels(val interface{}, set func(string, float64)) {
	list, ok := val.([]interface{})
	if !ok {
		return
	}
	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		fuel := firstString(obj, []string{"type", "fuel"})
		if fuel == nil {
			continue
		}
		if v := firstFloat(obj, []string{"price", "pence"}); v != nil {
			set(*fuel, *v)
		}
	}
}

func firstString(raw map[string]interface{}, paths []string) *string {
	for _, path := range paths {
		v, ok := lookup(raw, path)
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if t := strings.TrimSpace(s); t != "" {
				return &t
			}
		case json.Number:
			return strPtr(s.String())
		}
	}
	return nil
}

func firstFloat(raw map[string]interface{}, paths []string) *float64 {
	for _, path := range paths {
		if v, ok := lookup(raw, path); ok {
			if f := ParseCoordinate(v); f != nil {
				return f
			}
		}
	}
	return nil
}

func joinStrings(list []interface{}) string {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
