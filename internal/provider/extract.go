package provider

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonPriceChars = regexp.MustCompile(`[^0-9.]`)
	leadingNumber = regexp.MustCompile(`^[0-9]*\.?[0-9]*`)
	numericString = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// ToFloat converts a decoded JSON scalar to float64. Numeric strings are
// accepted; anything else returns ok=false.
func ToFloat(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		v = strings.TrimSpace(v)
		if !numericString.MatchString(v) {
			return 0, false
		}
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// CleanPrice turns a raw feed price into a number.
//
// Numeric values pass through unchanged. Other strings have every character
// except digits and '.' stripped and the leading numeric prefix parsed, so
// "123.45p" becomes 123.45 and "abc" becomes 0.0. Values that are neither a
// number nor a string (nil, objects, lists, booleans) return ok=false.
func CleanPrice(val interface{}) (float64, bool) {
	if f, ok := ToFloat(val); ok {
		return f, true
	}
	s, isString := val.(string)
	if !isString {
		return 0, false
	}
	digits := leadingNumber.FindString(nonPriceChars.ReplaceAllString(s, ""))
	if digits == "" || digits == "." {
		return 0, true
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, true
	}
	return f, true
}

// ParseCoordinate returns a pointer to the numeric value of val, or nil when
// the value is missing or not numeric.
func ParseCoordinate(val interface{}) *float64 {
	f, ok := ToFloat(val)
	if !ok {
		return nil
	}
	return &f
}

// NormalizeFuelType trims and lower-cases a fuel type key.
func NormalizeFuelType(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// AssembleAddress joins an address and postcode with ", ". Either part may be
// missing; both missing yields nil.
func AssembleAddress(address, postcode *string) *string {
	switch {
	case address != nil && postcode != nil:
		s := *address + ", " + *postcode
		return &s
	case postcode != nil:
		return postcode
	default:
		return address
	}
}

// stringify renders an identifier scalar as a string. Empty strings and
// non-scalars return ok=false.
func stringify(val interface{}) (string, bool) {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

// lookup walks a dot-separated path ("location.latitude") through nested
// objects. Present-but-null values report ok=false.
func lookup(raw map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = raw
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func strPtr(s string) *string { return &s }
