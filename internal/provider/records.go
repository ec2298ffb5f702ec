package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultListKeys are probed, in order, when a feed body is an object rather
// than a bare list.
var DefaultListKeys = []string{"stations", "data", "features", "items", "sites"}

// ErrTrailingData is returned when a feed body holds more than one JSON value,
// typically a JSON prefix followed by an HTML block page.
var ErrTrailingData = errors.New("trailing data after JSON value")

// DecodeBody parses a feed body, keeping numbers as json.Number so prices
// and identifiers are not rounded through float64. The body must be exactly
// one JSON value.
func DecodeBody(body []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode feed: %w", ErrTrailingData)
	}
	return v, nil
}

// ExtractRecords locates the list of raw station objects in a decoded feed.
// A top-level list is used directly; otherwise the first key in keys holding
// a non-empty list wins. Non-object list entries are dropped.
func ExtractRecords(doc interface{}, keys []string) []map[string]interface{} {
	switch v := doc.(type) {
	case []interface{}:
		return objects(v)
	case map[string]interface{}:
		for _, key := range keys {
			list, ok := v[key].([]interface{})
			if ok && len(list) > 0 {
				return objects(list)
			}
		}
	}
	return nil
}

func objects(list []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]interface{}); ok {
			out = append(out, obj)
		}
	}
	return out
}
