// Package uk registers the UK retailer fuel-price feeds.
package uk

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/albapepper/fuelprice-data/internal/provider"
)

// ErrUnknownProvider is returned when a provider name is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Feeds returns every registered retailer feed in fetch order.
func Feeds() []provider.FeedSpec {
	return []provider.FeedSpec{
		tesco,
		asda,
		sainsburys,
		morrisons,
		bp,
		esso,
		shell,
		rontec,
		ascona,
	}
}

// Names returns the registered provider names in fetch order.
func Names() []string {
	feeds := Feeds()
	names := make([]string, len(feeds))
	for i, f := range feeds {
		names[i] = f.Name
	}
	return names
}

// Lookup resolves a provider by name (case-insensitive).
func Lookup(name string) (provider.FeedSpec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, f := range Feeds() {
		if f.Name == key {
			return f, nil
		}
	}
	return provider.FeedSpec{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownProvider, name, strings.Join(Names(), ", "))
}

// Select resolves the named providers, or every provider when names is empty.
func Select(names []string) ([]provider.FeedSpec, error) {
	if len(names) == 0 {
		return Feeds(), nil
	}
	specs := make([]provider.FeedSpec, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		spec, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		if seen[spec.Name] {
			continue
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

// Adapters builds one feed adapter per spec sharing a single HTTP client.
func Adapters(specs []provider.FeedSpec, client *provider.Client, bc provider.BreakerConfig, logger *slog.Logger) []provider.Adapter {
	adapters := make([]provider.Adapter, len(specs))
	for i, spec := range specs {
		adapters[i] = provider.NewFeed(spec, client, bc, logger)
	}
	return adapters
}
