// Package locator serves the downstream read view: every station with its
// latest price per fuel type, optionally ranked by distance from a point.
package locator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/albapepper/fuelprice-data/internal/store"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// Source lists stations with their latest prices.
type Source interface {
	ListStations(ctx context.Context) ([]store.StationView, error)
}

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Entry is one station in the read view.
type Entry struct {
	ID        int64               `json:"id"`
	Name      *string             `json:"name"`
	Address   *string             `json:"address"`
	Latitude  *float64            `json:"latitude"`
	Longitude *float64            `json:"longitude"`
	Source    string              `json:"source"`
	Distance  *float64            `json:"distance"`
	Prices    []store.LatestPrice `json:"prices"`
}

// DistanceKm returns the haversine distance between a and b in kilometres,
// rounded to two decimal places.
func DistanceKm(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(EarthRadiusKm*c*100) / 100
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// List returns every station with its latest prices. When from is non-nil,
// each station with coordinates gets a distance and the result is sorted
// nearest first; stations without coordinates follow in id order.
func List(ctx context.Context, src Source, from *Point) ([]Entry, error) {
	views, err := src.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}

	entries := make([]Entry, 0, len(views))
	for _, v := range views {
		e := Entry{
			ID:        v.ID,
			Name:      v.Name,
			Address:   v.Address,
			Latitude:  v.Latitude,
			Longitude: v.Longitude,
			Source:    v.Source,
			Prices:    v.Prices,
		}
		if e.Prices == nil {
			e.Prices = []store.LatestPrice{}
		}
		if from != nil && v.Latitude != nil && v.Longitude != nil {
			d := DistanceKm(*from, Point{Lat: *v.Latitude, Lon: *v.Longitude})
			e.Distance = &d
		}
		entries = append(entries, e)
	}

	if from != nil {
		sort.SliceStable(entries, func(i, j int) bool {
			di, dj := entries[i].Distance, entries[j].Distance
			switch {
			case di == nil:
				return false
			case dj == nil:
				return true
			default:
				return *di < *dj
			}
		})
	}
	return entries, nil
}
