package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/albapepper/fuelprice-data/internal/api/respond"
	"github.com/albapepper/fuelprice-data/internal/cache"
	"github.com/albapepper/fuelprice-data/internal/locator"
)

// stationsQuery holds the optional search point. Both coordinates or
// neither must be supplied.
type stationsQuery struct {
	Lat string `validate:"required_with=Lon,omitempty,latitude"`
	Lon string `validate:"required_with=Lat,omitempty,longitude"`
}

// point parses a validated query into a search point, or nil when absent.
func (q stationsQuery) point() *locator.Point {
	if q.Lat == "" {
		return nil
	}
	lat, _ := strconv.ParseFloat(q.Lat, 64)
	lon, _ := strconv.ParseFloat(q.Lon, 64)
	return &locator.Point{Lat: lat, Lon: lon}
}

// StationsResponse is the body of GET /api/v1/stations.
type StationsResponse struct {
	Data []locator.Entry `json:"data"`
	Meta StationsMeta    `json:"meta"`
}

// StationsMeta describes the listing.
type StationsMeta struct {
	Count int      `json:"count"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
}

// ListStations returns every station with its latest price per fuel type.
// @Summary List stations with latest prices
// @Description Returns every station with its latest price per fuel type. When lat and lon are supplied each station gets a haversine distance in km and results are sorted nearest first.
// @Tags stations
// @Produce json
// @Param lat query number false "Latitude of the search point"
// @Param lon query number false "Longitude of the search point"
// @Success 200 {object} StationsResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /stations [get]
func (h *Handler) ListStations(w http.ResponseWriter, r *http.Request) {
	q := stationsQuery{
		Lat: strings.TrimSpace(r.URL.Query().Get("lat")),
		Lon: strings.TrimSpace(r.URL.Query().Get("lon")),
	}
	if err := h.validate.Struct(q); err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeBadRequest,
			"lat and lon must both be valid coordinates or both be omitted", err.Error())
		return
	}
	point := q.point()

	key := "stations"
	if point != nil {
		key += ":" + strconv.FormatFloat(point.Lat, 'f', 5, 64) + ":" + strconv.FormatFloat(point.Lon, 'f', 5, 64)
	}

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.MatchesETag(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteCached(w, data, etag, cache.TTLStations, true)
		return
	}

	entries, err := locator.List(r.Context(), h.stations, point)
	if err != nil {
		h.logger.Error("Failed to list stations", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "Failed to list stations")
		return
	}

	resp := StationsResponse{Data: entries, Meta: StationsMeta{Count: len(entries)}}
	if point != nil {
		resp.Meta.Lat, resp.Meta.Lon = &point.Lat, &point.Lon
	}
	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("Failed to encode stations", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "Failed to encode stations")
		return
	}

	etag := h.cache.Set(key, data, cache.TTLStations)
	if cache.MatchesETag(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteCached(w, data, etag, cache.TTLStations, false)
}
