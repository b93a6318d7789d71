package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Latitude bands covered by each family when subsetting.
const (
	polarBandMinAbsLat     = 40.0
	temperateBandMaxAbsLat = 50.0
)

// BoundingWindow is a projected-space rectangle built from an upper-left and a
// lower-right geographic corner.
type BoundingWindow struct {
	Grid GridDefinition `json:"-"`
	ULX  float64        `json:"ul_x"`
	ULY  float64        `json:"ul_y"`
	LRX  float64        `json:"lr_x"`
	LRY  float64        `json:"lr_y"`
}

// XRange returns the window's x extent in ascending order.
func (w BoundingWindow) XRange() (minX, maxX float64) {
	return math.Min(w.ULX, w.LRX), math.Max(w.ULX, w.LRX)
}

// YRange returns the window's y extent in ascending order.
func (w BoundingWindow) YRange() (minY, maxY float64) {
	return math.Min(w.ULY, w.LRY), math.Max(w.ULY, w.LRY)
}

// Contains reports whether a map point lies inside the window, edges included.
func (w BoundingWindow) Contains(x, y float64) bool {
	minX, maxX := w.XRange()
	minY, maxY := w.YRange()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

func inFamilyBand(f Family, lat float64) bool {
	switch f {
	case FamilyNorth:
		return lat > polarBandMinAbsLat && lat <= 90
	case FamilySouth:
		return lat < -polarBandMinAbsLat && lat >= -90
	case FamilyTemperate:
		return lat > -temperateBandMaxAbsLat && lat < temperateBandMaxAbsLat
	}
	return false
}

// SelectFamily picks the single projection family whose band contains both
// corners. Corners that fit no family, or more than one, are rejected: there
// is no defined precedence between overlapping bands.
func SelectFamily(ul, lr GeoPoint) (Family, error) {
	var candidates []Family
	for _, f := range []Family{FamilyNorth, FamilySouth, FamilyTemperate} {
		if inFamilyBand(f, ul.Lat) && inFamilyBand(f, lr.Lat) {
			candidates = append(candidates, f)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", fmt.Errorf("%w: latitudes %.4f and %.4f are not covered by a single grid family",
			ErrRegionUnsupported, ul.Lat, lr.Lat)
	default:
		return "", fmt.Errorf("%w: latitudes %.4f and %.4f fall in overlapping bands %v; split or narrow the request",
			ErrRegionUnsupported, ul.Lat, lr.Lat, candidates)
	}
}

// ResolveWindow converts two geographic corners into a map-space window on
// the transform's grid. Each corner goes geographic -> grid -> map.
func ResolveWindow(t *Transform, ul, lr GeoPoint) (BoundingWindow, error) {
	g := t.Grid()
	if !inFamilyBand(g.Family, ul.Lat) || !inFamilyBand(g.Family, lr.Lat) {
		return BoundingWindow{}, fmt.Errorf("%w: corners (%.4f, %.4f) and (%.4f, %.4f) are outside the %s band",
			ErrRegionUnsupported, ul.Lat, ul.Lon, lr.Lat, lr.Lon, g.Name())
	}

	ulRow, ulCol := t.GeographicToGrid(ul.Lat, ul.Lon)
	lrRow, lrCol := t.GeographicToGrid(lr.Lat, lr.Lon)
	ulX, ulY := t.GridToMap(ulRow, ulCol)
	lrX, lrY := t.GridToMap(lrRow, lrCol)

	return BoundingWindow{Grid: g, ULX: ulX, ULY: ulY, LRX: lrX, LRY: lrY}, nil
}

// ResolveWindows resolves one window per grid, e.g. one per channel when
// channels differ in native resolution.
func ResolveWindows(ul, lr GeoPoint, grids ...GridDefinition) ([]BoundingWindow, error) {
	windows := make([]BoundingWindow, 0, len(grids))
	for _, g := range grids {
		t, err := NewTransformFor(g)
		if err != nil {
			return nil, err
		}
		w, err := ResolveWindow(t, ul, lr)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// ParseCorners reads "ul_lat,ul_lon,lr_lat,lr_lon".
func ParseCorners(s string) (ul, lr GeoPoint, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return ul, lr, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		if vals[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return ul, lr, fmt.Errorf("invalid corner value %q: %w", p, err)
		}
	}
	return GeoPoint{Lat: vals[0], Lon: vals[1]}, GeoPoint{Lat: vals[2], Lon: vals[3]}, nil
}
