package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFamily(t *testing.T) {
	tests := []struct {
		name    string
		ul, lr  GeoPoint
		want    Family
		wantErr bool
	}{
		{"arctic", GeoPoint{Lat: 72, Lon: -150}, GeoPoint{Lat: 65, Lon: -140}, FamilyNorth, false},
		{"pole", GeoPoint{Lat: 90, Lon: 0}, GeoPoint{Lat: 80, Lon: 10}, FamilyNorth, false},
		{"antarctic", GeoPoint{Lat: -60, Lon: 0}, GeoPoint{Lat: -75, Lon: 30}, FamilySouth, false},
		{"tropics", GeoPoint{Lat: 20, Lon: -100}, GeoPoint{Lat: -10, Lon: -80}, FamilyTemperate, false},
		{"north overlap", GeoPoint{Lat: 48, Lon: -100}, GeoPoint{Lat: 42, Lon: -90}, "", true},
		{"south overlap", GeoPoint{Lat: -42, Lon: 0}, GeoPoint{Lat: -45, Lon: 10}, "", true},
		{"spans north and temperate", GeoPoint{Lat: 60, Lon: 0}, GeoPoint{Lat: 30, Lon: 10}, "", true},
		{"spans hemispheres", GeoPoint{Lat: 60, Lon: 0}, GeoPoint{Lat: -60, Lon: 10}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectFamily(tt.ul, tt.lr)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrRegionUnsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveWindow(t *testing.T) {
	tr, err := NewTransform("EASE2_N25km")
	require.NoError(t, err)

	ul := GeoPoint{Lat: 71.5, Lon: -160}
	lr := GeoPoint{Lat: 65, Lon: -140}
	w, err := ResolveWindow(tr, ul, lr)
	require.NoError(t, err)

	x, y := tr.GeographicToMap(ul.Lat, ul.Lon)
	assert.InDelta(t, x, w.ULX, 1e-3)
	assert.InDelta(t, y, w.ULY, 1e-3)
	x, y = tr.GeographicToMap(lr.Lat, lr.Lon)
	assert.InDelta(t, x, w.LRX, 1e-3)
	assert.InDelta(t, y, w.LRY, 1e-3)

	minX, maxX := w.XRange()
	minY, maxY := w.YRange()
	assert.LessOrEqual(t, minX, maxX)
	assert.LessOrEqual(t, minY, maxY)
	assert.True(t, w.Contains((minX+maxX)/2, (minY+maxY)/2))
	assert.Equal(t, "EASE2_N25km", w.Grid.Name())
}

func TestResolveWindow_OutsideBand(t *testing.T) {
	tr, err := NewTransform("EASE2_S25km")
	require.NoError(t, err)

	_, err = ResolveWindow(tr, GeoPoint{Lat: 70, Lon: 0}, GeoPoint{Lat: 60, Lon: 10})
	assert.ErrorIs(t, err, ErrRegionUnsupported)
}

func TestResolveWindows_PerChannel(t *testing.T) {
	g19, g37, err := ChannelGrids(FamilyNorth, true)
	require.NoError(t, err)
	assert.Equal(t, Res6_25, g19.Resolution)
	assert.Equal(t, Res3_125, g37.Resolution)

	ul := GeoPoint{Lat: 60, Lon: -150}
	lr := GeoPoint{Lat: 55, Lon: -145}
	windows, err := ResolveWindows(ul, lr, g19, g37)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	// Both windows describe the same area, so they agree to within a cell.
	assert.InDelta(t, windows[0].ULX, windows[1].ULX, 6250)
	assert.InDelta(t, windows[0].LRY, windows[1].LRY, 6250)
}

func TestParseCorners(t *testing.T) {
	ul, lr, err := ParseCorners("70, -150,60,-140")
	require.NoError(t, err)
	assert.Equal(t, GeoPoint{Lat: 70, Lon: -150}, ul)
	assert.Equal(t, GeoPoint{Lat: 60, Lon: -140}, lr)

	_, _, err = ParseCorners("70,-150,60")
	assert.Error(t, err)
	_, _, err = ParseCorners("70,-150,sixty,-140")
	assert.Error(t, err)
}
