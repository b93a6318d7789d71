package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/swe-api/internal/adapter/store/tb"
	"go.ngs.io/swe-api/internal/domain"
)

func testScene(t *testing.T, channel string) Scene {
	t.Helper()
	g, err := domain.ParseGridName("EASE2_N25km")
	require.NoError(t, err)
	return Scene{
		Grid:       g,
		Rows:       4,
		Cols:       6,
		Days:       30,
		Start:      time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		Channel:    channel,
		MissingPct: 0.1,
		OceanCols:  2,
		Seed:       7,
	}
}

func TestGenerate(t *testing.T) {
	p, err := generate(testScene(t, domain.Channel37H))
	require.NoError(t, err)

	assert.Equal(t, [3]int{30, 4, 6}, p.Cube.Shape())
	assert.Len(t, p.X, 6)
	assert.Len(t, p.Y, 4)
	assert.Greater(t, p.X[1], p.X[0])
	assert.Less(t, p.Y[1], p.Y[0])

	missing := 0
	for _, v := range p.Cube.Data {
		if domain.IsMissing(v) {
			missing++
			continue
		}
		assert.Greater(t, v, 100.0)
		assert.Less(t, v, 300.0)
	}
	assert.Positive(t, missing)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := generate(testScene(t, domain.Channel19H))
	require.NoError(t, err)
	b, err := generate(testScene(t, domain.Channel19H))
	require.NoError(t, err)
	assert.Equal(t, len(a.Cube.Data), len(b.Cube.Data))
	for i := range a.Cube.Data {
		if domain.IsMissing(a.Cube.Data[i]) {
			assert.True(t, domain.IsMissing(b.Cube.Data[i]))
			continue
		}
		assert.Equal(t, a.Cube.Data[i], b.Cube.Data[i])
	}
}

func TestGenerate_RoundTripsThroughStore(t *testing.T) {
	p, err := generate(testScene(t, domain.Channel19H))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scene.nc")
	store := tb.NewStore(tb.DefaultConfig())
	require.NoError(t, store.Write(path, p))

	got, err := store.Load(path, tb.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, p.Grid, got.Grid)
	assert.Equal(t, p.Cube.Shape(), got.Cube.Shape())
	assert.Equal(t, p.Start, got.Start)
}

func TestGenerate_InvalidScene(t *testing.T) {
	s := testScene(t, domain.Channel19H)
	s.Days = 0
	_, err := generate(s)
	assert.Error(t, err)
}
