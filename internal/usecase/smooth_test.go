package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/swe-api/internal/domain"
	"go.ngs.io/swe-api/internal/observability"
)

func TestPartitionColumns(t *testing.T) {
	tests := []struct {
		name  string
		cols  int
		parts int
		want  []Span
	}{
		{"even", 6, 3, []Span{{0, 2}, {2, 4}, {4, 6}}},
		{"uneven", 10, 3, []Span{{0, 4}, {4, 7}, {7, 10}}},
		{"single", 5, 1, []Span{{0, 5}}},
		{"one column each", 4, 4, []Span{{0, 1}, {1, 2}, {2, 3}, {3, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PartitionColumns(tt.cols, tt.parts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartitionColumns_TooManyWorkers(t *testing.T) {
	_, err := PartitionColumns(3, 4)
	assert.True(t, errors.Is(err, domain.ErrPartitionSize))

	_, err = PartitionColumns(3, 0)
	assert.True(t, errors.Is(err, domain.ErrPartitionSize))
}

// seasonalCube builds a cube with a distinct noisy seasonal curve per pixel.
func seasonalCube(nt, rows, cols int) *domain.Cube {
	c := domain.NewCube(nt, rows, cols)
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			phase := float64(r*cols + col)
			for ti := 0; ti < nt; ti++ {
				v := 120 + 80*math.Sin(2*math.Pi*float64(ti)/float64(nt)+phase) + 3*math.Cos(float64(7*ti)+phase)
				c.Set(ti, r, col, v)
			}
		}
	}
	return c
}

func TestSmoothingEngine_MatchesSingleWorker(t *testing.T) {
	c := seasonalCube(60, 3, 7)
	ctx := context.Background()

	single, err := NewSmoothingEngine(1, nil, nil).Smooth(ctx, c)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 7} {
		got, err := NewSmoothingEngine(workers, nil, nil).Smooth(ctx, c)
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, single.Shape(), got.Shape())
		assert.Equal(t, single.Data, got.Data, "workers=%d", workers)
	}
}

func TestSmoothingEngine_InputUntouched(t *testing.T) {
	c := seasonalCube(20, 2, 4)
	before := c.Clone()

	out, err := NewSmoothingEngine(2, nil, nil).Smooth(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, before.Data, c.Data)
	assert.NotEqual(t, c.Data, out.Data)
}

func TestSmoothingEngine_ConstantSeries(t *testing.T) {
	c := domain.NewCube(5, 2, 2)
	for i := range c.Data {
		c.Data[i] = 250
	}
	out, err := NewSmoothingEngine(2, nil, nil).Smooth(context.Background(), c)
	require.NoError(t, err)
	for i, v := range out.Data {
		assert.InDelta(t, 250, v, 1e-9, "index %d", i)
	}
}

func TestSmoothingEngine_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewSmoothingEngine(4, nil, nil).Smooth(ctx, seasonalCube(10, 2, 3))
	assert.True(t, errors.Is(err, domain.ErrPartitionSize))

	_, err = NewSmoothingEngine(1, nil, nil).Smooth(ctx, seasonalCube(1, 2, 3))
	assert.True(t, errors.Is(err, domain.ErrUnsmoothableSeries))
}

func TestSmoothingEngine_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSmoothingEngine(2, nil, nil).Smooth(ctx, seasonalCube(10, 2, 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSmoothingEngine_Metrics(t *testing.T) {
	m := observability.NewMetricsForTesting()
	_, err := NewSmoothingEngine(3, m, nil).Smooth(context.Background(), seasonalCube(12, 2, 6))
	require.NoError(t, err)

	assert.Equal(t, float64(12), testutil.ToFloat64(m.PixelsSmoothed))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.SmoothingWorkers))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SmoothingDuration))
}

func TestSmoothingEngine_WithWorkers(t *testing.T) {
	e := NewSmoothingEngine(4, nil, nil)
	assert.Equal(t, 2, e.WithWorkers(2).Workers())
	assert.Equal(t, 4, e.WithWorkers(0).Workers())
	assert.Equal(t, 4, e.Workers())
}
