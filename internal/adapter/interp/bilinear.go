// Package interp samples gridded cubes between cell centers.
package interp

import (
	"fmt"
	"math"

	"go.ngs.io/swe-api/internal/domain"
)

// Cell holds the four cell-center values around a sample point. Row grows
// downward, so V00 is the upper-left neighbor.
//
//	V00 V01
//	V10 V11
type Cell struct {
	V00, V01, V10, V11 float64
}

// Bilinear interpolates at fractional offsets (u, t) from the upper-left
// center, both in [0, 1]:
//
//	f ≈ (1-u)(1-t)V00 + (1-u)t V01 + u(1-t)V10 + ut V11
//
// Missing or ocean neighbors are dropped and the remaining weights
// renormalized. ok is false when no neighbor carries a value.
func Bilinear(c Cell, u, t float64) (v float64, ok bool) {
	u = math.Max(0, math.Min(1, u))
	t = math.Max(0, math.Min(1, t))

	vals := [4]float64{c.V00, c.V01, c.V10, c.V11}
	weights := [4]float64{(1 - u) * (1 - t), (1 - u) * t, u * (1 - t), u * t}

	sum, wsum := 0.0, 0.0
	for i, x := range vals {
		if domain.IsMissing(x) || domain.IsOcean(x) || weights[i] == 0 {
			continue
		}
		sum += weights[i] * x
		wsum += weights[i]
	}
	if wsum == 0 {
		return domain.Missing(), false
	}
	return sum / wsum, true
}

// SampleSeries interpolates every time step of c at the fractional grid
// location (row, col), measured in cell-center units of the cube.
func SampleSeries(c *domain.Cube, row, col float64) ([]float64, error) {
	if c.Rows < 1 || c.Cols < 1 {
		return nil, fmt.Errorf("cube has no cells")
	}
	const epsilon = 1e-9
	if row < -epsilon || row > float64(c.Rows-1)+epsilon {
		return nil, fmt.Errorf("row %.6f is outside cube range [0, %d]", row, c.Rows-1)
	}
	if col < -epsilon || col > float64(c.Cols-1)+epsilon {
		return nil, fmt.Errorf("col %.6f is outside cube range [0, %d]", col, c.Cols-1)
	}

	r0, u := split(row, c.Rows)
	c0, t := split(col, c.Cols)
	r1, c1 := min(r0+1, c.Rows-1), min(c0+1, c.Cols-1)

	out := make([]float64, c.T)
	for ti := range out {
		out[ti], _ = Bilinear(Cell{
			V00: c.At(ti, r0, c0),
			V01: c.At(ti, r0, c1),
			V10: c.At(ti, r1, c0),
			V11: c.At(ti, r1, c1),
		}, u, t)
	}
	return out, nil
}

// split returns the lower neighbor index and the fractional offset from it.
func split(pos float64, n int) (int, float64) {
	i := int(math.Floor(pos))
	i = max(0, min(i, n-2))
	if n == 1 {
		return 0, 0
	}
	return i, pos - float64(i)
}

// AxisPosition returns the fractional index of v on an evenly spaced axis of
// cell centers. Descending axes are supported.
func AxisPosition(axis []float64, v float64) (float64, error) {
	switch len(axis) {
	case 0:
		return 0, fmt.Errorf("empty axis")
	case 1:
		return 0, nil
	}
	step := axis[1] - axis[0]
	if step == 0 {
		return 0, fmt.Errorf("axis spacing is zero")
	}
	return (v - axis[0]) / step, nil
}
