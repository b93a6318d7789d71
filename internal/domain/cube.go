package domain

import (
	"fmt"
	"math"
)

// oceanValue marks pixels classified as open water. It lies far outside any
// brightness-temperature or SWE range.
const oceanValue = -8888.0

// Cube is a (time, row, col) array of brightness temperature or SWE values in
// row-major order. Missing samples are NaN; ocean pixels carry a dedicated
// marker queried through IsOcean.
type Cube struct {
	T    int
	Rows int
	Cols int
	Data []float64
}

// NewCube allocates a zero-valued cube.
func NewCube(t, rows, cols int) *Cube {
	if t < 0 || rows < 0 || cols < 0 {
		t, rows, cols = 0, 0, 0
	}
	return &Cube{T: t, Rows: rows, Cols: cols, Data: make([]float64, t*rows*cols)}
}

// NewCubeFrom wraps data in a cube after checking its length.
func NewCubeFrom(t, rows, cols int, data []float64) (*Cube, error) {
	if t < 0 || rows < 0 || cols < 0 || len(data) != t*rows*cols {
		return nil, fmt.Errorf("%w: %d values do not fill a %dx%dx%d cube", ErrShapeMismatch, len(data), t, rows, cols)
	}
	return &Cube{T: t, Rows: rows, Cols: cols, Data: data}, nil
}

// Shape returns (time, rows, cols).
func (c *Cube) Shape() [3]int {
	return [3]int{c.T, c.Rows, c.Cols}
}

// Len returns the number of elements.
func (c *Cube) Len() int {
	return len(c.Data)
}

// Index returns the flat offset of (t, r, col).
func (c *Cube) Index(t, r, col int) int {
	return (t*c.Rows+r)*c.Cols + col
}

func (c *Cube) At(t, r, col int) float64 {
	return c.Data[c.Index(t, r, col)]
}

func (c *Cube) Set(t, r, col int, v float64) {
	c.Data[c.Index(t, r, col)] = v
}

// Series copies the time series of pixel (r, col) into dst, allocating when
// dst is too short, and returns it.
func (c *Cube) Series(r, col int, dst []float64) []float64 {
	if cap(dst) < c.T {
		dst = make([]float64, c.T)
	}
	dst = dst[:c.T]
	stride := c.Rows * c.Cols
	off := r*c.Cols + col
	for t := range dst {
		dst[t] = c.Data[t*stride+off]
	}
	return dst
}

// SetSeries writes a time series back to pixel (r, col).
func (c *Cube) SetSeries(r, col int, series []float64) {
	stride := c.Rows * c.Cols
	off := r*c.Cols + col
	for t := 0; t < c.T && t < len(series); t++ {
		c.Data[t*stride+off] = series[t]
	}
}

// Clone returns a deep copy.
func (c *Cube) Clone() *Cube {
	data := make([]float64, len(c.Data))
	copy(data, c.Data)
	return &Cube{T: c.T, Rows: c.Rows, Cols: c.Cols, Data: data}
}

// ColumnRange returns a copy of columns [from, to) of every row and time step.
func (c *Cube) ColumnRange(from, to int) *Cube {
	width := to - from
	out := NewCube(c.T, c.Rows, width)
	for t := 0; t < c.T; t++ {
		for r := 0; r < c.Rows; r++ {
			src := c.Index(t, r, from)
			copy(out.Data[out.Index(t, r, 0):out.Index(t, r, 0)+width], c.Data[src:src+width])
		}
	}
	return out
}

// SetColumnRange writes part into columns [from, from+part.Cols).
func (c *Cube) SetColumnRange(from int, part *Cube) {
	for t := 0; t < c.T; t++ {
		for r := 0; r < c.Rows; r++ {
			dst := c.Index(t, r, from)
			src := part.Index(t, r, 0)
			copy(c.Data[dst:dst+part.Cols], part.Data[src:src+part.Cols])
		}
	}
}

// IsMissing reports whether v is the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Missing returns the missing marker.
func Missing() float64 {
	return math.NaN()
}

// IsOcean reports whether v is the ocean marker.
func IsOcean(v float64) bool {
	return v == oceanValue
}

// MarkOcean overwrites every time step of pixel (r, col) with the ocean marker.
func (c *Cube) MarkOcean(r, col int) {
	stride := c.Rows * c.Cols
	off := r*c.Cols + col
	for t := 0; t < c.T; t++ {
		c.Data[t*stride+off] = oceanValue
	}
}

// OceanPixels counts pixels whose first time step carries the ocean marker.
func (c *Cube) OceanPixels() int {
	if c.T == 0 {
		return 0
	}
	n := 0
	for _, v := range c.Data[:c.Rows*c.Cols] {
		if IsOcean(v) {
			n++
		}
	}
	return n
}

// ValidValues returns the non-missing, non-ocean values of time step t.
func (c *Cube) ValidValues(t int) []float64 {
	n := c.Rows * c.Cols
	out := make([]float64, 0, n)
	for _, v := range c.Data[t*n : (t+1)*n] {
		if !IsMissing(v) && !IsOcean(v) {
			out = append(out, v)
		}
	}
	return out
}

// Concat joins cubes along the time axis. Spatial shapes must agree.
func Concat(cubes ...*Cube) (*Cube, error) {
	if len(cubes) == 0 {
		return NewCube(0, 0, 0), nil
	}
	rows, cols := cubes[0].Rows, cubes[0].Cols
	total := 0
	for i, c := range cubes {
		if c.Rows != rows || c.Cols != cols {
			return nil, fmt.Errorf("%w: cube %d is %dx%d, expected %dx%d", ErrShapeMismatch, i, c.Rows, c.Cols, rows, cols)
		}
		total += c.T
	}
	data := make([]float64, 0, total*rows*cols)
	for _, c := range cubes {
		data = append(data, c.Data...)
	}
	return &Cube{T: total, Rows: rows, Cols: cols, Data: data}, nil
}
