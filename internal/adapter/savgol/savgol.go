// Package savgol implements Savitzky-Golay smoothing of one-dimensional series.
package savgol

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.ngs.io/swe-api/internal/domain"
)

const (
	// MaxWindow is the window used for series at least this long.
	MaxWindow = 51
	// DefaultPolyOrder is the fitted polynomial degree.
	DefaultPolyOrder = 3
	// ZeroThreshold is the level below which smoothed values are set to 0.
	ZeroThreshold = 2.0
)

// Filter holds the least-squares projection for one (window, order) pair.
// Row k of the projection evaluates the fitted polynomial at window position k.
type Filter struct {
	window int
	order  int
	proj   *mat.Dense
}

var (
	filtersMu sync.Mutex
	filters   = map[[2]int]*Filter{}
)

// NewFilter returns the filter for an odd window and a polynomial order below
// the window length. Filters are cached and safe for concurrent use.
func NewFilter(window, order int) (*Filter, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("window length must be a positive odd number, got %d", window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("polynomial order %d must be less than window length %d", order, window)
	}

	key := [2]int{window, order}
	filtersMu.Lock()
	defer filtersMu.Unlock()
	if f, ok := filters[key]; ok {
		return f, nil
	}

	half := window / 2
	v := mat.NewDense(window, order+1, nil)
	for k := 0; k < window; k++ {
		z := float64(k - half)
		p := 1.0
		for j := 0; j <= order; j++ {
			v.Set(k, j, p)
			p *= z
		}
	}

	var qr mat.QR
	qr.Factorize(v)
	var q mat.Dense
	qr.QTo(&q)
	qp := q.Slice(0, window, 0, order+1)

	proj := mat.NewDense(window, window, nil)
	proj.Mul(qp, qp.T())

	f := &Filter{window: window, order: order, proj: proj}
	filters[key] = f
	return f, nil
}

// Window returns the window length.
func (f *Filter) Window() int { return f.window }

// Order returns the polynomial order.
func (f *Filter) Order() int { return f.order }

// Coefficients returns the convolution weights applied away from the edges.
func (f *Filter) Coefficients() []float64 {
	return mat.Row(nil, f.window/2, f.proj)
}

// Apply smooths src into dst. Points within half a window of either end take
// the polynomial fitted to the first or last full window. src must be at
// least one window long.
func (f *Filter) Apply(dst, src []float64) ([]float64, error) {
	n := len(src)
	if n < f.window {
		return nil, fmt.Errorf("series of length %d is shorter than window %d", n, f.window)
	}
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	half := f.window / 2
	row := make([]float64, f.window)
	mat.Row(row, half, f.proj)
	for i := half; i < n-half; i++ {
		dst[i] = floats.Dot(row, src[i-half:i+half+1])
	}

	head := src[:f.window]
	tail := src[n-f.window:]
	for k := 0; k < half; k++ {
		mat.Row(row, k, f.proj)
		dst[k] = floats.Dot(row, head)
		mat.Row(row, f.window-half+k, f.proj)
		dst[n-half+k] = floats.Dot(row, tail)
	}
	return dst, nil
}

// WindowFor picks the window and polynomial order for a series of length n:
// 51 and 3 for long series, otherwise the largest odd window below n with the
// order reduced when the window is 3 or shorter.
func WindowFor(n int) (window, order int, err error) {
	if n <= 1 {
		return 0, 0, fmt.Errorf("%w: series of length %d", domain.ErrUnsmoothableSeries, n)
	}
	if n >= MaxWindow {
		return MaxWindow, DefaultPolyOrder, nil
	}
	window = n - 1
	if window%2 == 0 {
		window--
	}
	order = DefaultPolyOrder
	if window <= 3 {
		order = window - 1
	}
	return window, order, nil
}

// Smooth filters one pixel time series and zeroes every value below
// ZeroThreshold. A leading run of missing samples is kept missing and the
// remainder is filtered on its own.
func Smooth(dst, src []float64) ([]float64, error) {
	n := len(src)
	window, order, err := WindowFor(n)
	if err != nil {
		return nil, err
	}
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	first := 0
	for first < n && domain.IsMissing(src[first]) {
		dst[first] = src[first]
		first++
	}
	valid := src[first:]
	switch {
	case len(valid) == 0:
		return dst, nil
	case len(valid) == 1:
		dst[first] = valid[0]
	default:
		if len(valid) < window {
			if window, order, err = WindowFor(len(valid)); err != nil {
				return nil, err
			}
		}
		f, err := NewFilter(window, order)
		if err != nil {
			return nil, err
		}
		if _, err := f.Apply(dst[first:], valid); err != nil {
			return nil, err
		}
	}

	for i := first; i < n; i++ {
		if dst[i] < ZeroThreshold {
			dst[i] = 0
		}
	}
	return dst, nil
}

// SmoothCube smooths every pixel of c in place, one series at a time.
func SmoothCube(c *domain.Cube) error {
	if _, _, err := WindowFor(c.T); err != nil {
		return err
	}
	buf := make([]float64, c.T)
	out := make([]float64, c.T)
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			buf = c.Series(r, col, buf)
			var err error
			if out, err = Smooth(out, buf); err != nil {
				return fmt.Errorf("pixel (%d, %d): %w", r, col, err)
			}
			c.SetSeries(r, col, out)
		}
	}
	return nil
}
