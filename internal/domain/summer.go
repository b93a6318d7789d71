package domain

import "time"

// SummerLengths holds, per pixel and calendar year, the number of days from
// the first zero-SWE day of the year until SWE is positive again. Lengths has
// one time step per entry of Years.
type SummerLengths struct {
	Years   []int
	Lengths *Cube
}

// CountSummerLengths walks every pixel of c from start and measures its
// snow-free span in each calendar year. A year in which the pixel never
// reaches zero, or in which snow has not returned by December 31, is
// missing. Missing samples neither open nor close a span; ocean pixels stay
// ocean.
func CountSummerLengths(c *Cube, start time.Time) *SummerLengths {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	var years []int
	yearOf := make([]int, c.T)
	for t := range yearOf {
		y := start.AddDate(0, 0, t).Year()
		if len(years) == 0 || years[len(years)-1] != y {
			years = append(years, y)
		}
		yearOf[t] = len(years) - 1
	}

	out := NewCube(len(years), c.Rows, c.Cols)
	for i := range out.Data {
		out.Data[i] = Missing()
	}
	series := make([]float64, c.T)
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			series = c.Series(r, col, series)
			if c.T > 0 && IsOcean(series[0]) {
				out.MarkOcean(r, col)
				continue
			}
			year, opened, closed := -1, -1, false
			for t, v := range series {
				if yearOf[t] != year {
					year, opened, closed = yearOf[t], -1, false
				}
				if closed || IsMissing(v) {
					continue
				}
				switch {
				case opened < 0 && v == 0:
					opened = t
				case opened >= 0 && v != 0:
					out.Set(year, r, col, float64(t-opened))
					closed = true
				}
			}
		}
	}
	return &SummerLengths{Years: years, Lengths: out}
}

// Change returns a single-step cube holding each pixel's mean change in
// summer length between consecutive known years. Pixels with fewer than two
// known years are missing.
func (s *SummerLengths) Change() *Cube {
	l := s.Lengths
	out := NewCube(1, l.Rows, l.Cols)
	series := make([]float64, l.T)
	for r := 0; r < l.Rows; r++ {
		for col := 0; col < l.Cols; col++ {
			series = l.Series(r, col, series)
			if l.T > 0 && IsOcean(series[0]) {
				out.Set(0, r, col, oceanValue)
				continue
			}
			prev, sum, n := Missing(), 0.0, 0
			for _, v := range series {
				if IsMissing(v) {
					continue
				}
				if !IsMissing(prev) {
					sum += v - prev
					n++
				}
				prev = v
			}
			if n == 0 {
				out.Set(0, r, col, Missing())
				continue
			}
			out.Set(0, r, col, sum/float64(n))
		}
	}
	return out
}
