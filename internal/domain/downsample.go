package domain

import "fmt"

// aggregationSentinel stands in for masked cells while averaging. It never
// occurs in brightness-temperature data.
const aggregationSentinel = 0.00001

// BlockMean averages non-overlapping factor x factor blocks of every time
// step. Trailing rows and columns are zero-padded up to a multiple of factor.
// Missing cells take part in the mean as a sentinel and blocks whose mean is
// exactly the sentinel come back missing.
func BlockMean(c *Cube, factor int) (*Cube, error) {
	if factor < 1 {
		return nil, fmt.Errorf("%w: block factor %d must be positive", ErrConfiguration, factor)
	}
	if factor == 1 {
		return c.Clone(), nil
	}

	outRows := (c.Rows + factor - 1) / factor
	outCols := (c.Cols + factor - 1) / factor
	out := NewCube(c.T, outRows, outCols)
	area := float64(factor * factor)

	for t := 0; t < c.T; t++ {
		for br := 0; br < outRows; br++ {
			for bc := 0; bc < outCols; bc++ {
				sum := 0.0
				masked, cells := 0, 0
				for r := br * factor; r < (br+1)*factor && r < c.Rows; r++ {
					for col := bc * factor; col < (bc+1)*factor && col < c.Cols; col++ {
						v := c.At(t, r, col)
						cells++
						if IsMissing(v) {
							v = aggregationSentinel
							masked++
						}
						sum += v
					}
				}
				mean := sum / area
				if masked == cells {
					mean = aggregationSentinel
				}
				if mean == aggregationSentinel {
					mean = Missing()
				}
				out.Set(t, br, bc, mean)
			}
		}
	}
	return out, nil
}
