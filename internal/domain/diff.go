package domain

import "fmt"

// SafeSubtract returns a - b after clipping both cubes to the smallest shared
// spatial extent minus one row and one column. The trim is applied even when
// the shapes already agree. Both cubes must cover the same time steps.
func SafeSubtract(a, b *Cube) (*Cube, error) {
	if a.T != b.T {
		return nil, fmt.Errorf("%w: time axes differ (%d vs %d)", ErrShapeMismatch, a.T, b.T)
	}
	rows := max(min(a.Rows, b.Rows)-1, 0)
	cols := max(min(a.Cols, b.Cols)-1, 0)

	out := NewCube(a.T, rows, cols)
	for t := 0; t < a.T; t++ {
		for r := 0; r < rows; r++ {
			for col := 0; col < cols; col++ {
				out.Set(t, r, col, a.At(t, r, col)-b.At(t, r, col))
			}
		}
	}
	return out, nil
}
