package domain

// ForwardFill treats 0 as a missing sample and carries the most recent valid
// value forward along the time axis of every pixel. Leading gaps stay
// missing. The cube is modified in place and returned.
func ForwardFill(c *Cube) *Cube {
	stride := c.Rows * c.Cols
	for p := 0; p < stride; p++ {
		last := Missing()
		for t := 0; t < c.T; t++ {
			i := t*stride + p
			v := c.Data[i]
			if v == 0 || IsMissing(v) {
				c.Data[i] = last
				continue
			}
			last = v
		}
	}
	return c
}
