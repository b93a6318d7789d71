package domain

import "time"

// MeltCount is the number of pixels whose SWE first reached zero on Date
// within Date's calendar year.
type MeltCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// CountMeltOnset walks the cube day by day from start and counts, for each
// day, the pixels reaching zero for the first time in that calendar year.
// Missing and ocean pixels never count.
func CountMeltOnset(c *Cube, start time.Time) []MeltCount {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	stride := c.Rows * c.Cols
	melted := make([]bool, stride)
	counts := make([]MeltCount, c.T)

	year := start.Year()
	for t := 0; t < c.T; t++ {
		day := start.AddDate(0, 0, t)
		if day.Year() != year {
			year = day.Year()
			clear(melted)
		}
		n := 0
		for p, v := range c.Data[t*stride : (t+1)*stride] {
			if !melted[p] && v == 0 {
				melted[p] = true
				n++
			}
		}
		counts[t] = MeltCount{Date: day, Count: n}
	}
	return counts
}

// SumMeltCounts adds per-day counts computed over disjoint pixel sets of the
// same time range.
func SumMeltCounts(parts ...[]MeltCount) []MeltCount {
	if len(parts) == 0 {
		return nil
	}
	out := make([]MeltCount, len(parts[0]))
	copy(out, parts[0])
	for _, part := range parts[1:] {
		for i := range out {
			if i < len(part) {
				out[i].Count += part[i].Count
			}
		}
	}
	return out
}

// MeltCountsByYear groups daily counts by calendar year, in day order.
func MeltCountsByYear(counts []MeltCount) map[int][]int {
	out := make(map[int][]int)
	for _, mc := range counts {
		y := mc.Date.Year()
		out[y] = append(out[y], mc.Count)
	}
	return out
}
