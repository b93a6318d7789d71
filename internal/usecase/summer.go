package usecase

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"go.ngs.io/swe-api/internal/domain"
)

// SummerResult summarizes snow-free span lengths over a run.
type SummerResult struct {
	Years        []int           `json:"years"`
	MeanLength   map[int]float64 `json:"mean_length"`           // per year, over pixels where it is known
	MeanChange   *float64        `json:"mean_change,omitempty"` // days per year; nil when no pixel has two known years
	ChangePixels int             `json:"change_pixels"`
	ChangeCSV    string          `json:"change_csv,omitempty"`
}

// AnalyzeSummers measures per-pixel summer lengths of a SWE cube starting on
// start and reduces them to a change map and overall means.
func AnalyzeSummers(c *domain.Cube, start time.Time) (*SummerResult, *domain.Cube, error) {
	if start.IsZero() {
		return nil, nil, fmt.Errorf("%w: summer lengths need a start date", domain.ErrConfiguration)
	}
	lengths := domain.CountSummerLengths(c, start)

	res := &SummerResult{
		Years:      lengths.Years,
		MeanLength: make(map[int]float64, len(lengths.Years)),
	}
	for i, year := range lengths.Years {
		if vals := lengths.Lengths.ValidValues(i); len(vals) > 0 {
			res.MeanLength[year] = stat.Mean(vals, nil)
		}
	}

	change := lengths.Change()
	if vals := change.ValidValues(0); len(vals) > 0 {
		mean := stat.Mean(vals, nil)
		res.MeanChange = &mean
		res.ChangePixels = len(vals)
	}
	return res, change, nil
}
