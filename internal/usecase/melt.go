package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"go.ngs.io/swe-api/internal/adapter/store/csv"
	"go.ngs.io/swe-api/internal/domain"
)

// CountMeltOnset counts first-melt days over c using up to workers column
// partitions and sums the partial counts. Unlike smoothing, a cube narrower
// than the worker count simply uses fewer workers.
func CountMeltOnset(ctx context.Context, c *domain.Cube, start time.Time, workers int) ([]domain.MeltCount, error) {
	if c.Cols == 0 || c.Rows == 0 {
		return domain.CountMeltOnset(c, start), nil
	}
	spans, err := PartitionColumns(c.Cols, max(1, min(workers, c.Cols)))
	if err != nil {
		return nil, err
	}

	parts := make([][]domain.MeltCount, len(spans))
	g, gctx := errgroup.WithContext(ctx)
	for i, span := range spans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("melt onset columns [%d, %d): %w", span.From, span.To, err)
			}
			parts[i] = domain.CountMeltOnset(c.ColumnRange(span.From, span.To), start)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return domain.SumMeltCounts(parts...), nil
}

// MeltReport is a melt-onset export read back, with daily counts grouped by
// calendar year.
type MeltReport struct {
	Name   string             `json:"name"`
	Counts []domain.MeltCount `json:"counts"`
	ByYear map[int][]int      `json:"by_year"`
}

// LoadMeltReport reads the named melt-onset export.
func LoadMeltReport(exports *csv.Store, name string) (*MeltReport, error) {
	if name == "" {
		return nil, fmt.Errorf("invalid request: export name is required")
	}
	counts, err := exports.LoadMeltCounts(name)
	if err != nil {
		return nil, err
	}
	return &MeltReport{Name: name, Counts: counts, ByYear: domain.MeltCountsByYear(counts)}, nil
}
