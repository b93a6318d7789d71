package usecase

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go.ngs.io/swe-api/internal/adapter/savgol"
	"go.ngs.io/swe-api/internal/domain"
	"go.ngs.io/swe-api/internal/observability"
)

// Span is a half-open column range [From, To).
type Span struct {
	From int
	To   int
}

// PartitionColumns splits cols into parts contiguous spans whose widths
// differ by at most one, wider spans first.
func PartitionColumns(cols, parts int) ([]Span, error) {
	if parts < 1 {
		return nil, fmt.Errorf("%w: worker count %d must be positive", domain.ErrPartitionSize, parts)
	}
	if cols < parts {
		return nil, fmt.Errorf("%w: %d columns cannot be split across %d workers; reduce the worker count or pad the cube",
			domain.ErrPartitionSize, cols, parts)
	}
	base, extra := cols/parts, cols%parts
	spans := make([]Span, parts)
	from := 0
	for i := range spans {
		w := base
		if i < extra {
			w++
		}
		spans[i] = Span{From: from, To: from + w}
		from += w
	}
	return spans, nil
}

// SmoothingEngine applies the Savitzky-Golay filter to every pixel of a cube,
// splitting the columns across a fixed number of workers.
type SmoothingEngine struct {
	workers int
	metrics *observability.Metrics
	logger  *zap.SugaredLogger
}

// NewSmoothingEngine creates an engine. A non-positive worker count uses one
// worker per CPU.
func NewSmoothingEngine(workers int, metrics *observability.Metrics, logger *zap.SugaredLogger) *SmoothingEngine {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SmoothingEngine{workers: workers, metrics: metrics, logger: logger}
}

// Workers returns the configured worker count.
func (e *SmoothingEngine) Workers() int {
	return e.workers
}

// WithWorkers returns a copy of the engine using n workers.
func (e *SmoothingEngine) WithWorkers(n int) *SmoothingEngine {
	out := *e
	if n >= 1 {
		out.workers = n
	}
	return &out
}

// Smooth returns a smoothed copy of c. Each worker filters its own column
// slab; slabs are written back in partition order. The first worker error
// fails the whole call and no partial cube is returned.
func (e *SmoothingEngine) Smooth(ctx context.Context, c *domain.Cube) (*domain.Cube, error) {
	if _, _, err := savgol.WindowFor(c.T); err != nil {
		return nil, err
	}
	spans, err := PartitionColumns(c.Cols, e.workers)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	if e.metrics != nil {
		e.metrics.SmoothingWorkers.Set(float64(len(spans)))
		defer e.metrics.SmoothingWorkers.Set(0)
	}

	slabs := make([]*domain.Cube, len(spans))
	g, gctx := errgroup.WithContext(ctx)
	for i, span := range spans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slab := c.ColumnRange(span.From, span.To)
			if err := savgol.SmoothCube(slab); err != nil {
				return fmt.Errorf("columns [%d, %d): %w", span.From, span.To, err)
			}
			slabs[i] = slab
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := domain.NewCube(c.T, c.Rows, c.Cols)
	for i, span := range spans {
		out.SetColumnRange(span.From, slabs[i])
	}

	elapsed := time.Since(started)
	if e.metrics != nil {
		e.metrics.SmoothingDuration.Observe(elapsed.Seconds())
		e.metrics.PixelsSmoothed.Add(float64(c.Rows * c.Cols))
	}
	e.logger.Debugf("smoothed %dx%dx%d cube with %d workers in %s", c.T, c.Rows, c.Cols, len(spans), elapsed)
	return out, nil
}
