package usecase

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go.ngs.io/swe-api/internal/adapter/store"
	"go.ngs.io/swe-api/internal/adapter/store/csv"
	"go.ngs.io/swe-api/internal/adapter/store/tb"
	"go.ngs.io/swe-api/internal/domain"
	"go.ngs.io/swe-api/internal/observability"
)

// PipelineRequest encapsulates one SWE processing run
type PipelineRequest struct {
	// Brightness-temperature files per channel, in time order
	TB19 []string
	TB37 []string

	// Output NetCDF path for the SWE cube
	Output string

	// HighRes selects the 6.25/3.125 km channel grids
	HighRes bool

	// Optional parameters
	Window          *WindowRequest // restrict loading to a geographic rectangle
	Workers         int            // smoothing workers, 0 uses the engine default
	MaskDay         *int           // reference day for the ocean mask, nil disables it
	MaskClasses     int
	DifferenceFirst bool   // subtract cleaned cubes, then smooth the difference
	MeltCSV         string // melt-onset export name, empty disables it
	MaskCSV         string // ocean-mask class breaks export name, needs MaskDay
	SummerCSV       string // summer-change map export name, empty disables it
}

// PipelineResponse summarizes a finished run
type PipelineResponse struct {
	RunID      string            `json:"run_id"`
	Grid       string            `json:"grid"`
	Shape      [3]int            `json:"shape"`
	Start      string            `json:"start,omitempty"`
	Output     string            `json:"output"`
	Mask       *MaskResult       `json:"mask,omitempty"`
	MaskCSV    string            `json:"mask_csv,omitempty"`
	MeltCSV    string            `json:"melt_csv,omitempty"`
	MeltByYear map[int][]int     `json:"melt_by_year,omitempty"` // daily counts per calendar year
	Summer     *SummerResult     `json:"summer,omitempty"`
	Duration   string            `json:"duration"`
	Meta       map[string]string `json:"meta"`
}

// PipelineUseCase orchestrates load, clean, smooth, difference and mask.
type PipelineUseCase struct {
	inputs  store.CubeStore
	outputs store.CubeStore
	exports *csv.Store
	engine  *SmoothingEngine
	metrics *observability.Metrics
	logger  *zap.SugaredLogger
}

// NewPipelineUseCase creates a new pipeline use case. exports and metrics may
// be nil.
func NewPipelineUseCase(inputs, outputs store.CubeStore, exports *csv.Store, engine *SmoothingEngine,
	metrics *observability.Metrics, logger *zap.SugaredLogger) *PipelineUseCase {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PipelineUseCase{
		inputs:  inputs,
		outputs: outputs,
		exports: exports,
		engine:  engine,
		metrics: metrics,
		logger:  logger,
	}
}

// Validate checks if the request is valid
func (r *PipelineRequest) Validate() error {
	if len(r.TB19) == 0 || len(r.TB37) == 0 {
		return fmt.Errorf("both tb19 and tb37 inputs must be provided")
	}
	if r.Output == "" {
		return fmt.Errorf("output path must be provided")
	}
	if r.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if r.MaskDay != nil && *r.MaskDay < 0 {
		return fmt.Errorf("mask_day must not be negative")
	}
	if r.MaskClasses != 0 && r.MaskClasses < 2 {
		return fmt.Errorf("mask_classes must be at least 2")
	}
	if r.MaskCSV != "" && r.MaskDay == nil {
		return fmt.Errorf("mask_csv needs mask_day")
	}
	if r.Window != nil {
		if err := r.Window.Validate(); err != nil {
			return err
		}
		if r.Window.HighRes != r.HighRes {
			return fmt.Errorf("window and request disagree on high_res")
		}
	}
	return nil
}

func (r *PipelineRequest) wantsExports() bool {
	return r.MeltCSV != "" || r.MaskCSV != "" || r.SummerCSV != ""
}

// Execute runs the pipeline. The first failing stage aborts the run. CSV
// exports are written before the SWE cube and removed again when a later
// write fails, so a failed run leaves no partial output.
func (uc *PipelineUseCase) Execute(ctx context.Context, req PipelineRequest) (resp *PipelineResponse, err error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.wantsExports() && uc.exports == nil {
		return nil, fmt.Errorf("%w: CSV export requested but no CSV store is configured", domain.ErrConfiguration)
	}
	started := time.Now()
	runID := uuid.NewString()
	log := uc.logger.With("run_id", runID)
	defer func() {
		if uc.metrics == nil {
			return
		}
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		uc.metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	}()

	var opts19, opts37 tb.LoadOptions
	if req.Window != nil {
		plan, err := PlanWindows(*req.Window)
		if err != nil {
			return nil, err
		}
		// 37H is aggregated onto the 19H grid, so both select the 19H cells
		w19, _ := plan.Window(domain.Channel19H)
		opts19.Window, opts37.Window = &w19, &w19
	}

	p19, err := uc.inputs.LoadSeries(req.TB19, opts19)
	if err != nil {
		return nil, fmt.Errorf("failed to load 19H: %w", err)
	}
	opts37.Target = p19.Grid.Resolution
	p37, err := uc.inputs.LoadSeries(req.TB37, opts37)
	if err != nil {
		return nil, fmt.Errorf("failed to load 37H: %w", err)
	}
	if p19.Grid != p37.Grid {
		return nil, fmt.Errorf("%w: 19H on %s but 37H on %s after aggregation", domain.ErrShapeMismatch, p19.Grid, p37.Grid)
	}
	log.Infof("loaded 19H %v and 37H %v on %s", p19.Cube.Shape(), p37.Cube.Shape(), p19.Grid)

	domain.ForwardFill(p19.Cube)
	domain.ForwardFill(p37.Cube)

	engine := uc.engine.WithWorkers(req.Workers)
	var swe *domain.Cube
	if req.DifferenceFirst {
		diff, err := domain.SafeSubtract(p19.Cube, p37.Cube)
		if err != nil {
			return nil, err
		}
		if swe, err = engine.Smooth(ctx, diff); err != nil {
			return nil, fmt.Errorf("failed to smooth SWE: %w", err)
		}
	} else {
		s19, err := engine.Smooth(ctx, p19.Cube)
		if err != nil {
			return nil, fmt.Errorf("failed to smooth 19H: %w", err)
		}
		s37, err := engine.Smooth(ctx, p37.Cube)
		if err != nil {
			return nil, fmt.Errorf("failed to smooth 37H: %w", err)
		}
		if swe, err = domain.SafeSubtract(s19, s37); err != nil {
			return nil, err
		}
	}

	resp = &PipelineResponse{
		RunID:  runID,
		Grid:   p19.Grid.Name(),
		Shape:  swe.Shape(),
		Output: req.Output,
		Meta: map[string]string{
			"workers": strconv.Itoa(engine.Workers()),
			"order":   pipelineOrder(req.DifferenceFirst),
		},
	}
	if !p19.Start.IsZero() {
		resp.Start = p19.Start.Format("2006-01-02")
	}

	if req.MaskDay != nil {
		mask, err := MaskOcean(swe, *req.MaskDay, req.MaskClasses)
		if err != nil {
			return nil, fmt.Errorf("failed to mask ocean: %w", err)
		}
		resp.Mask = mask
		log.Infof("masked %d ocean pixels using day %d", mask.OceanPixels, mask.ReferenceDay)
	}

	var melt []domain.MeltCount
	if req.MeltCSV != "" {
		if p19.Start.IsZero() {
			return nil, fmt.Errorf("%w: melt-onset export needs a start date but the inputs carry none", domain.ErrConfiguration)
		}
		if melt, err = CountMeltOnset(ctx, swe, p19.Start, engine.Workers()); err != nil {
			return nil, fmt.Errorf("failed to count melt onset: %w", err)
		}
		resp.MeltByYear = domain.MeltCountsByYear(melt)
	}
	var change *domain.Cube
	if req.SummerCSV != "" {
		if resp.Summer, change, err = AnalyzeSummers(swe, p19.Start); err != nil {
			return nil, fmt.Errorf("failed to measure summer lengths: %w", err)
		}
	}

	var written []string
	defer func() {
		if err != nil {
			for _, path := range written {
				_ = os.Remove(path)
			}
		}
	}()
	export := func(path string, err error) (string, error) {
		if err != nil {
			return "", fmt.Errorf("failed to export CSV: %w", err)
		}
		written = append(written, path)
		return path, nil
	}
	if req.MaskCSV != "" {
		if resp.MaskCSV, err = export(uc.exports.WriteBreaks(req.MaskCSV, resp.Mask.Breaks)); err != nil {
			return nil, err
		}
	}
	if req.MeltCSV != "" {
		if resp.MeltCSV, err = export(uc.exports.WriteMeltCounts(req.MeltCSV, melt)); err != nil {
			return nil, err
		}
	}
	if req.SummerCSV != "" {
		if resp.Summer.ChangeCSV, err = export(uc.exports.WriteSummerChange(req.SummerCSV, change, p19.X, p19.Y)); err != nil {
			return nil, err
		}
	}

	out := &tb.Product{
		Grid:  p19.Grid,
		Cube:  swe,
		X:     p19.X,
		Y:     p19.Y,
		Start: p19.Start,
	}
	written = append(written, req.Output)
	if err := uc.outputs.Write(req.Output, out); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", req.Output, err)
	}

	resp.Duration = time.Since(started).Round(time.Millisecond).String()
	log.Infof("wrote SWE %v to %s in %s", swe.Shape(), req.Output, resp.Duration)
	return resp, nil
}

func pipelineOrder(differenceFirst bool) string {
	if differenceFirst {
		return "difference-then-smooth"
	}
	return "smooth-then-difference"
}
