package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"go.ngs.io/swe-api/internal/domain"
)

// Subsetter cuts and joins NetCDF files. nco.Runner implements it.
type Subsetter interface {
	Subset(ctx context.Context, in, out string, w domain.BoundingWindow, varName string) error
	Concat(ctx context.Context, inputs []string, out string) error
}

// WindowRequest describes a geographic rectangle by its corners.
type WindowRequest struct {
	UpperLeft  domain.GeoPoint
	LowerRight domain.GeoPoint
	HighRes    bool
}

// ChannelWindow is the projected window of one channel grid.
type ChannelWindow struct {
	Channel string                `json:"channel"`
	Grid    string                `json:"grid"`
	Window  domain.BoundingWindow `json:"window"`
}

// WindowPlan is the family and per-channel windows for a request.
type WindowPlan struct {
	Family   domain.Family   `json:"family"`
	Channels []ChannelWindow `json:"channels"`
}

// Window returns the plan entry for channel.
func (p *WindowPlan) Window(channel string) (domain.BoundingWindow, bool) {
	for _, cw := range p.Channels {
		if cw.Channel == channel {
			return cw.Window, true
		}
	}
	return domain.BoundingWindow{}, false
}

// Validate checks if the request is valid
func (r *WindowRequest) Validate() error {
	for _, p := range []domain.GeoPoint{r.UpperLeft, r.LowerRight} {
		if p.Lat < -90 || p.Lat > 90 {
			return fmt.Errorf("latitude must be between -90 and 90")
		}
		if p.Lon < -180 || p.Lon > 180 {
			return fmt.Errorf("longitude must be between -180 and 180")
		}
	}
	return nil
}

// PlanWindows selects the projection family covering both corners and resolves
// one window per channel grid.
func PlanWindows(req WindowRequest) (*WindowPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	family, err := domain.SelectFamily(req.UpperLeft, req.LowerRight)
	if err != nil {
		return nil, err
	}
	grid19, grid37, err := domain.ChannelGrids(family, req.HighRes)
	if err != nil {
		return nil, err
	}
	windows, err := domain.ResolveWindows(req.UpperLeft, req.LowerRight, grid19, grid37)
	if err != nil {
		return nil, err
	}
	return &WindowPlan{
		Family: family,
		Channels: []ChannelWindow{
			{Channel: domain.Channel19H, Grid: grid19.Name(), Window: windows[0]},
			{Channel: domain.Channel37H, Grid: grid37.Name(), Window: windows[1]},
		},
	}, nil
}

// SubsetRequest lists the downloaded files of each channel, in time order.
type SubsetRequest struct {
	Window    WindowRequest
	Inputs    map[string][]string // channel -> files
	OutputDir string
	VarName   string
}

// SubsetResult maps each channel to its concatenated output file.
type SubsetResult struct {
	Plan    *WindowPlan       `json:"plan"`
	Outputs map[string]string `json:"outputs"`
}

// SubsetUseCase drives the external subsetting tools.
type SubsetUseCase struct {
	tools  Subsetter
	logger *zap.SugaredLogger
}

// NewSubsetUseCase creates a new subset use case
func NewSubsetUseCase(tools Subsetter, logger *zap.SugaredLogger) *SubsetUseCase {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SubsetUseCase{tools: tools, logger: logger}
}

// Execute cuts every input file to its channel window and joins each
// channel's pieces along time into <OutputDir>/<channel>.nc.
func (uc *SubsetUseCase) Execute(ctx context.Context, req SubsetRequest) (*SubsetResult, error) {
	plan, err := PlanWindows(req.Window)
	if err != nil {
		return nil, err
	}
	if req.OutputDir == "" {
		return nil, fmt.Errorf("invalid request: output directory is required")
	}
	varName := req.VarName
	if varName == "" {
		varName = "TB"
	}
	pieceDir := filepath.Join(req.OutputDir, "subset")
	if err := os.MkdirAll(pieceDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create subset directory: %w", err)
	}

	outputs := make(map[string]string)
	for _, cw := range plan.Channels {
		files := req.Inputs[cw.Channel]
		if len(files) == 0 {
			continue
		}
		pieces := make([]string, 0, len(files))
		for _, in := range files {
			out := filepath.Join(pieceDir, strings.TrimSuffix(filepath.Base(in), ".nc")+"_subset.nc")
			if err := uc.tools.Subset(ctx, in, out, cw.Window, varName); err != nil {
				return nil, fmt.Errorf("failed to subset %s: %w", in, err)
			}
			pieces = append(pieces, out)
		}
		joined := filepath.Join(req.OutputDir, cw.Channel+".nc")
		if err := uc.tools.Concat(ctx, pieces, joined); err != nil {
			return nil, fmt.Errorf("failed to concatenate %s: %w", cw.Channel, err)
		}
		uc.logger.Infof("subset %d %s files on %s into %s", len(files), cw.Channel, cw.Grid, joined)
		outputs[cw.Channel] = joined
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("invalid request: no input files")
	}
	return &SubsetResult{Plan: plan, Outputs: outputs}, nil
}
