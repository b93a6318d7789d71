package usecase

import (
	"fmt"

	"go.ngs.io/swe-api/internal/adapter/interp"
	"go.ngs.io/swe-api/internal/adapter/store"
	"go.ngs.io/swe-api/internal/adapter/store/tb"
	"go.ngs.io/swe-api/internal/domain"
)

// SampleRequest asks for the time series of a processed cube at one location.
type SampleRequest struct {
	File string
	Lat  float64
	Lon  float64
}

// SampleResponse is the interpolated series. Missing days are null.
type SampleResponse struct {
	Grid   string          `json:"grid"`
	Point  domain.GeoPoint `json:"point"`
	Cell   domain.GridCell `json:"cell"`
	Start  string          `json:"start,omitempty"`
	Values []*float64      `json:"values"`
}

// SampleUseCase reads values out of processed cubes.
type SampleUseCase struct {
	cubes store.CubeStore
}

// NewSampleUseCase creates a new sample use case
func NewSampleUseCase(cubes store.CubeStore) *SampleUseCase {
	return &SampleUseCase{cubes: cubes}
}

// Validate checks if the request is valid
func (r *SampleRequest) Validate() error {
	if r.File == "" {
		return fmt.Errorf("file must be provided")
	}
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if r.Lon < -180 || r.Lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// Execute projects the point onto the file's grid and interpolates between
// the surrounding cell centers for every day.
func (uc *SampleUseCase) Execute(req SampleRequest) (*SampleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	p, err := uc.cubes.LoadSeries([]string{req.File}, tb.LoadOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", req.File, err)
	}
	t, err := domain.NewTransformFor(p.Grid)
	if err != nil {
		return nil, err
	}

	x, y := t.GeographicToMap(req.Lat, req.Lon)
	col, err := interp.AxisPosition(p.X, x)
	if err != nil {
		return nil, fmt.Errorf("invalid x axis: %w", err)
	}
	row, err := interp.AxisPosition(p.Y, y)
	if err != nil {
		return nil, fmt.Errorf("invalid y axis: %w", err)
	}
	series, err := interp.SampleSeries(p.Cube, row, col)
	if err != nil {
		return nil, fmt.Errorf("%w: point (%.4f, %.4f) is outside %s: %v",
			domain.ErrRegionUnsupported, req.Lat, req.Lon, req.File, err)
	}

	resp := &SampleResponse{
		Grid:   p.Grid.Name(),
		Point:  domain.GeoPoint{Lat: req.Lat, Lon: req.Lon},
		Cell:   domain.GridCell{Row: row, Col: col},
		Values: make([]*float64, len(series)),
	}
	if !p.Start.IsZero() {
		resp.Start = p.Start.Format("2006-01-02")
	}
	for i, v := range series {
		if !domain.IsMissing(v) {
			resp.Values[i] = &v
		}
	}
	return resp, nil
}
