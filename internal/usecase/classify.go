package usecase

import (
	"fmt"

	"go.ngs.io/swe-api/internal/adapter/classify"
	"go.ngs.io/swe-api/internal/domain"
)

// DefaultOceanClasses is the number of natural-breaks classes used for the
// ocean mask; the lowest class is treated as open water.
const DefaultOceanClasses = 3

// MaskResult summarizes an ocean-masking pass.
type MaskResult struct {
	ReferenceDay int       `json:"reference_day"`
	Breaks       []float64 `json:"breaks"`
	OceanPixels  int       `json:"ocean_pixels"`
}

// MaskOcean classifies the values of one reference day into nClasses natural
// breaks and marks every pixel of the lowest class as ocean across all days.
// nClasses of 0 selects DefaultOceanClasses.
func MaskOcean(c *domain.Cube, referenceDay, nClasses int) (*MaskResult, error) {
	if referenceDay < 0 || referenceDay >= c.T {
		return nil, fmt.Errorf("%w: reference day %d outside [0, %d)", domain.ErrConfiguration, referenceDay, c.T)
	}
	switch {
	case nClasses == 0:
		nClasses = DefaultOceanClasses
	case nClasses < 2:
		return nil, fmt.Errorf("%w: ocean mask needs at least 2 classes, got %d", domain.ErrConfiguration, nClasses)
	}
	breaks, err := classify.Breaks(c.ValidValues(referenceDay), nClasses)
	if err != nil {
		return nil, fmt.Errorf("failed to classify day %d: %w", referenceDay, err)
	}

	var ocean [][2]int
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			v := c.At(referenceDay, r, col)
			if domain.IsMissing(v) || domain.IsOcean(v) {
				continue
			}
			if classify.Classify(v, breaks) == 0 {
				ocean = append(ocean, [2]int{r, col})
			}
		}
	}
	for _, p := range ocean {
		c.MarkOcean(p[0], p[1])
	}
	return &MaskResult{ReferenceDay: referenceDay, Breaks: breaks, OceanPixels: c.OceanPixels()}, nil
}

// JenksRequest asks for the smallest natural-breaks classification of Values
// reaching GVFThreshold.
type JenksRequest struct {
	Values       []float64 `json:"values"`
	GVFThreshold float64   `json:"gvf_threshold"`
}

// JenksResponse is the chosen classification.
type JenksResponse struct {
	Classes int       `json:"classes"`
	Breaks  []float64 `json:"breaks"`
	GVF     float64   `json:"gvf"`
}

// Validate checks if the request is valid
func (r *JenksRequest) Validate() error {
	if len(r.Values) < 2 {
		return fmt.Errorf("at least 2 values are required")
	}
	if r.GVFThreshold < 0 || r.GVFThreshold > 1 {
		return fmt.Errorf("gvf_threshold must be between 0 and 1")
	}
	return nil
}

// NaturalBreaks runs the optimal-class search for a request.
func NaturalBreaks(req JenksRequest) (*JenksResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	k, breaks, err := classify.OptimalClasses(req.Values, req.GVFThreshold)
	if err != nil {
		return nil, err
	}
	return &JenksResponse{
		Classes: k,
		Breaks:  breaks,
		GVF:     classify.GoodnessOfVarianceFit(req.Values, breaks),
	}, nil
}
