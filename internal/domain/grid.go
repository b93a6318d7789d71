package domain

import (
	"fmt"
	"regexp"
)

// Family identifies an EASE-Grid 2.0 projection family.
type Family string

const (
	// FamilyNorth is the Northern Hemisphere Lambert azimuthal equal-area grid.
	FamilyNorth Family = "N"
	// FamilySouth is the Southern Hemisphere Lambert azimuthal equal-area grid.
	FamilySouth Family = "S"
	// FamilyTemperate is the global cylindrical equal-area grid.
	FamilyTemperate Family = "T"
)

// Resolution is one of the supported EASE-Grid 2.0 cell sizes, expressed as
// the token used in grid names (e.g. "12.5").
type Resolution string

const (
	Res25    Resolution = "25"
	Res12_5  Resolution = "12.5"
	Res6_25  Resolution = "6.25"
	Res3_125 Resolution = "3.125"
)

// supportedResolutions is ordered from coarsest to finest; the index is the
// resolution tier used by the temperate grid.
var supportedResolutions = []Resolution{Res25, Res12_5, Res6_25, Res3_125}

var resolutionKm = map[Resolution]float64{
	Res25:    25,
	Res12_5:  12.5,
	Res6_25:  6.25,
	Res3_125: 3.125,
}

// Tier returns the index of r in the supported set, or -1.
func (r Resolution) Tier() int {
	for i, s := range supportedResolutions {
		if s == r {
			return i
		}
	}
	return -1
}

// Kilometers returns the nominal cell size in kilometers.
func (r Resolution) Kilometers() float64 {
	return resolutionKm[r]
}

// gridNamePattern accepts "N25km" and the metadata form "EASE2_N25km".
var gridNamePattern = regexp.MustCompile(`^(?:EASE2_)?([A-Za-z])([0-9.]+)km$`)

// GridDefinition names one EASE-Grid 2.0 grid: a family and a resolution.
type GridDefinition struct {
	Family     Family
	Resolution Resolution
}

// ParseGridName parses a grid token such as "EASE2_N3.125km" or "T25km".
func ParseGridName(name string) (GridDefinition, error) {
	m := gridNamePattern.FindStringSubmatch(name)
	if m == nil {
		return GridDefinition{}, fmt.Errorf("%w: cannot parse grid name %q", ErrConfiguration, name)
	}
	return NewGridDefinition(Family(m[1]), Resolution(m[2]))
}

// NewGridDefinition validates family and resolution.
func NewGridDefinition(family Family, res Resolution) (GridDefinition, error) {
	switch family {
	case FamilyNorth, FamilySouth, FamilyTemperate:
	default:
		return GridDefinition{}, fmt.Errorf("%w: unrecognized projection family %q", ErrConfiguration, family)
	}
	if res.Tier() < 0 {
		return GridDefinition{}, fmt.Errorf("%w: unrecognized resolution %q", ErrConfiguration, res)
	}
	return GridDefinition{Family: family, Resolution: res}, nil
}

// Name returns the metadata form of the grid token, e.g. "EASE2_N25km".
func (g GridDefinition) Name() string {
	return fmt.Sprintf("EASE2_%s%skm", g.Family, g.Resolution)
}

func (g GridDefinition) String() string {
	return g.Name()
}

// ChannelGrids returns the grids used for the 19H and 37H channels of a family.
// High-resolution products use 6.25 km for 19H and 3.125 km for 37H; coarse
// products use 25 km for both.
func ChannelGrids(family Family, highRes bool) (grid19, grid37 GridDefinition, err error) {
	res19, res37 := Res25, Res25
	if highRes {
		res19, res37 = Res6_25, Res3_125
	}
	if grid19, err = NewGridDefinition(family, res19); err != nil {
		return GridDefinition{}, GridDefinition{}, err
	}
	if grid37, err = NewGridDefinition(family, res37); err != nil {
		return GridDefinition{}, GridDefinition{}, err
	}
	return grid19, grid37, nil
}

// AggregationFactor returns the integer block size that brings a grid at
// native resolution down to target. It is 1 when the grids match.
func AggregationFactor(native, target Resolution) (int, error) {
	n, t := native.Kilometers(), target.Kilometers()
	if n == 0 || t == 0 {
		return 0, fmt.Errorf("%w: unsupported resolution pair %q -> %q", ErrConfiguration, native, target)
	}
	if t < n {
		return 0, fmt.Errorf("%w: target %skm is finer than native %skm", ErrConfiguration, target, native)
	}
	ratio := t / n
	factor := int(ratio + 0.5)
	if float64(factor) != ratio {
		return 0, fmt.Errorf("%w: %skm is not an integer multiple of %skm", ErrConfiguration, target, native)
	}
	return factor, nil
}
