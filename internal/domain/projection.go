package domain

import "fmt"

const metersPerKm = 1000.0

// Grid geometry constants from the EASE-Grid 2.0 definitions.
const (
	polarMapULX = -9000000.0
	polarMapULY = 9000000.0

	temperateMapULX          = -17367530.44
	temperateMapULY          = 6756820.20000
	temperateBaseResolutionM = 25025.26000
	temperateTrueScaleLatDeg = 30.0
)

// GeoPoint is a geographic location in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GridCell is a continuous grid location. (0, 0) is the center of the
// upper-left cell; (-0.5, -0.5) is its upper-left corner.
type GridCell struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// MapPoint is a projected location in meters.
type MapPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AffineTransform maps grid (col, row) to map (x, y) using GDAL ordering:
//
//	x = C + A*col + B*row
//	y = F + D*col + E*row
type AffineTransform struct {
	A, B, C float64
	D, E, F float64
}

// Forward applies the transform to a grid location.
func (t AffineTransform) Forward(col, row float64) (x, y float64) {
	return t.C + t.A*col + t.B*row, t.F + t.D*col + t.E*row
}

// Inverse recovers the grid location of a map point.
func (t AffineTransform) Inverse(x, y float64) (col, row float64) {
	det := t.A*t.E - t.B*t.D
	dx := x - t.C
	dy := y - t.F
	col = (t.E*dx - t.B*dy) / det
	row = (-t.D*dx + t.A*dy) / det
	return col, row
}

// affineFor derives the cell-center affine transform of a grid definition.
func affineFor(g GridDefinition) (AffineTransform, error) {
	var ulx, uly, scaleX, scaleY float64
	switch g.Family {
	case FamilyNorth, FamilySouth:
		ulx, uly = polarMapULX, polarMapULY
		scaleX = g.Resolution.Kilometers() * metersPerKm
		scaleY = -scaleX
	case FamilyTemperate:
		ulx, uly = temperateMapULX, temperateMapULY
		scaleX = temperateBaseResolutionM / float64(int(1)<<g.Resolution.Tier())
		scaleY = -scaleX
	default:
		return AffineTransform{}, fmt.Errorf("%w: unrecognized projection family %q", ErrConfiguration, g.Family)
	}
	return AffineTransform{
		A: scaleX,
		C: ulx + scaleX/2,
		E: scaleY,
		F: uly + scaleY/2,
	}, nil
}

// Transform converts between geographic, grid and map coordinates of one
// EASE-Grid 2.0 grid. It holds no mutable state and is safe for concurrent use.
type Transform struct {
	grid   GridDefinition
	affine AffineTransform
	proj   projection
}

// NewTransform builds a Transform from a grid token such as "EASE2_N25km".
func NewTransform(gridName string) (*Transform, error) {
	g, err := ParseGridName(gridName)
	if err != nil {
		return nil, err
	}
	return NewTransformFor(g)
}

// NewTransformFor builds a Transform from a validated grid definition.
func NewTransformFor(g GridDefinition) (*Transform, error) {
	if _, err := NewGridDefinition(g.Family, g.Resolution); err != nil {
		return nil, err
	}
	affine, err := affineFor(g)
	if err != nil {
		return nil, err
	}

	var p projection
	switch g.Family {
	case FamilyNorth:
		p = polarLAEA{}
	case FamilySouth:
		p = polarLAEA{south: true}
	case FamilyTemperate:
		p = newCylindricalEA(temperateTrueScaleLatDeg)
	}

	return &Transform{grid: g, affine: affine, proj: p}, nil
}

// Grid returns the grid definition of the transform.
func (t *Transform) Grid() GridDefinition {
	return t.grid
}

// Affine returns the cell-center affine parameters.
func (t *Transform) Affine() AffineTransform {
	return t.affine
}

// GridToMap converts a grid location to map meters.
func (t *Transform) GridToMap(row, col float64) (x, y float64) {
	return t.affine.Forward(col, row)
}

// MapToGrid converts map meters to a grid location.
func (t *Transform) MapToGrid(x, y float64) (row, col float64) {
	col, row = t.affine.Inverse(x, y)
	return row, col
}

// GeographicToMap projects a geographic location to map meters.
func (t *Transform) GeographicToMap(lat, lon float64) (x, y float64) {
	return t.proj.forward(lat, lon)
}

// MapToGeographic unprojects map meters to a geographic location.
func (t *Transform) MapToGeographic(x, y float64) (lat, lon float64) {
	return t.proj.inverse(x, y)
}

// GeographicToGrid converts degrees to a grid location.
func (t *Transform) GeographicToGrid(lat, lon float64) (row, col float64) {
	x, y := t.proj.forward(lat, lon)
	return t.MapToGrid(x, y)
}

// GridToGeographic converts a grid location to degrees.
func (t *Transform) GridToGeographic(row, col float64) (lat, lon float64) {
	x, y := t.GridToMap(row, col)
	return t.proj.inverse(x, y)
}

// Dimensions returns the number of rows and columns covering the full grid.
func (t *Transform) Dimensions() (rows, cols int) {
	switch t.grid.Family {
	case FamilyTemperate:
		width := -2 * temperateMapULX
		height := 2 * temperateMapULY
		return int(height/-t.affine.E + 0.5), int(width/t.affine.A + 0.5)
	default:
		n := int(2*polarMapULY/t.affine.A + 0.5)
		return n, n
	}
}
