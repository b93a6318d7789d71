// Package tb reads and writes brightness-temperature and SWE cubes stored as
// NetCDF files on an EASE-Grid 2.0 grid.
package tb

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/swe-api/internal/domain"
)

// fillValue marks missing samples in files written by this package.
const fillValue = float32(-9999)

// FileConfig names the variables and attributes of a cube file.
type FileConfig struct {
	DataVarName string // E.g., "TB" for inputs, "SWE" for outputs.
	CRSVarName  string
	GridAttr    string // Attribute of the CRS variable carrying the grid token.
	XVarName    string
	YVarName    string
	TimeVarName string

	// DefaultGrid is used when a file carries no grid token.
	DefaultGrid string
}

// DefaultConfig matches the NSIDC-0630 layout.
func DefaultConfig() FileConfig {
	return FileConfig{
		DataVarName: "TB",
		CRSVarName:  "crs",
		GridAttr:    "long_name",
		XVarName:    "x",
		YVarName:    "y",
		TimeVarName: "time",
	}
}

// Product is a cube together with its grid and map coordinates.
type Product struct {
	Grid  domain.GridDefinition
	Cube  *domain.Cube
	X     []float64 // Column centers in meters.
	Y     []float64 // Row centers in meters.
	Start time.Time // Date of the first time step, zero when unknown.
}

// LoadOptions controls how a file is read.
type LoadOptions struct {
	// Window restricts the read to cells whose centers fall inside it.
	Window *domain.BoundingWindow
	// Target, when coarser than the file's grid, block-averages the cube
	// down to that resolution.
	Target domain.Resolution
}

// Store loads cubes from NetCDF files.
type Store struct {
	cfg FileConfig
}

// NewStore creates a store for the given file layout.
func NewStore(cfg FileConfig) *Store {
	return &Store{cfg: cfg}
}

// Config returns the file layout of the store.
func (s *Store) Config() FileConfig {
	return s.cfg
}

// Load reads one file.
func (s *Store) Load(path string, opts LoadOptions) (*Product, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	defer func() { _ = nc.Close() }()

	grid, err := s.readGrid(nc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	xv, err := nc.Var(s.cfg.XVarName)
	if err != nil {
		return nil, fmt.Errorf("variable %q not found in %s: %w", s.cfg.XVarName, path, err)
	}
	yv, err := nc.Var(s.cfg.YVarName)
	if err != nil {
		return nil, fmt.Errorf("variable %q not found in %s: %w", s.cfg.YVarName, path, err)
	}
	xs, err := readFloat64Var(xv)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.cfg.XVarName, err)
	}
	ys, err := readFloat64Var(yv)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.cfg.YVarName, err)
	}

	dv, err := nc.Var(s.cfg.DataVarName)
	if err != nil {
		return nil, fmt.Errorf("variable %q not found in %s: %w", s.cfg.DataVarName, path, err)
	}
	dims, err := dv.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	nt := 1
	switch len(dims) {
	case 2:
	case 3:
		n, err := dims[0].Len()
		if err != nil {
			return nil, err
		}
		nt = int(n)
	default:
		return nil, fmt.Errorf("expected 2D or 3D %s variable, got %dD", s.cfg.DataVarName, len(dims))
	}

	factor := 1
	if opts.Target != "" && opts.Target != grid.Resolution {
		if factor, err = domain.AggregationFactor(grid.Resolution, opts.Target); err != nil {
			return nil, err
		}
	}

	row0, nRows := 0, len(ys)
	col0, nCols := 0, len(xs)
	if opts.Window != nil {
		minX, maxX := opts.Window.XRange()
		minY, maxY := opts.Window.YRange()
		if col0, nCols, err = blockRange(xs, factor, minX, maxX); err != nil {
			return nil, fmt.Errorf("x axis: %w", err)
		}
		if row0, nRows, err = blockRange(ys, factor, minY, maxY); err != nil {
			return nil, fmt.Errorf("y axis: %w", err)
		}
	}

	start := []uint64{uint64(row0), uint64(col0)}
	count := []uint64{uint64(nRows), uint64(nCols)}
	if len(dims) == 3 {
		start = append([]uint64{0}, start...)
		count = append([]uint64{uint64(nt)}, count...)
	}
	data, err := readFloat64Slice(dv, start, count, nt*nRows*nCols)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.cfg.DataVarName, err)
	}
	unpack(dv, data)

	cube, err := domain.NewCubeFrom(nt, nRows, nCols, data)
	if err != nil {
		return nil, err
	}
	p := &Product{
		Grid:  grid,
		Cube:  cube,
		X:     append([]float64(nil), xs[col0:col0+nCols]...),
		Y:     append([]float64(nil), ys[row0:row0+nRows]...),
		Start: s.readStart(nc),
	}

	if opts.Target != "" && opts.Target != grid.Resolution {
		if p, err = Downsample(p, opts.Target); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// LoadSeries reads several files and joins them along time in the given
// order, the in-process equivalent of ncrcat.
func (s *Store) LoadSeries(paths []string, opts LoadOptions) (*Product, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	products := make([]*Product, 0, len(paths))
	for _, path := range paths {
		p, err := s.Load(path, opts)
		if err != nil {
			return nil, err
		}
		if len(products) > 0 && p.Grid != products[0].Grid {
			return nil, fmt.Errorf("%w: %s is on %s, expected %s", domain.ErrShapeMismatch, path, p.Grid, products[0].Grid)
		}
		products = append(products, p)
	}
	cubes := make([]*domain.Cube, len(products))
	for i, p := range products {
		cubes[i] = p.Cube
	}
	cube, err := domain.Concat(cubes...)
	if err != nil {
		return nil, err
	}
	first := products[0]
	return &Product{Grid: first.Grid, Cube: cube, X: first.X, Y: first.Y, Start: first.Start}, nil
}

// Downsample block-averages a product from its native resolution to target.
func Downsample(p *Product, target domain.Resolution) (*Product, error) {
	factor, err := domain.AggregationFactor(p.Grid.Resolution, target)
	if err != nil {
		return nil, err
	}
	if factor == 1 {
		return p, nil
	}
	cube, err := domain.BlockMean(p.Cube, factor)
	if err != nil {
		return nil, err
	}
	grid, err := domain.NewGridDefinition(p.Grid.Family, target)
	if err != nil {
		return nil, err
	}
	return &Product{
		Grid:  grid,
		Cube:  cube,
		X:     blockCenters(p.X, factor, cube.Cols),
		Y:     blockCenters(p.Y, factor, cube.Rows),
		Start: p.Start,
	}, nil
}

// blockCenters returns the coordinate at the center of each block, extending
// the axis spacing past its end for padded blocks.
func blockCenters(axis []float64, factor, n int) []float64 {
	out := make([]float64, n)
	if len(axis) == 0 {
		return out
	}
	step := 0.0
	if len(axis) > 1 {
		step = axis[1] - axis[0]
	}
	for i := range out {
		out[i] = axis[0] + step*(float64(i*factor)+float64(factor-1)/2)
	}
	return out
}

func (s *Store) readGrid(nc netcdf.Dataset) (domain.GridDefinition, error) {
	if v, err := nc.Var(s.cfg.CRSVarName); err == nil {
		if name, ok := readStringAttr(v.Attr(s.cfg.GridAttr)); ok {
			return domain.ParseGridName(strings.TrimSpace(name))
		}
	}
	if s.cfg.DefaultGrid != "" {
		return domain.ParseGridName(s.cfg.DefaultGrid)
	}
	return domain.GridDefinition{}, fmt.Errorf("%w: no grid token in %s:%s", domain.ErrConfiguration, s.cfg.CRSVarName, s.cfg.GridAttr)
}

// readStart derives the first date from a "days since YYYY-MM-DD" time axis.
func (s *Store) readStart(nc netcdf.Dataset) time.Time {
	v, err := nc.Var(s.cfg.TimeVarName)
	if err != nil {
		return time.Time{}
	}
	units, ok := readStringAttr(v.Attr("units"))
	if !ok {
		return time.Time{}
	}
	epoch, ok := parseDaysSince(units)
	if !ok {
		return time.Time{}
	}
	vals, err := readFloat64Var(v)
	if err != nil || len(vals) == 0 {
		return time.Time{}
	}
	return epoch.Add(time.Duration(vals[0] * 24 * float64(time.Hour))).Truncate(24 * time.Hour)
}

func parseDaysSince(units string) (time.Time, bool) {
	const prefix = "days since "
	if !strings.HasPrefix(units, prefix) {
		return time.Time{}, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(units, prefix))
	if len(rest) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", rest[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// indexRange returns the contiguous run of axis indices whose values lie in
// [lo, hi]. The axis may be ascending or descending.
func indexRange(axis []float64, lo, hi float64) (int, int, error) {
	first, last := -1, -1
	for i, v := range axis {
		if v >= lo && v <= hi {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, 0, fmt.Errorf("%w: no cells within [%.2f, %.2f]", domain.ErrRegionUnsupported, lo, hi)
	}
	return first, last - first + 1, nil
}

// blockRange is indexRange over the centers of factor-wide blocks counted
// from the start of the axis. The returned range covers whole blocks, so a
// window read aggregates onto the same cells as the coarser grid.
func blockRange(axis []float64, factor int, lo, hi float64) (int, int, error) {
	if factor <= 1 {
		return indexRange(axis, lo, hi)
	}
	blocks := (len(axis) + factor - 1) / factor
	first, n, err := indexRange(blockCenters(axis, factor, blocks), lo, hi)
	if err != nil {
		return 0, 0, err
	}
	start := first * factor
	end := min((first+n)*factor, len(axis))
	return start, end - start, nil
}

func readStringAttr(a netcdf.Attr) (string, bool) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return strings.TrimRight(string(buf), "\x00"), true
}

func readScalarAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, 1)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	bufs := make([]int16, 1)
	if err := a.ReadInt16s(bufs); err == nil {
		return float64(bufs[0]), true
	}
	bufu := make([]uint16, 1)
	if err := a.ReadUint16s(bufu); err == nil {
		return float64(bufu[0]), true
	}
	return 0, false
}

// unpack replaces fill values with the missing marker and applies
// scale_factor and add_offset.
func unpack(v netcdf.Var, data []float64) {
	fill, hasFill := readScalarAttr(v, "_FillValue")
	if !hasFill {
		fill, hasFill = readScalarAttr(v, "missing_value")
	}
	scale, hasScale := readScalarAttr(v, "scale_factor")
	offset, hasOffset := readScalarAttr(v, "add_offset")
	if !hasScale {
		scale = 1
	}
	if !hasOffset {
		offset = 0
	}
	for i, val := range data {
		if hasFill && val == fill {
			data[i] = domain.Missing()
			continue
		}
		data[i] = val*scale + offset
	}
}

// readFloat64Var reads a 1D numeric variable as float64.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	return readFloat64Slice(v, []uint64{0}, []uint64{length}, int(length))
}

// readFloat64Slice reads a hyperslab of a numeric variable as float64.
func readFloat64Slice(v netcdf.Var, start, count []uint64, total int) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}
	out := make([]float64, total)
	switch varType {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64Slice(out, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64 subset: %w", err)
		}
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int32 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.USHORT:
		tmp := make([]uint16, total)
		if err := v.ReadUint16Slice(tmp, start, count); err != nil {
			return nil, fmt.Errorf("failed to read uint16 subset: %w", err)
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported data type: %v (expected DOUBLE, FLOAT, INT, SHORT or USHORT)", varType)
	}
	return out, nil
}

// Write stores a product as a NetCDF file. Missing samples are written as
// the _FillValue; the grid token goes on the CRS variable.
func (s *Store) Write(path string, p *Product) error {
	nc, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create NetCDF file %s: %w", path, err)
	}
	defer func() { _ = nc.Close() }()

	c := p.Cube
	tDim, err := nc.AddDim(s.cfg.TimeVarName, uint64(c.T))
	if err != nil {
		return fmt.Errorf("failed to add time dimension: %w", err)
	}
	yDim, err := nc.AddDim(s.cfg.YVarName, uint64(c.Rows))
	if err != nil {
		return fmt.Errorf("failed to add y dimension: %w", err)
	}
	xDim, err := nc.AddDim(s.cfg.XVarName, uint64(c.Cols))
	if err != nil {
		return fmt.Errorf("failed to add x dimension: %w", err)
	}

	tv, err := nc.AddVar(s.cfg.TimeVarName, netcdf.DOUBLE, []netcdf.Dim{tDim})
	if err != nil {
		return fmt.Errorf("failed to add time variable: %w", err)
	}
	yv, err := nc.AddVar(s.cfg.YVarName, netcdf.DOUBLE, []netcdf.Dim{yDim})
	if err != nil {
		return fmt.Errorf("failed to add y variable: %w", err)
	}
	xv, err := nc.AddVar(s.cfg.XVarName, netcdf.DOUBLE, []netcdf.Dim{xDim})
	if err != nil {
		return fmt.Errorf("failed to add x variable: %w", err)
	}
	crsDim, err := nc.AddDim("n"+s.cfg.CRSVarName, 1)
	if err != nil {
		return fmt.Errorf("failed to add crs dimension: %w", err)
	}
	crs, err := nc.AddVar(s.cfg.CRSVarName, netcdf.INT, []netcdf.Dim{crsDim})
	if err != nil {
		return fmt.Errorf("failed to add crs variable: %w", err)
	}
	dv, err := nc.AddVar(s.cfg.DataVarName, netcdf.FLOAT, []netcdf.Dim{tDim, yDim, xDim})
	if err != nil {
		return fmt.Errorf("failed to add %s variable: %w", s.cfg.DataVarName, err)
	}

	if err := crs.Attr(s.cfg.GridAttr).WriteBytes([]byte(p.Grid.Name())); err != nil {
		return fmt.Errorf("failed to write grid token: %w", err)
	}
	if err := dv.Attr("_FillValue").WriteFloat32s([]float32{fillValue}); err != nil {
		return fmt.Errorf("failed to write _FillValue: %w", err)
	}
	if !p.Start.IsZero() {
		units := "days since " + p.Start.Format("2006-01-02")
		if err := tv.Attr("units").WriteBytes([]byte(units)); err != nil {
			return fmt.Errorf("failed to write time units: %w", err)
		}
	}

	if err := nc.EndDef(); err != nil {
		return fmt.Errorf("failed to end define mode: %w", err)
	}

	days := make([]float64, c.T)
	for i := range days {
		days[i] = float64(i)
	}
	if err := tv.WriteFloat64s(days); err != nil {
		return fmt.Errorf("failed to write time: %w", err)
	}
	if err := yv.WriteFloat64s(padAxis(p.Y, c.Rows)); err != nil {
		return fmt.Errorf("failed to write y: %w", err)
	}
	if err := xv.WriteFloat64s(padAxis(p.X, c.Cols)); err != nil {
		return fmt.Errorf("failed to write x: %w", err)
	}

	flat := make([]float32, len(c.Data))
	for i, v := range c.Data {
		if math.IsNaN(v) {
			flat[i] = fillValue
			continue
		}
		flat[i] = float32(v)
	}
	if err := dv.WriteFloat32s(flat); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.cfg.DataVarName, err)
	}
	return nil
}

// padAxis trims or extends a coordinate axis to n values, continuing its spacing.
func padAxis(axis []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, axis)
	if len(axis) >= n || len(axis) == 0 {
		return out
	}
	step := 0.0
	if len(axis) > 1 {
		step = axis[1] - axis[0]
	}
	for i := len(axis); i < n; i++ {
		out[i] = axis[0] + step*float64(i)
	}
	return out
}
