package domain

import (
	"errors"
	"math"
	"testing"
)

func TestParseGridName(t *testing.T) {
	tests := []struct {
		name    string
		want    GridDefinition
		wantErr bool
	}{
		{"EASE2_N25km", GridDefinition{FamilyNorth, Res25}, false},
		{"N25km", GridDefinition{FamilyNorth, Res25}, false},
		{"EASE2_S12.5km", GridDefinition{FamilySouth, Res12_5}, false},
		{"T6.25km", GridDefinition{FamilyTemperate, Res6_25}, false},
		{"EASE2_N3.125km", GridDefinition{FamilyNorth, Res3_125}, false},
		{"EASE2_W25km", GridDefinition{}, true},
		{"EASE2_N3.126km", GridDefinition{}, true},
		{"EASE2_N25.0km", GridDefinition{}, true},
		{"N25", GridDefinition{}, true},
		{"", GridDefinition{}, true},
		{"EASE2_NN25km", GridDefinition{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGridName(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewTransform_RejectsUnsupported(t *testing.T) {
	for _, name := range []string{"EASE2_W25km", "EASE2_N3.126km"} {
		if _, err := NewTransform(name); !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", name, err)
		}
	}
}

func TestGridDefinitionName(t *testing.T) {
	g, err := ParseGridName("S3.125km")
	if err != nil {
		t.Fatal(err)
	}
	if g.Name() != "EASE2_S3.125km" {
		t.Errorf("Name() = %q", g.Name())
	}
}

func TestGridMapRoundTrip(t *testing.T) {
	for _, name := range []string{
		"N25km", "N12.5km", "N6.25km", "N3.125km",
		"S25km", "S3.125km",
		"T25km", "T12.5km", "T6.25km", "T3.125km",
	} {
		tr, err := NewTransform(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		rows, cols := tr.Dimensions()
		for _, cell := range [][2]float64{
			{0, 0}, {-0.5, -0.5}, {float64(rows) - 0.5, float64(cols) - 0.5},
			{float64(rows) / 3, float64(cols) / 7}, {123.25, 456.75},
		} {
			x, y := tr.GridToMap(cell[0], cell[1])
			row, col := tr.MapToGrid(x, y)
			if math.Abs(row-cell[0]) > 1e-6 || math.Abs(col-cell[1]) > 1e-6 {
				t.Errorf("%s: (%v, %v) -> (%v, %v) -> (%v, %v)", name, cell[0], cell[1], x, y, row, col)
			}
		}
	}
}

func TestNorthPoleFixedPoint(t *testing.T) {
	tr, err := NewTransform("N25km")
	if err != nil {
		t.Fatal(err)
	}
	lat, lon := tr.GridToGeographic(359.5, 359.5)
	if math.Abs(lat-90) > 0.1 || math.Abs(lon) > 0.1 {
		t.Errorf("pole cell -> (%v, %v), want (90, 0)", lat, lon)
	}

	row, col := tr.GeographicToGrid(90, 0)
	if math.Abs(row-359.5) > 1e-6 || math.Abs(col-359.5) > 1e-6 {
		t.Errorf("pole -> (%v, %v), want (359.5, 359.5)", row, col)
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
	}{
		{"N25km", 720, 720},
		{"N3.125km", 5760, 5760},
		{"S6.25km", 2880, 2880},
		{"T25km", 540, 1388},
		{"T3.125km", 4320, 11104},
	}
	for _, tt := range tests {
		tr, err := NewTransform(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		rows, cols := tr.Dimensions()
		if rows != tt.rows || cols != tt.cols {
			t.Errorf("%s: got %dx%d, want %dx%d", tt.name, rows, cols, tt.rows, tt.cols)
		}
	}
}

func TestTemperateOrigin(t *testing.T) {
	tr, err := NewTransform("T25km")
	if err != nil {
		t.Fatal(err)
	}
	row, col := tr.GeographicToGrid(0, 0)
	if math.Abs(row-269.5) > 1e-6 || math.Abs(col-693.5) > 1e-6 {
		t.Errorf("(0, 0) -> (%v, %v), want (269.5, 693.5)", row, col)
	}
}

func TestGeographicRoundTrip(t *testing.T) {
	tests := []struct {
		grid     string
		lat, lon float64
	}{
		{"N25km", 45, 0},
		{"N25km", 60, -120},
		{"N6.25km", 72.5, 135.25},
		{"N3.125km", 89.9, 10},
		{"S25km", -70, 45},
		{"S12.5km", -45, -170},
		{"T25km", 0, 0},
		{"T12.5km", 30, 100},
		{"T3.125km", -60, -75},
		{"T6.25km", 80, 179},
	}
	for _, tt := range tests {
		tr, err := NewTransform(tt.grid)
		if err != nil {
			t.Fatal(err)
		}
		row, col := tr.GeographicToGrid(tt.lat, tt.lon)
		lat, lon := tr.GridToGeographic(row, col)
		if math.Abs(lat-tt.lat) > 1e-5 || math.Abs(lon-tt.lon) > 1e-5 {
			t.Errorf("%s: (%v, %v) -> (%v, %v) -> (%v, %v)", tt.grid, tt.lat, tt.lon, row, col, lat, lon)
		}
	}
}

func TestPolarQuadrants(t *testing.T) {
	tr, err := NewTransform("N25km")
	if err != nil {
		t.Fatal(err)
	}
	// Greenwich points down the grid on the northern grid, 90E points right.
	x, y := tr.GeographicToMap(60, 0)
	if math.Abs(x) > 1e-6 || y >= 0 {
		t.Errorf("lon 0: x=%v y=%v", x, y)
	}
	x, y = tr.GeographicToMap(60, 90)
	if x <= 0 || math.Abs(y) > 1e-6 {
		t.Errorf("lon 90: x=%v y=%v", x, y)
	}

	south, err := NewTransform("S25km")
	if err != nil {
		t.Fatal(err)
	}
	x, y = south.GeographicToMap(-60, 0)
	if math.Abs(x) > 1e-6 || y <= 0 {
		t.Errorf("south lon 0: x=%v y=%v", x, y)
	}
}

func TestAffineInverse(t *testing.T) {
	a := AffineTransform{A: 2, B: 0.5, C: 10, D: -0.25, E: -3, F: 7}
	x, y := a.Forward(4, 9)
	col, row := a.Inverse(x, y)
	if math.Abs(col-4) > 1e-12 || math.Abs(row-9) > 1e-12 {
		t.Errorf("got (%v, %v)", col, row)
	}
}

func TestAggregationFactor(t *testing.T) {
	if f, err := AggregationFactor(Res3_125, Res6_25); err != nil || f != 2 {
		t.Errorf("3.125 -> 6.25: %d, %v", f, err)
	}
	if f, err := AggregationFactor(Res3_125, Res25); err != nil || f != 8 {
		t.Errorf("3.125 -> 25: %d, %v", f, err)
	}
	if f, err := AggregationFactor(Res25, Res25); err != nil || f != 1 {
		t.Errorf("25 -> 25: %d, %v", f, err)
	}
	if _, err := AggregationFactor(Res25, Res6_25); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for upsampling, got %v", err)
	}
}
