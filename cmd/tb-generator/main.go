package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.ngs.io/swe-api/internal/adapter/store/tb"
	"go.ngs.io/swe-api/internal/domain"
)

// Scene controls the synthetic brightness temperatures.
type Scene struct {
	Grid       domain.GridDefinition
	Rows       int
	Cols       int
	Days       int
	Start      time.Time
	Channel    string
	MissingPct float64 // share of samples dropped, 0..1
	OceanCols  int     // leading columns with a cold, flat ocean signal
	Seed       int64
}

func main() {
	// Command line flags
	gridName := flag.String("grid", "EASE2_N25km", "Grid token written to the crs variable")
	channel := flag.String("channel", domain.Channel19H, "Channel: 19H or 37H")
	rows := flag.Int("rows", 40, "Rows in the scene")
	cols := flag.Int("cols", 60, "Columns in the scene")
	days := flag.Int("days", 365, "Number of daily time steps")
	startStr := flag.String("start", "2015-09-01", "First day, YYYY-MM-DD")
	missing := flag.Float64("missing", 0.05, "Share of samples left missing")
	oceanCols := flag.Int("ocean-cols", 5, "Leading columns simulated as ocean")
	seed := flag.Int64("seed", 1, "Random seed")
	outDir := flag.String("out", "./data", "Output directory")

	flag.Parse()

	grid, err := domain.ParseGridName(*gridName)
	if err != nil {
		log.Fatalf("Invalid grid: %v", err)
	}
	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	if *channel != domain.Channel19H && *channel != domain.Channel37H {
		log.Fatalf("Unknown channel: %s (use 19H or 37H)", *channel)
	}

	scene := Scene{
		Grid:       grid,
		Rows:       *rows,
		Cols:       *cols,
		Days:       *days,
		Start:      start,
		Channel:    *channel,
		MissingPct: *missing,
		OceanCols:  *oceanCols,
		Seed:       *seed,
	}
	product, err := generate(scene)
	if err != nil {
		log.Fatalf("Failed to generate scene: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	path := filepath.Join(*outDir, fmt.Sprintf("synthetic_%s_%s.nc", grid.Name(), *channel))
	if err := tb.NewStore(tb.DefaultConfig()).Write(path, product); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}

	log.Printf("✓ Generated %s", path)
	log.Printf("Grid: %s, %d days × %d rows × %d cols starting %s",
		grid.Name(), scene.Days, scene.Rows, scene.Cols, start.Format("2006-01-02"))
}

// generate builds a cube whose land pixels follow a winter dip in Tb that is
// deeper at 37H, the scattering signature the SWE proxy relies on.
func generate(s Scene) (*tb.Product, error) {
	if s.Rows < 1 || s.Cols < 1 || s.Days < 1 {
		return nil, fmt.Errorf("scene must have positive rows, cols and days")
	}
	t, err := domain.NewTransformFor(s.Grid)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(s.Seed))

	depth := 25.0
	if s.Channel == domain.Channel37H {
		depth = 60.0
	}

	cube := domain.NewCube(s.Days, s.Rows, s.Cols)
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			ocean := c < s.OceanCols
			// later melt toward the bottom rows
			peak := 150.0 + 40.0*float64(r)/float64(s.Rows)
			for d := 0; d < s.Days; d++ {
				var v float64
				if ocean {
					v = 160 + rng.NormFloat64()
				} else {
					day := float64(s.Start.AddDate(0, 0, d).YearDay())
					snow := math.Max(0, math.Cos(2*math.Pi*(day-peak+365/2.0)/365))
					v = 265 - depth*snow + 2*rng.NormFloat64()
				}
				if rng.Float64() < s.MissingPct {
					v = domain.Missing()
				}
				cube.Set(d, r, c, v)
			}
		}
	}

	xs := make([]float64, s.Cols)
	ys := make([]float64, s.Rows)
	for c := range xs {
		xs[c], _ = t.GridToMap(0, float64(c))
	}
	for r := range ys {
		_, ys[r] = t.GridToMap(float64(r), 0)
	}
	return &tb.Product{Grid: s.Grid, Cube: cube, X: xs, Y: ys, Start: s.Start}, nil
}
