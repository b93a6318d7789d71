// Command swe-subset cuts downloaded 19H/37H files to a geographic rectangle
// with ncks and joins each channel along time with ncrcat.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"go.ngs.io/swe-api/internal/adapter/nco"
	"go.ngs.io/swe-api/internal/config"
	"go.ngs.io/swe-api/internal/domain"
	"go.ngs.io/swe-api/internal/observability"
	"go.ngs.io/swe-api/internal/usecase"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags
	bbox := flag.String("bbox", "", "ul_lat,ul_lon,lr_lat,lr_lon (required)")
	highRes := flag.Bool("high-res", false, "Inputs are on the 6.25/3.125 km grids")
	tb19 := flag.String("tb19", "", "Comma-separated 19H files in time order")
	tb37 := flag.String("tb37", "", "Comma-separated 37H files in time order")
	outDir := flag.String("out", cfg.OutputDir, "Output directory")
	varName := flag.String("var", "TB", "Variable to keep")
	planOnly := flag.Bool("plan", false, "Print the projected windows and exit")
	flag.Parse()

	zl, err := observability.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	ul, lr, err := domain.ParseCorners(*bbox)
	if err != nil {
		logger.Fatalf("Invalid -bbox: %v", err)
	}
	window := usecase.WindowRequest{UpperLeft: ul, LowerRight: lr, HighRes: *highRes}

	var result any
	if *planOnly {
		if result, err = usecase.PlanWindows(window); err != nil {
			logger.Fatalf("Failed to plan windows: %v", err)
		}
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		uc := usecase.NewSubsetUseCase(nco.NewRunner(cfg.NCOBinDir, logger.Named("nco")), logger)
		result, err = uc.Execute(ctx, usecase.SubsetRequest{
			Window: window,
			Inputs: map[string][]string{
				domain.Channel19H: config.SplitList(*tb19),
				domain.Channel37H: config.SplitList(*tb37),
			},
			OutputDir: *outDir,
			VarName:   *varName,
		})
		if err != nil {
			logger.Fatalf("Subset failed: %v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatalf("Failed to print result: %v", err)
	}
}
