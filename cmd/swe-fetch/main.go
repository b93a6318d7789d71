// Command swe-fetch downloads daily NSIDC-0630 19H and 37H files for a date
// range using Earthdata credentials.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"go.ngs.io/swe-api/internal/adapter/nsidc"
	"go.ngs.io/swe-api/internal/config"
	"go.ngs.io/swe-api/internal/domain"
	"go.ngs.io/swe-api/internal/observability"
	"go.ngs.io/swe-api/internal/usecase"
)

const dateLayout = "2006-01-02"

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags
	startStr := flag.String("start", "", "First day, YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "Last day, YYYY-MM-DD (defaults to -start)")
	family := flag.String("family", "N", "Grid family: N, S or T")
	highRes := flag.Bool("high-res", false, "Fetch the 6.25/3.125 km SIR products")
	overwrite := flag.Bool("overwrite", false, "Replace files already on disk")
	outDir := flag.String("out", cfg.DataDir, "Download directory")
	flag.Parse()

	zl, err := observability.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	start, err := time.Parse(dateLayout, *startStr)
	if err != nil {
		logger.Fatalf("Invalid -start: %v", err)
	}
	end := start
	if *endStr != "" {
		if end, err = time.Parse(dateLayout, *endStr); err != nil {
			logger.Fatalf("Invalid -end: %v", err)
		}
	}
	fam := domain.Family(*family)
	if _, err := domain.NewGridDefinition(fam, domain.Res25); err != nil {
		logger.Fatalf("Invalid -family: %v", err)
	}
	if cfg.EarthdataUser == "" {
		logger.Warn("EARTHDATA_USERNAME is not set; downloads will likely be rejected")
	}

	session, err := nsidc.NewSession(cfg.EarthdataUser, cfg.EarthdataPass)
	if err != nil {
		logger.Fatalf("Failed to create session: %v", err)
	}
	base := domain.DefaultFileDescriptor()
	base.Protocol = cfg.NSIDCProtocol
	base.Server = cfg.NSIDCServer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	uc := usecase.NewFetchUseCase(nsidc.NewDownloader(session, *outDir, logger.Named("nsidc")), logger)
	res, err := uc.Execute(ctx, usecase.FetchRequest{
		Start:     start,
		End:       end,
		Family:    fam,
		HighRes:   *highRes,
		Overwrite: *overwrite,
		Base:      base,
	})
	if err != nil {
		logger.Fatalf("Fetch failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Fatalf("Failed to print result: %v", err)
	}
}
