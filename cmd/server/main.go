// Package main provides the SWE API HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"go.ngs.io/swe-api/internal/adapter/store/csv"
	"go.ngs.io/swe-api/internal/adapter/store/tb"
	"go.ngs.io/swe-api/internal/config"
	httpHandler "go.ngs.io/swe-api/internal/http"
	"go.ngs.io/swe-api/internal/observability"
	"go.ngs.io/swe-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("swe-api version %s\n", version)
		return
	}

	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := observability.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	logger.Infow("Starting SWE API server",
		"version", version,
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"output_dir", cfg.OutputDir,
		"workers", cfg.Workers,
	)

	metrics := observability.NewMetrics()

	// Initialize stores.
	outputCfg := tb.DefaultConfig()
	outputCfg.DataVarName = "SWE"
	inputs := tb.NewStore(tb.DefaultConfig())
	outputs := tb.NewStore(outputCfg)
	exports := csv.NewStore(cfg.OutputDir)

	// Initialize use case.
	engine := usecase.NewSmoothingEngine(cfg.Workers, metrics, logger.Named("smoothing"))
	pipelineUC := usecase.NewPipelineUseCase(inputs, outputs, exports, engine, metrics, logger.Named("pipeline"))

	// Setup router.
	router := httpHandler.SetupRouter(httpHandler.RouterConfig{
		Pipeline:       pipelineUC,
		Sample:         usecase.NewSampleUseCase(outputs),
		Exports:        exports,
		Metrics:        metrics,
		Logger:         logger.Named("http"),
		DataDir:        cfg.DataDir,
		OutputDir:      cfg.OutputDir,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Infof("Server listening on %s", addr)
	logger.Infof("Health check: http://localhost:%s/health", cfg.Port)

	if err := router.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("SWE API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  swe-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES (also read from .env):")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  DATA_DIR                Input Tb directory (default: ./data)")
	fmt.Println("  OUTPUT_DIR              Output directory (default: ./output)")
	fmt.Println("  WORKERS                 Smoothing workers (default: number of CPUs)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println("  LOG_DEVELOPMENT         Human-readable console logs (default: false)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                        Health check")
	fmt.Println("  GET  /metrics                       Prometheus metrics")
	fmt.Println("  GET  /v1/ease2/:grid/grid           Geographic -> grid")
	fmt.Println("  GET  /v1/ease2/:grid/geographic     Grid -> geographic")
	fmt.Println("  GET  /v1/ease2/:grid/map            Grid -> map meters")
	fmt.Println("  GET  /v1/ease2/:grid/cell           Map meters -> grid")
	fmt.Println("  GET  /v1/ease2/window               Subsetting windows for a rectangle")
	fmt.Println("  POST /v1/classify/jenks             Natural-breaks classification")
	fmt.Println("  POST /v1/swe/process                Run the SWE pipeline")
	fmt.Println("  GET  /v1/swe/sample                 Interpolated series at a point")
	fmt.Println()
}
