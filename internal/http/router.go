package http

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go.ngs.io/swe-api/internal/adapter/store/csv"
	"go.ngs.io/swe-api/internal/observability"
	"go.ngs.io/swe-api/internal/usecase"
)

// RouterConfig carries the dependencies of the HTTP layer.
type RouterConfig struct {
	Pipeline       *usecase.PipelineUseCase
	Sample         *usecase.SampleUseCase
	Exports        *csv.Store
	Metrics        *observability.Metrics
	Logger         *zap.SugaredLogger
	DataDir        string
	OutputDir      string
	AllowedOrigins []string
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(cfg RouterConfig) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	// Default to allow all origins if none are configured.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 && !slices.Contains(cfg.AllowedOrigins, "*") {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(cfg)

	// API v1 routes.
	v1 := router.Group("/v1")

	// EASE-Grid 2.0 coordinate conversions.
	ease2 := v1.Group("/ease2")
	ease2.GET("/window", handler.GetWindow)
	ease2.GET("/:grid/grid", handler.GetGridFromGeographic)
	ease2.GET("/:grid/geographic", handler.GetGeographicFromGrid)
	ease2.GET("/:grid/map", handler.GetMapFromGrid)
	ease2.GET("/:grid/cell", handler.GetGridFromMap)

	// Classification.
	v1.POST("/classify/jenks", handler.PostJenks)

	// Processing.
	v1.POST("/swe/process", handler.PostProcess)
	v1.GET("/swe/sample", handler.GetSample)
	v1.GET("/swe/melt/:name", handler.GetMeltReport)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
