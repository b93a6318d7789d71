package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go.ngs.io/swe-api/internal/adapter/classify"
	"go.ngs.io/swe-api/internal/adapter/store/csv"
	"go.ngs.io/swe-api/internal/domain"
	"go.ngs.io/swe-api/internal/observability"
	"go.ngs.io/swe-api/internal/usecase"
)

// Handler handles HTTP requests for grid conversions and SWE processing.
type Handler struct {
	pipelineUC *usecase.PipelineUseCase
	sampleUC   *usecase.SampleUseCase
	exports    *csv.Store
	metrics    *observability.Metrics
	logger     *zap.SugaredLogger
	dataDir    string
	outputDir  string
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg RouterConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		pipelineUC: cfg.Pipeline,
		sampleUC:   cfg.Sample,
		exports:    cfg.Exports,
		metrics:    cfg.Metrics,
		logger:     logger,
		dataDir:    cfg.DataDir,
		outputDir:  cfg.OutputDir,
	}
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrShapeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRegionUnsupported),
		errors.Is(err, domain.ErrPartitionSize),
		errors.Is(err, domain.ErrUnsmoothableSeries),
		errors.Is(err, classify.ErrTooFewValues):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) countTransform(op string) {
	if h.metrics != nil {
		h.metrics.TransformRequests.WithLabelValues(op).Inc()
	}
}

// queryFloats parses required float query parameters in order.
func queryFloats(c *gin.Context, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		s := c.Query(name)
		if s == "" {
			return nil, fmt.Errorf("%s parameter is required", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", name, err)
		}
		out[i] = v
	}
	return out, nil
}

// transformFor builds the transform named by the :grid path parameter and
// parses the query parameters of the conversion.
func (h *Handler) transformFor(c *gin.Context, names ...string) (*domain.Transform, []float64, bool) {
	t, err := domain.NewTransform(c.Param("grid"))
	if err != nil {
		h.fail(c, statusFor(err), err)
		return nil, nil, false
	}
	vals, err := queryFloats(c, names...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return t, vals, true
}

// GetGridFromGeographic handles GET /v1/ease2/:grid/grid.
func (h *Handler) GetGridFromGeographic(c *gin.Context) {
	t, v, ok := h.transformFor(c, "lat", "lon")
	if !ok {
		return
	}
	if v[0] < -90 || v[0] > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude must be between -90 and 90"})
		return
	}
	h.countTransform("geographic_to_grid")
	row, col := t.GeographicToGrid(v[0], v[1])
	c.JSON(http.StatusOK, gin.H{"grid": t.Grid().Name(), "cell": domain.GridCell{Row: row, Col: col}})
}

// GetGeographicFromGrid handles GET /v1/ease2/:grid/geographic.
func (h *Handler) GetGeographicFromGrid(c *gin.Context) {
	t, v, ok := h.transformFor(c, "row", "col")
	if !ok {
		return
	}
	h.countTransform("grid_to_geographic")
	lat, lon := t.GridToGeographic(v[0], v[1])
	c.JSON(http.StatusOK, gin.H{"grid": t.Grid().Name(), "point": domain.GeoPoint{Lat: lat, Lon: lon}})
}

// GetMapFromGrid handles GET /v1/ease2/:grid/map.
func (h *Handler) GetMapFromGrid(c *gin.Context) {
	t, v, ok := h.transformFor(c, "row", "col")
	if !ok {
		return
	}
	h.countTransform("grid_to_map")
	x, y := t.GridToMap(v[0], v[1])
	c.JSON(http.StatusOK, gin.H{"grid": t.Grid().Name(), "map": domain.MapPoint{X: x, Y: y}})
}

// GetGridFromMap handles GET /v1/ease2/:grid/cell.
func (h *Handler) GetGridFromMap(c *gin.Context) {
	t, v, ok := h.transformFor(c, "x", "y")
	if !ok {
		return
	}
	h.countTransform("map_to_grid")
	row, col := t.MapToGrid(v[0], v[1])
	c.JSON(http.StatusOK, gin.H{"grid": t.Grid().Name(), "cell": domain.GridCell{Row: row, Col: col}})
}

// GetWindow handles GET /v1/ease2/window.
func (h *Handler) GetWindow(c *gin.Context) {
	v, err := queryFloats(c, "ul_lat", "ul_lon", "lr_lat", "lr_lon")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	highRes := false
	if s := c.Query("high_res"); s != "" {
		if highRes, err = strconv.ParseBool(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid high_res: %v", err)})
			return
		}
	}

	plan, err := usecase.PlanWindows(usecase.WindowRequest{
		UpperLeft:  domain.GeoPoint{Lat: v[0], Lon: v[1]},
		LowerRight: domain.GeoPoint{Lat: v[2], Lon: v[3]},
		HighRes:    highRes,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			// Everything else PlanWindows rejects is request validation.
			status = http.StatusBadRequest
		}
		h.fail(c, status, err)
		return
	}
	h.countTransform("window")
	c.JSON(http.StatusOK, plan)
}

// PostJenks handles POST /v1/classify/jenks.
func (h *Handler) PostJenks(c *gin.Context) {
	var req usecase.JenksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := usecase.NaturalBreaks(req)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessRequest is the body of POST /v1/swe/process. File names are resolved
// under the data and output directories.
type ProcessRequest struct {
	TB19            []string     `json:"tb19"`
	TB37            []string     `json:"tb37"`
	Output          string       `json:"output"`
	HighRes         bool         `json:"high_res"`
	Workers         int          `json:"workers"`
	MaskDay         *int         `json:"mask_day"`
	MaskClasses     int          `json:"mask_classes"`
	DifferenceFirst bool         `json:"difference_first"`
	MeltCSV         string       `json:"melt_csv"`
	MaskCSV         string       `json:"mask_csv"`
	SummerCSV       string       `json:"summer_csv"`
	Window          *WindowQuery `json:"window"`
}

// WindowQuery is a geographic rectangle in a request body.
type WindowQuery struct {
	ULLat float64 `json:"ul_lat"`
	ULLon float64 `json:"ul_lon"`
	LRLat float64 `json:"lr_lat"`
	LRLon float64 `json:"lr_lon"`
}

// within joins name under root, dropping any parent-directory escapes.
func within(root, name string) string {
	return filepath.Join(root, filepath.Clean("/"+name))
}

// exportName keeps only the base name of a CSV export.
func exportName(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

// PostProcess handles POST /v1/swe/process.
func (h *Handler) PostProcess(c *gin.Context) {
	if h.pipelineUC == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "processing is not configured"})
		return
	}
	var body ProcessRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}

	req := usecase.PipelineRequest{
		HighRes:         body.HighRes,
		Workers:         body.Workers,
		MaskDay:         body.MaskDay,
		MaskClasses:     body.MaskClasses,
		DifferenceFirst: body.DifferenceFirst,
	}
	req.MeltCSV = exportName(body.MeltCSV)
	req.MaskCSV = exportName(body.MaskCSV)
	req.SummerCSV = exportName(body.SummerCSV)
	for _, name := range body.TB19 {
		req.TB19 = append(req.TB19, within(h.dataDir, name))
	}
	for _, name := range body.TB37 {
		req.TB37 = append(req.TB37, within(h.dataDir, name))
	}
	if body.Output != "" {
		req.Output = within(h.outputDir, body.Output)
	}
	if body.Window != nil {
		req.Window = &usecase.WindowRequest{
			UpperLeft:  domain.GeoPoint{Lat: body.Window.ULLat, Lon: body.Window.ULLon},
			LowerRight: domain.GeoPoint{Lat: body.Window.LRLat, Lon: body.Window.LRLon},
			HighRes:    body.HighRes,
		}
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.pipelineUC.Execute(c.Request.Context(), req)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSample handles GET /v1/swe/sample.
func (h *Handler) GetSample(c *gin.Context) {
	if h.sampleUC == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sampling is not configured"})
		return
	}
	file := c.Query("file")
	if file == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file parameter is required"})
		return
	}
	v, err := queryFloats(c, "lat", "lon")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := usecase.SampleRequest{File: within(h.outputDir, file), Lat: v[0], Lon: v[1]}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.sampleUC.Execute(req)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMeltReport handles GET /v1/swe/melt/:name.
func (h *Handler) GetMeltReport(c *gin.Context) {
	if h.exports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "exports are not configured"})
		return
	}
	name := exportName(c.Param("name"))
	if _, err := os.Stat(h.exports.Path(name)); errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("export %q not found", name)})
		return
	}
	report, err := usecase.LoadMeltReport(h.exports, name)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
