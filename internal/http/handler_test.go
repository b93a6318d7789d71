package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/swe-api/internal/adapter/store/csv"
	"go.ngs.io/swe-api/internal/adapter/store/tb"
	"go.ngs.io/swe-api/internal/domain"
	httpHandler "go.ngs.io/swe-api/internal/http"
	"go.ngs.io/swe-api/internal/observability"
	"go.ngs.io/swe-api/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router    *gin.Engine
	dataDir   string
	outputDir string
	metrics   *observability.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		dataDir:   t.TempDir(),
		outputDir: t.TempDir(),
		metrics:   observability.NewMetricsForTesting(),
	}
	outCfg := tb.DefaultConfig()
	outCfg.DataVarName = "SWE"
	exports := csv.NewStore(env.outputDir)
	pipeline := usecase.NewPipelineUseCase(
		tb.NewStore(tb.DefaultConfig()),
		tb.NewStore(outCfg),
		exports,
		usecase.NewSmoothingEngine(2, env.metrics, nil),
		env.metrics,
		nil,
	)
	env.router = httpHandler.SetupRouter(httpHandler.RouterConfig{
		Pipeline:  pipeline,
		Sample:    usecase.NewSampleUseCase(tb.NewStore(outCfg)),
		Exports:   exports,
		Metrics:   env.metrics,
		DataDir:   env.dataDir,
		OutputDir: env.outputDir,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGridFromGeographic_NorthPole(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/ease2/EASE2_N25km/grid?lat=90&lon=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "EASE2_N25km", body["grid"])
	cell := body["cell"].(map[string]any)
	assert.InDelta(t, 359.5, cell["row"], 1e-6)
	assert.InDelta(t, 359.5, cell["col"], 1e-6)
}

func TestGridConversions_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/ease2/T25km/geographic?row=100&col=200", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	point := decode(t, rec)["point"].(map[string]any)

	rec = env.do(t, http.MethodGet, "/v1/ease2/T25km/map?row=100&col=200", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)["map"].(map[string]any)

	rec = env.do(t, http.MethodGet, "/v1/ease2/T25km/cell?x="+num(m["x"])+"&y="+num(m["y"]), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cell := decode(t, rec)["cell"].(map[string]any)
	assert.InDelta(t, 100, cell["row"], 1e-6)
	assert.InDelta(t, 200, cell["col"], 1e-6)

	rec = env.do(t, http.MethodGet, "/v1/ease2/T25km/grid?lat="+num(point["lat"])+"&lon="+num(point["lon"]), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cell = decode(t, rec)["cell"].(map[string]any)
	assert.InDelta(t, 100, cell["row"], 1e-6)
	assert.InDelta(t, 200, cell["col"], 1e-6)
}

func num(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestGridConversions_BadInput(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name   string
		target string
	}{
		{"unknown family", "/v1/ease2/X25km/grid?lat=10&lon=10"},
		{"unknown resolution", "/v1/ease2/N10km/grid?lat=10&lon=10"},
		{"missing lon", "/v1/ease2/N25km/grid?lat=10"},
		{"bad row", "/v1/ease2/N25km/map?row=abc&col=1"},
		{"latitude out of range", "/v1/ease2/N25km/grid?lat=100&lon=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestGetWindow(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/ease2/window?ul_lat=70&ul_lon=-150&lr_lat=60&lr_lon=-140&high_res=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "N", body["family"])
	channels := body["channels"].([]any)
	require.Len(t, channels, 2)
	assert.Equal(t, "EASE2_N3.125km", channels[1].(map[string]any)["grid"])

	rec = env.do(t, http.MethodGet, "/v1/ease2/window?ul_lat=45&ul_lon=0&lr_lat=42&lr_lon=5", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/ease2/window?ul_lat=70&ul_lon=-150&lr_lat=60", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostJenks(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/classify/jenks", map[string]any{
		"values":        []float64{1, 2, 3, 10, 11, 12, 50, 51, 52},
		"gvf_threshold": 0.99,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(3), body["classes"])
	assert.Len(t, body["breaks"], 4)

	rec = env.do(t, http.MethodPost, "/v1/classify/jenks", map[string]any{"values": []float64{1, 1, 1}, "gvf_threshold": 0.5})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/classify/jenks", map[string]any{"values": []float64{1, 2}, "gvf_threshold": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func writeConstant(t *testing.T, path, grid string, nt, rows, cols int, v float64) {
	t.Helper()
	g, err := domain.ParseGridName(grid)
	require.NoError(t, err)
	c := domain.NewCube(nt, rows, cols)
	for i := range c.Data {
		c.Data[i] = v
	}
	xs := make([]float64, cols)
	for i := range xs {
		xs[i] = float64(i) * 25000
	}
	ys := make([]float64, rows)
	for i := range ys {
		ys[i] = -float64(i) * 25000
	}
	p := &tb.Product{Grid: g, Cube: c, X: xs, Y: ys, Start: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, tb.NewStore(tb.DefaultConfig()).Write(path, p))
}

func TestPostProcess(t *testing.T) {
	env := newTestEnv(t)
	writeConstant(t, filepath.Join(env.dataDir, "tb19.nc"), "EASE2_N25km", 7, 3, 4, 250)
	writeConstant(t, filepath.Join(env.dataDir, "tb37.nc"), "EASE2_N25km", 7, 3, 4, 240)

	rec := env.do(t, http.MethodPost, "/v1/swe/process", map[string]any{
		"tb19":   []string{"tb19.nc"},
		"tb37":   []string{"../tb37.nc"}, // stays inside the data directory
		"output": "swe.nc",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "EASE2_N25km", body["grid"])
	assert.Equal(t, filepath.Join(env.outputDir, "swe.nc"), body["output"])
	assert.Equal(t, "2016-01-01", body["start"])

	outCfg := tb.DefaultConfig()
	outCfg.DataVarName = "SWE"
	out, err := tb.NewStore(outCfg).Load(filepath.Join(env.outputDir, "swe.nc"), tb.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, [3]int{7, 2, 3}, out.Cube.Shape())
	for i, v := range out.Cube.Data {
		assert.InDelta(t, 10, v, 1e-4, "index %d", i)
	}

	// the writer's x/y axes start at 0 m, which is the N grid's pole
	rec = env.do(t, http.MethodGet, "/v1/swe/sample?file=swe.nc&lat=90&lon=0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	values := decode(t, rec)["values"].([]any)
	require.Len(t, values, 7)
	assert.InDelta(t, 10, values[0], 1e-4)

	rec = env.do(t, http.MethodGet, "/v1/swe/sample?file=swe.nc&lat=60&lon=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/swe/sample?lat=60&lon=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostProcess_Errors(t *testing.T) {
	env := newTestEnv(t)
	writeConstant(t, filepath.Join(env.dataDir, "a.nc"), "EASE2_N25km", 5, 2, 3, 250)

	rec := env.do(t, http.MethodPost, "/v1/swe/process", map[string]any{"tb19": []string{"a.nc"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/swe/process", map[string]any{
		"tb19": []string{"a.nc"}, "tb37": []string{"a.nc"}, "output": "o.nc", "workers": 8,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/swe/process", map[string]any{
		"tb19": []string{"missing.nc"}, "tb37": []string{"a.nc"}, "output": "o.nc",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMeltReport(t *testing.T) {
	env := newTestEnv(t)
	writeConstant(t, filepath.Join(env.dataDir, "tb19.nc"), "EASE2_N25km", 7, 3, 4, 250)
	writeConstant(t, filepath.Join(env.dataDir, "tb37.nc"), "EASE2_N25km", 7, 3, 4, 240)

	rec := env.do(t, http.MethodPost, "/v1/swe/process", map[string]any{
		"tb19":       []string{"tb19.nc"},
		"tb37":       []string{"tb37.nc"},
		"output":     "swe.nc",
		"melt_csv":   "../melt.csv",
		"summer_csv": "summer.csv",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, filepath.Join(env.outputDir, "melt.csv"), body["melt_csv"])
	summer := body["summer"].(map[string]any)
	assert.Equal(t, []any{float64(2016)}, summer["years"])
	assert.Equal(t, filepath.Join(env.outputDir, "summer.csv"), summer["change_csv"])

	rec = env.do(t, http.MethodGet, "/v1/swe/melt/melt.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode(t, rec)
	assert.Len(t, report["counts"], 7)
	byYear := report["by_year"].(map[string]any)
	assert.Len(t, byYear["2016"], 7)

	rec = env.do(t, http.MethodGet, "/v1/swe/melt/absent.csv", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
