package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the SWE service.
type Metrics struct {
	PipelineRuns      *prometheus.CounterVec // labels: outcome={success,error}
	TransformRequests *prometheus.CounterVec // labels: operation
	SmoothingDuration prometheus.Histogram
	SmoothingWorkers  prometheus.Gauge
	PixelsSmoothed    prometheus.Counter
}

func newCollectors() *Metrics {
	return &Metrics{
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swe",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		TransformRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swe",
			Name:      "transform_requests_total",
			Help:      "EASE-Grid 2.0 coordinate conversions by operation.",
		}, []string{"operation"}),
		SmoothingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swe",
			Name:      "smoothing_duration_seconds",
			Help:      "Duration of a full-cube smoothing pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		SmoothingWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swe",
			Name:      "smoothing_workers",
			Help:      "Workers used by the running smoothing pass.",
		}),
		PixelsSmoothed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swe",
			Name:      "pixels_smoothed_total",
			Help:      "Pixel time series passed through the smoothing filter.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(
		m.PipelineRuns,
		m.TransformRequests,
		m.SmoothingDuration,
		m.SmoothingWorkers,
		m.PixelsSmoothed,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}
