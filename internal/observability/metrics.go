package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rainfall"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// reshaping pipeline and the read-side API.
type Metrics struct {
	RecordsRead   prometheus.Counter
	YearsBuilt    prometheus.Counter
	EmptyYears    prometheus.Counter
	BuildDuration prometheus.Histogram
	PipelineReady prometheus.Gauge

	SinkWrites       *prometheus.CounterVec // labels: sink, outcome={success,error}
	ArtifactsWritten *prometheus.CounterVec // labels: kind={json,png,xlsx}

	// Read-side metrics.
	DatasetCache *prometheus.CounterVec // labels: result={hit,miss}
	HTTPRequests *prometheus.CounterVec // labels: route, code
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsRead,
		m.YearsBuilt,
		m.EmptyYears,
		m.BuildDuration,
		m.PipelineReady,
		m.SinkWrites,
		m.ArtifactsWritten,
		m.DatasetCache,
		m.HTTPRequests,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Total rainfall records read from source files.",
		}),
		YearsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "years_built_total",
			Help:      "Total year tables produced by the reshaper.",
		}),
		EmptyYears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_years_total",
			Help:      "Year tables produced with no readings.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete extract-reshape-load run.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_ready",
			Help:      "1 once a dataset has been built and stored, 0 otherwise.",
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Dataset writes by sink and outcome.",
		}, []string{"sink", "outcome"}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Rendered artifacts written by kind.",
		}, []string{"kind"}),
		DatasetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_cache_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}
}
