package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sounding_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for sounding downloads.
type Metrics struct {
	registry *prometheus.Registry

	Requests      *prometheus.CounterVec // labels: outcome={ok,unavailable,error}
	FetchDuration prometheus.Histogram
	Levels        prometheus.Histogram
	RowsDropped   prometheus.Counter
	PublishErrors *prometheus.CounterVec // labels: sink={kafka,s3}
	BatchRunning  prometheus.Gauge
	LastRunTime   prometheus.Gauge
}

// NewMetrics creates all metrics on a private registry. A command runs once
// and exits, so the registry is exported with WriteTextfile instead of being
// scraped.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Sounding requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one archive page download.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		Levels: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "levels_per_sounding",
			Help:      "Number of table rows written per sounding.",
			Buckets:   []float64{10, 25, 50, 75, 100, 150, 200, 300},
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Table lines dropped because their field count did not match the header.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed publications to optional sinks.",
		}, []string{"sink"}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_running",
			Help:      "1 while a batch run is in progress.",
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run finished.",
		}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.FetchDuration,
		m.Levels,
		m.RowsDropped,
		m.PublishErrors,
		m.BatchRunning,
		m.LastRunTime,
	)

	return m
}

// NewMetricsForTesting returns an independent Metrics instance. Every call
// already gets its own registry; the alias keeps test call sites explicit.
func NewMetricsForTesting() *Metrics {
	return NewMetrics()
}

// Gatherer exposes the registry for tests and exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format to path,
// for pickup by the node_exporter textfile collector. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
