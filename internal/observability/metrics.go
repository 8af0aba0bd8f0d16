package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the AMY
// EPW generation pipeline.
type Metrics struct {
	FilesGenerated prometheus.Counter
	UnitFailures   prometheus.Counter
	BatchRunning   prometheus.Gauge

	AdmissionRejects *prometheus.CounterVec // labels: reason={total_missing,consecutive_missing}
	CellsFilled      *prometheus.CounterVec // labels: tier={interpolated,imputed}
	DownloadsTotal   *prometheus.CounterVec // labels: source={isd_lite,tmy}

	UnitDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amy_epw",
			Name:      "files_generated_total",
			Help:      "Total AMY EPW files written.",
		}),
		UnitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amy_epw",
			Name:      "unit_failures_total",
			Help:      "Total station-year units that failed to generate.",
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "amy_epw",
			Name:      "batch_running",
			Help:      "1 while a batch run is active, 0 otherwise.",
		}),
		AdmissionRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amy_epw",
			Name:      "admission_rejects_total",
			Help:      "Raw station-years rejected before reconciliation, by reason.",
		}, []string{"reason"}),
		CellsFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amy_epw",
			Name:      "gap_cells_filled_total",
			Help:      "Missing series cells completed by the fill engine, by tier.",
		}, []string{"tier"}),
		DownloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amy_epw",
			Name:      "downloads_total",
			Help:      "Source files downloaded rather than served from cache, by source.",
		}, []string{"source"}),
		UnitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "amy_epw",
			Name:      "unit_duration_seconds",
			Help:      "Duration of one complete station-year generation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	prometheus.MustRegister(
		m.FilesGenerated,
		m.UnitFailures,
		m.BatchRunning,
		m.AdmissionRejects,
		m.CellsFilled,
		m.DownloadsTotal,
		m.UnitDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilesGenerated:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "amy_epw", Name: "files_generated_total"}),
		UnitFailures:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "amy_epw", Name: "unit_failures_total"}),
		BatchRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "amy_epw", Name: "batch_running"}),
		AdmissionRejects: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "amy_epw", Name: "admission_rejects_total"}, []string{"reason"}),
		CellsFilled:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "amy_epw", Name: "gap_cells_filled_total"}, []string{"tier"}),
		DownloadsTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "amy_epw", Name: "downloads_total"}, []string{"source"}),
		UnitDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "amy_epw", Name: "unit_duration_seconds"}),
	}
}
