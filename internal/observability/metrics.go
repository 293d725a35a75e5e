package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "water_balance"

// Metrics holds the Prometheus counters, histograms, and gauges for the report service.
type Metrics struct {
	ServiceRunning prometheus.Gauge

	// Refresh cycle metrics.
	Refreshes        *prometheus.CounterVec // labels: outcome={loaded,unchanged,error}
	IngestionErrors  prometheus.Counter
	RefreshDuration  prometheus.Histogram
	RecordsLoaded    prometheus.Gauge
	LatestReportDate prometheus.Gauge // unix seconds of the latest reported day

	// Early-warning metrics.
	HighAlerts         prometheus.Gauge
	AlertsPublished    prometheus.Counter
	AlertPublishErrors prometheus.Counter

	// API metrics.
	HTTPRequests *prometheus.CounterVec // labels: route, code
}

func newMetrics() *Metrics {
	return &Metrics{
		ServiceRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"outcome"}),
		IngestionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_errors_total",
			Help:      "Total failures reading or validating the source workbook.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a source load and table rebuild.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Number of records in the current table.",
		}),
		LatestReportDate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latest_report_date_seconds",
			Help:      "Unix time (UTC midnight) of the most recent reported day.",
		}),
		HighAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "high_alerts",
			Help:      "Ponds in category High on the most recent reported day.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Total early-warning alerts written to the alert topic.",
		}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_publish_errors_total",
			Help:      "Total failed alert publications.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Report API requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ServiceRunning,
		m.Refreshes,
		m.IngestionErrors,
		m.RefreshDuration,
		m.RecordsLoaded,
		m.LatestReportDate,
		m.HighAlerts,
		m.AlertsPublished,
		m.AlertPublishErrors,
		m.HTTPRequests,
	}
}
