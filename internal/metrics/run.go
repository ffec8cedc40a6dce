package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalog_query"

// Run holds the Prometheus metrics of one pipeline run on its own registry.
// All methods are safe on a nil *Run.
type Run struct {
	registry *prometheus.Registry

	catalogRequests *prometheus.CounterVec
	catalogDuration *prometheus.HistogramVec
	catalogRecords  prometheus.Counter

	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	scoreAverage  *prometheus.GaugeVec

	scrapes *prometheus.CounterVec
}

// NewRun creates and registers the run metrics.
func NewRun() *Run {
	m := &Run{
		registry: prometheus.NewRegistry(),

		catalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_requests_total",
			Help:      "Catalog API requests",
		}, []string{"op", "status"}),

		catalogDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_request_duration_seconds",
			Help:      "Catalog API request duration",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),

		catalogRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_records_total",
			Help:      "Catalog records received from search pages",
		}),

		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Compliance checker invocations",
		}, []string{"test", "status"}),

		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Compliance checker invocation duration",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"test"}),

		scoreAverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_score_average",
			Help:      "Mean score_percent per test for the run",
		}, []string{"test"}),

		scrapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the metrics endpoint",
		}, []string{"path", "status"}),
	}

	m.registry.MustRegister(
		m.catalogRequests, m.catalogDuration, m.catalogRecords,
		m.checksTotal, m.checkDuration, m.scoreAverage,
		m.scrapes,
	)
	return m
}

// Registry returns the registry the run metrics are registered on.
func (m *Run) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCatalogRequest records one catalog API call.
func (m *Run) ObserveCatalogRequest(op, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.catalogRequests.WithLabelValues(op, status).Inc()
	m.catalogDuration.WithLabelValues(op).Observe(d.Seconds())
}

// AddCatalogRecords counts records received from a search page.
func (m *Run) AddCatalogRecords(n int) {
	if m == nil {
		return
	}
	m.catalogRecords.Add(float64(n))
}

// ObserveCheck records one checker invocation. status is "success" or "failure".
func (m *Run) ObserveCheck(test, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(test, status).Inc()
	m.checkDuration.WithLabelValues(test).Observe(d.Seconds())
}

// SetScoreAverage publishes the mean score of a test.
func (m *Run) SetScoreAverage(test string, v float64) {
	if m == nil {
		return
	}
	m.scoreAverage.WithLabelValues(test).Set(v)
}
