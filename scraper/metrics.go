package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "booklist"
	metricsSubsystem = "collector"
)

// Metrics holds the collector's Prometheus series on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	itemsScraped    prometheus.Counter
	itemsSkipped    *prometheus.CounterVec
	pages           prometheus.Counter
	lastPage        prometheus.Gauge
	errors          *prometheus.CounterVec
}

// NewMetrics registers every collector series on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		}
	}

	return &Metrics{
		Registry: registry,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts(opts("requests_total", "List page requests by phase (started, completed).")),
			[]string{"phase"},
		),
		requestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Latency of successful list page requests.",
			Buckets:   prometheus.DefBuckets,
		}),
		itemsScraped: factory.NewCounter(
			prometheus.CounterOpts(opts("items_scraped_total", "Records extracted and handed to the pipeline.")),
		),
		itemsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts(opts("items_skipped_total", "List items skipped during extraction, by reason.")),
			[]string{"reason"},
		),
		pages: factory.NewCounter(
			prometheus.CounterOpts(opts("pages_total", "List pages that yielded at least one item.")),
		),
		lastPage: factory.NewGauge(
			prometheus.GaugeOpts(opts("last_page", "Ordinal of the last page that yielded items.")),
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts(opts("errors_total", "Fatal transport errors by type.")),
			[]string{"error_type"},
		),
	}
}

// IncRequest counts one request in the given phase.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(phase).Inc()
}

// ObserveDuration records the latency of one request.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.Observe(d.Seconds())
}

// IncItems counts one record handed to the pipeline.
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.itemsScraped.Inc()
}

// IncSkipped counts one skipped item.
func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.itemsSkipped.WithLabelValues(reason).Inc()
}

// PageDone counts a page that yielded items and remembers its ordinal.
func (m *Metrics) PageDone(page int) {
	if m == nil {
		return
	}
	m.pages.Inc()
	m.lastPage.Set(float64(page))
}

// IncError counts one transport error.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errorType).Inc()
}
