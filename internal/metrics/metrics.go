package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kdvd/internal/catalog"
)

// Open results.
const (
	ResultOK                 = "ok"
	ResultManifestUnreadable = "manifest_unreadable"
	ResultError              = "error"
)

// Selection results.
const (
	SelectionSelected    = "selected"
	SelectionUnavailable = "unavailable"
)

// Metrics holds the daemon's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	discsOpened    *prometheus.CounterVec
	streamsCatalog *prometheus.GaugeVec
	selections     *prometheus.CounterVec
	openDuration   prometheus.Histogram
	historyEntries prometheus.Gauge
	watcherRunning prometheus.Gauge
}

// New creates the collectors and registers them, with the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		discsOpened: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kdvd_discs_opened_total",
				Help: "Total number of disc open attempts by result",
			},
			[]string{"result"},
		),
		streamsCatalog: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kdvd_streams_cataloged",
				Help: "Streams in the most recently opened disc by format and availability",
			},
			[]string{"format", "available"},
		),
		selections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kdvd_selections_total",
				Help: "Total number of stream selections by format and result",
			},
			[]string{"format", "result"},
		),
		openDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kdvd_open_duration_seconds",
				Help:    "Time to open and catalogue a disc in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
		),
		historyEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kdvd_history_entries",
				Help: "Number of discs recorded in the scan history",
			},
		),
		watcherRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kdvd_drive_watcher_running",
				Help: "1 while the optical drive watcher is active",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordOpen counts an open attempt and observes its duration.
func (m *Metrics) RecordOpen(result string, seconds float64) {
	m.discsOpened.WithLabelValues(result).Inc()
	m.openDuration.Observe(seconds)
}

// SetCatalog replaces the per-format stream gauges with summary.
func (m *Metrics) SetCatalog(summary []catalog.FormatSummary) {
	m.streamsCatalog.Reset()
	for _, s := range summary {
		name := s.Format.String()
		m.streamsCatalog.WithLabelValues(name, "true").Set(float64(s.Available))
		m.streamsCatalog.WithLabelValues(name, "false").Set(float64(s.Total - s.Available))
	}
}

// RecordSelection counts a selection attempt.
func (m *Metrics) RecordSelection(format, result string) {
	m.selections.WithLabelValues(format, result).Inc()
}

// SetHistoryEntries sets the history size gauge.
func (m *Metrics) SetHistoryEntries(n int) {
	m.historyEntries.Set(float64(n))
}

// SetWatcherRunning flips the watcher gauge.
func (m *Metrics) SetWatcherRunning(running bool) {
	if running {
		m.watcherRunning.Set(1)
		return
	}
	m.watcherRunning.Set(0)
}
