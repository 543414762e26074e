// Package metrics exposes SharkGuard import and report telemetry to Prometheus.
package metrics

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

const namespace = "sharkguard"

// Label values for the rows counter.
const (
	TableSharks  = "sharks"
	TableBeaches = "beaches"
	TableCatches = "catches"
)

// ImportMetrics records ingestion pipeline and report cache metrics.
// It implements core.MetricsRecorder and prometheus.Collector.
type ImportMetrics struct {
	registry *prometheus.Registry

	importsStarted     prometheus.Counter
	importsFinished    *prometheus.CounterVec
	importsInFlight    prometheus.Gauge
	importDuration     *prometheus.HistogramVec
	stageDuration      *prometheus.HistogramVec
	rowsAdded          *prometheus.CounterVec
	reportCacheLookups *prometheus.CounterVec
}

var _ core.MetricsRecorder = (*ImportMetrics)(nil)

// NewImportMetrics creates the import metrics and registers them with registry.
func NewImportMetrics(registry *prometheus.Registry) (*ImportMetrics, error) {
	m := &ImportMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register import metrics: %w", err)
	}
	return m, nil
}

// NewDefaultRegistry returns a registry with the Go runtime and process
// collectors plus the import metrics.
func NewDefaultRegistry() (*prometheus.Registry, *ImportMetrics, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, nil, fmt.Errorf("failed to register process collector: %w", err)
	}
	m, err := NewImportMetrics(registry)
	if err != nil {
		return nil, nil, err
	}
	return registry, m, nil
}

func (m *ImportMetrics) initMetrics() {
	m.importsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_started_total",
		Help:      "Total number of catch CSV imports started",
	})
	m.importsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_finished_total",
			Help:      "Total number of catch CSV imports finished, by status and error kind",
		},
		[]string{"status", "kind"},
	)
	m.importsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "imports_in_flight",
		Help:      "Number of imports currently running",
	})
	m.importDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Time taken by a whole import",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"status"},
	)
	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_stage_duration_seconds",
			Help:      "Time taken by each import stage",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"phase"},
	)
	m.rowsAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_added_total",
			Help:      "Total number of rows created by imports, by table",
		},
		[]string{"table"},
	)
	m.reportCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_lookups_total",
			Help:      "Aggregate report cache lookups, by result",
		},
		[]string{"result"},
	)
}

// Describe implements the Collector interface
func (m *ImportMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.importsStarted.Describe(ch)
	m.importsFinished.Describe(ch)
	m.importsInFlight.Describe(ch)
	m.importDuration.Describe(ch)
	m.stageDuration.Describe(ch)
	m.rowsAdded.Describe(ch)
	m.reportCacheLookups.Describe(ch)
}

// Collect implements the Collector interface
func (m *ImportMetrics) Collect(ch chan<- prometheus.Metric) {
	m.importsStarted.Collect(ch)
	m.importsFinished.Collect(ch)
	m.importsInFlight.Collect(ch)
	m.importDuration.Collect(ch)
	m.stageDuration.Collect(ch)
	m.rowsAdded.Collect(ch)
	m.reportCacheLookups.Collect(ch)
}

// ImportStarted counts a new import.
func (m *ImportMetrics) ImportStarted() {
	m.importsStarted.Inc()
	m.importsInFlight.Inc()
}

// ImportFinished records the outcome and total duration of an import.
func (m *ImportMetrics) ImportFinished(status core.ImportStatus, kind core.ErrorKind, d time.Duration) {
	k := string(kind)
	if k == "" {
		k = "none"
	}
	m.importsInFlight.Dec()
	m.importsFinished.WithLabelValues(string(status), k).Inc()
	m.importDuration.WithLabelValues(string(status)).Observe(d.Seconds())
}

// StageCompleted records how long the stage ending in phase took.
func (m *ImportMetrics) StageCompleted(phase core.ImportPhase, d time.Duration) {
	m.stageDuration.WithLabelValues(string(phase)).Observe(d.Seconds())
}

// RowsAdded counts rows created by a successful import.
func (m *ImportMetrics) RowsAdded(sharks, beaches, catches int64) {
	m.rowsAdded.WithLabelValues(TableSharks).Add(float64(sharks))
	m.rowsAdded.WithLabelValues(TableBeaches).Add(float64(beaches))
	m.rowsAdded.WithLabelValues(TableCatches).Add(float64(catches))
}

// ReportCacheLookup counts a hit or miss on the aggregate report cache.
func (m *ImportMetrics) ReportCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
		Registry:      registry,
	})
}
