// Package metrics tracks per-run Prometheus metrics for the harvester and normalizer.
//
// Each run owns its own registry. Batch jobs have no scrape endpoint, so at the end of
// a run the registry can be written to a node_exporter textfile collector directory.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all pipeline metrics.
	Namespace = "ade_events"
)

// Metrics holds all Prometheus metrics for one pipeline run.
type Metrics struct {
	registry *prometheus.Registry

	// Harvester metrics
	PagesFetched     *prometheus.CounterVec
	RecordsExtracted prometheus.Counter
	RecordsSkipped   prometheus.Counter

	// Normalizer metrics
	RowsRead      prometheus.Counter
	RowsExcluded  prometheus.Counter
	RowsMalformed prometheus.Counter
	RowsWritten   *prometheus.CounterVec
	FieldNulls    *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Shared
	RunDuration *prometheus.GaugeVec
	LastSuccess *prometheus.GaugeVec
	StoreWrites *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}
	m.initHarvestMetrics(factory)
	m.initNormalizeMetrics(factory)
	m.initRunMetrics(factory)

	return m
}

func (m *Metrics) initHarvestMetrics(factory promauto.Factory) {
	m.PagesFetched = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "harvest",
			Name:      "pages_fetched_total",
			Help:      "Pages fetched by kind (index, detail) and outcome",
		},
		[]string{"kind", "status"},
	)

	m.RecordsExtracted = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "harvest",
			Name:      "records_extracted_total",
			Help:      "Event records extracted from detail pages",
		},
	)

	m.RecordsSkipped = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "harvest",
			Name:      "records_skipped_total",
			Help:      "Detail pages skipped because they failed to load or were malformed",
		},
	)
}

func (m *Metrics) initNormalizeMetrics(factory promauto.Factory) {
	m.RowsRead = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "normalize",
			Name:      "rows_read_total",
			Help:      "Raw rows read from the raw stage",
		},
	)

	m.RowsExcluded = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "normalize",
			Name:      "rows_excluded_total",
			Help:      "Rows dropped by the event name exclusion filter",
		},
	)

	m.RowsMalformed = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "normalize",
			Name:      "rows_malformed_total",
			Help:      "Raw rows skipped because the CSV could not be parsed",
		},
	)

	m.RowsWritten = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "normalize",
			Name:      "rows_written_total",
			Help:      "Clean rows written per edition partition",
		},
		[]string{"edition"},
	)

	m.FieldNulls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "normalize",
			Name:      "field_nulls_total",
			Help:      "Clean fields that ended up null, by column",
		},
		[]string{"field"},
	)

	m.StageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "normalize",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each normalization stage",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		},
		[]string{"stage"},
	)
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunDuration = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		},
		[]string{"job"},
	)

	m.LastSuccess = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		},
		[]string{"job"},
	)

	m.StoreWrites = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "store_writes_total",
			Help:      "Blob store writes by stage and outcome",
		},
		[]string{"stage", "status"},
	)
}

// ObserveStage records how long a normalization stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records the wall time of a finished run and, on success, its completion time.
func (m *Metrics) RecordRun(job string, started, finished time.Time, ok bool) {
	m.RunDuration.WithLabelValues(job).Set(finished.Sub(started).Seconds())
	if ok {
		m.LastSuccess.WithLabelValues(job).Set(float64(finished.Unix()))
	}
}

// WriteTextfile writes the registry in the text exposition format for the
// node_exporter textfile collector. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
