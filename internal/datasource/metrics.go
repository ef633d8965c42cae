package datasource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"

	ReasonMissingID   = "missing_id"
	ReasonDuplicateID = "duplicate_id"
)

var (
	// LoadsTotal counts source reads by source and outcome.
	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanah_source_loads_total",
		Help: "Total number of record source reads by outcome",
	}, []string{"source", "status"})

	// SkippedTotal counts documents dropped during normalization.
	SkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanah_records_skipped_total",
		Help: "Total number of stored documents skipped while loading",
	}, []string{"reason"})

	// FallbacksTotal counts loads served by the bundled dataset.
	FallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tanah_source_fallbacks_total",
		Help: "Total number of loads that fell back to the bundled dataset",
	})

	// LoadDuration measures source read latency.
	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tanah_source_load_duration_seconds",
		Help:    "Duration of record source reads",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// RecordsLoaded is the record count of the latest successful load.
	RecordsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tanah_records_loaded",
		Help: "Number of records in the most recent load",
	})
)
