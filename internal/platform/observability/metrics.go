package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by the counters below.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDenied  = "denied"
)

var (
	SnapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tanah_snapshot_version",
		Help: "Version number of the current record snapshot",
	})

	SnapshotRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tanah_snapshot_records",
		Help: "Number of records in the current snapshot",
	})

	SnapshotLoadedTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tanah_snapshot_loaded_timestamp_seconds",
		Help: "Unix time the current snapshot was loaded",
	})

	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanah_mutations_total",
		Help: "Record mutations by action and outcome",
	}, []string{"action", "status"})

	AuditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tanah_audit_failures_total",
		Help: "Audit entries that could not be written",
	})

	Backups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanah_backups_total",
		Help: "Snapshot backups by outcome",
	}, []string{"status"})

	BackupDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tanah_backup_duration_seconds",
		Help:    "Time spent writing a snapshot backup",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	BackupFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tanah_backup_files",
		Help: "Number of backup files retained",
	})
)
