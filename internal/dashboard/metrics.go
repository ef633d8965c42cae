package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values.
const (
	ReasonMissingToken = "missing_token"
	ReasonInvalidToken = "invalid_token"
	ReasonExpired      = "expired"
	ReasonForbidden    = "forbidden"
	ReasonRateLimited  = "rate_limited"

	ErrorTypeLoad   = "load_error"
	ErrorTypeWrite  = "write_error"
	ErrorTypeExport = "export_error"
	ErrorTypeEncode = "encode_error"
)

var (
	// HitsTotal counts requests by route and HTTP status code.
	HitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanah_api_hits_total",
		Help: "Total number of dashboard API requests",
	}, []string{"route", "status"})

	// DeniedTotal counts denied requests by reason.
	DeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanah_api_denied_total",
		Help: "Total number of denied dashboard API requests",
	}, []string{"reason"})

	// ErrorsTotal counts errors by type.
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tanah_api_errors_total",
		Help: "Total number of dashboard API errors",
	}, []string{"type"})

	// LatencyHistogram measures request latency.
	LatencyHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tanah_api_latency_seconds",
		Help:    "Latency of dashboard API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
