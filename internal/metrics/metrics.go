package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProjectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metroprice_projections_total",
			Help: "Total projection requests served, by outcome",
		},
		[]string{"status"},
	)

	ProjectionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metroprice_projection_seconds",
			Help:    "End-to-end projection latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metroprice_exports_total",
			Help: "Total spreadsheet downloads served",
		},
	)
)
