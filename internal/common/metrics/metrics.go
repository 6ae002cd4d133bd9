// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VenuesScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dining_venues_scraped_total",
			Help: "Total number of venue scrape attempts by source and status",
		},
		[]string{"source", "status"},
	)

	FragmentsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dining_fragments_dropped_total",
			Help: "Total number of raw menu fragments dropped during normalization",
		},
		[]string{"source", "reason"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dining_refresh_cycle_duration_seconds",
			Help:    "Duration of a full refresh cycle in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	ItemsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dining_items_indexed_total",
			Help: "Total number of canonical items written to the search index",
		},
	)

	RatingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dining_ratings_submitted_total",
			Help: "Total number of meal ratings accepted by the API",
		},
		[]string{"university"},
	)
)
