package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repage_pages_processed_total",
			Help: "Total number of pages processed successfully",
		},
	)

	pagesFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repage_pages_failed_total",
			Help: "Total number of pages that failed processing",
		},
	)

	translationsEchoedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repage_translations_echoed_total",
			Help: "Total number of labels echoed untranslated after a translation failure",
		},
	)

	placementsForcedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repage_placements_forced_total",
			Help: "Total number of annotations force-placed in violation of the clearance rule",
		},
	)

	extractionTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repage_extraction_timeouts_total",
			Help: "Total number of structured extractions abandoned at their deadline",
		},
	)

	pageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "repage_page_duration_seconds",
			Help:    "End-to-end page processing duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 25, 50, 100},
		},
	)
)
