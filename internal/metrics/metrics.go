// Package metrics exposes the pipeline's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts archive index pages fetched, by provider.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boardmgr_archive_pages_fetched_total",
		Help: "Archive index pages fetched successfully.",
	}, []string{"provider"})

	// PageErrors counts failed archive index page fetches, by provider.
	PageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boardmgr_archive_page_errors_total",
		Help: "Archive index page fetches that failed.",
	}, []string{"provider"})

	// BoardsDiscovered counts boards merged into companies, by provider.
	BoardsDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boardmgr_boards_discovered_total",
		Help: "Boards discovered and upserted into the companies table.",
	}, []string{"provider"})

	// BoardsSynced counts boards whose postings were fetched, by provider.
	BoardsSynced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boardmgr_boards_synced_total",
		Help: "Boards whose postings were fetched and normalised.",
	}, []string{"provider"})

	// JobsUpserted counts postings written, by provider.
	JobsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boardmgr_jobs_upserted_total",
		Help: "Job postings upserted.",
	}, []string{"provider"})

	// BatchDuration observes end-to-end batch runtime.
	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "boardmgr_batch_duration_seconds",
		Help:    "Duration of one orchestrator batch.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
