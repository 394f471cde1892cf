package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharescan_scans_started_total",
		Help: "Number of scans started.",
	})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sharescan_scan_duration_seconds",
		Help:    "Wall-clock duration of completed scans.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	filesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharescan_files_indexed_total",
		Help: "File and directory rows written during indexing.",
	})

	filesEnriched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharescan_files_enriched_total",
		Help: "Files whose fingerprint, text or metadata was computed.",
	})
)
