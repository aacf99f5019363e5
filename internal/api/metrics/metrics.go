// Package metrics defines and registers the custom Prometheus metrics of the
// Lugayetu collector. It is the single source of truth for metric names,
// labels and help strings.
//
// Metrics are registered with the default registry on package load through
// promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lugayetu"

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts accounts created through self-registration.
// Label:
//   - channel: "api" or "web"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of contributor registrations.",
	},
	[]string{"channel"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - channel: "api" or "web"
//   - result: "success", "invalid", "not_approved" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"channel", "result"},
)

// ── Recording metrics ─────────────────────────────────────────────────────────

// RecordingsIngestedTotal counts accepted recordings.
// Label:
//   - ext: stored file extension (wav, webm, mp3, ogg, m4a, aac)
var RecordingsIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recordings_ingested_total",
		Help:      "Total number of recordings stored, by audio format.",
	},
	[]string{"ext"},
)

// UploadBytes observes the size of every audio blob written to the store.
var UploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upload_bytes",
		Help:      "Size of stored audio uploads in bytes.",
		Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 8), // 16 KiB .. 256 MiB
	},
)

// AudioDeleteFailuresTotal counts blobs that could not be removed.
var AudioDeleteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audio_delete_failures_total",
		Help:      "Total number of audio files that could not be deleted.",
	},
)

// ── Admin metrics ─────────────────────────────────────────────────────────────

// ExportsTotal counts corpus downloads.
// Label:
//   - format: "csv" or "zip"
var ExportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Total number of corpus exports, by format.",
	},
	[]string{"format"},
)

// OrphanSweepsTotal counts sweeper runs.
// Label:
//   - result: "ok" or "error"
var OrphanSweepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphan_sweeps_total",
		Help:      "Total number of orphan audio sweeps, by outcome.",
	},
	[]string{"result"},
)

// OrphansRemovedTotal counts unreferenced blobs removed by the sweeper.
var OrphansRemovedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphans_removed_total",
		Help:      "Total number of unreferenced audio files removed.",
	},
)
