// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EpisodesTotal counts finished runs by posture and outcome.
	EpisodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "episodes_total",
		Help:      "Episode generation runs by posture and outcome.",
	}, []string{"status", "outcome"})

	// SegmentsDropped counts planned segments removed for lacking
	// backing data.
	SegmentsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "segments_dropped_total",
		Help:      "Candidate segments dropped for lacking backing data.",
	})

	// Regenerations counts segment rewrites by trigger.
	Regenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitchside",
		Name:      "segment_regenerations_total",
		Help:      "Segment rewrites by trigger.",
	}, []string{"trigger"})

	// StageDuration observes how long each pipeline stage runs.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pitchside",
		Name:      "stage_duration_seconds",
		Help:      "Wall time per pipeline stage.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"stage"})
)

// Handler serves the process metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr for the life of the process. It
// blocks, so callers run it in a goroutine.
func Serve(addr string, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics listener stopped", "addr", addr, "error", err)
	}
}
