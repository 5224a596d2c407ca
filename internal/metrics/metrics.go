// Package metrics exposes Prometheus instrumentation for the recorder.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bietiekay/nhk-record/internal/logging"
)

var (
	recordingsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nhkrecord_recordings_started_total",
		Help: "Total number of capture attempts started",
	})

	recordingsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nhkrecord_recordings_completed_total",
		Help: "Total number of recordings captured, processed, and validated",
	})

	recordingsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nhkrecord_recordings_failed_total",
		Help: "Total number of failed recordings by pipeline stage",
	}, []string{"stage"})

	detectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nhkrecord_detections_total",
		Help: "Boundary, banner, and crop detection outcomes",
	}, []string{"detector", "outcome"})

	recordingInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nhkrecord_recording_in_progress",
		Help: "1 while a capture is running, 0 otherwise",
	})

	matchedProgrammes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nhkrecord_schedule_matched_programmes",
		Help: "Number of programmes in the current schedule matching the configured patterns",
	})
)

// RecordingStarted marks a capture attempt as running.
func RecordingStarted() {
	recordingsStartedTotal.Inc()
	recordingInProgress.Set(1)
}

// RecordingCompleted marks the running recording as finished successfully.
func RecordingCompleted() {
	recordingsCompletedTotal.Inc()
	recordingInProgress.Set(0)
}

// RecordingFailed marks the running recording as failed in the given
// pipeline stage. Labels are allowlisted to cap cardinality:
// stage ∈ {preflight, capture, postprocess, validation}.
func RecordingFailed(stage string) {
	recordingsFailedTotal.WithLabelValues(normalizeStage(stage)).Inc()
	recordingInProgress.Set(0)
}

// DetectionOutcome records one detector run. detector ∈ {boundary_head,
// boundary_tail, banner, crop}; outcome ∈ {detected, fallback}.
func DetectionOutcome(detector, outcome string) {
	detectionsTotal.WithLabelValues(normalizeDetector(detector), normalizeOutcome(outcome)).Inc()
}

// ScheduleMatched records how many programmes the current schedule
// window matched.
func ScheduleMatched(count int) {
	matchedProgrammes.Set(float64(count))
}

func normalizeStage(stage string) string {
	switch strings.ToLower(strings.TrimSpace(stage)) {
	case "preflight", "capture", "postprocess", "validation":
		return strings.ToLower(strings.TrimSpace(stage))
	default:
		return "unknown"
	}
}

func normalizeDetector(detector string) string {
	switch strings.ToLower(strings.TrimSpace(detector)) {
	case "boundary_head", "boundary_tail", "banner", "crop":
		return strings.ToLower(strings.TrimSpace(detector))
	default:
		return "unknown"
	}
}

func normalizeOutcome(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "detected", "fallback":
		return strings.ToLower(strings.TrimSpace(outcome))
	default:
		return "unknown"
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ListenAndServe exposes /metrics on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string) error {
	log := logging.Global().WithComponent("metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.Info("metrics server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
