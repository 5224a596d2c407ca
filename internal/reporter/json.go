package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events for machine consumption.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{
		writer:             os.Stdout,
		lastProgressBucket: -1,
	}
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) resetProgressThrottle() {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()
}

func (r *JSONReporter) ScheduleLoaded(summary ScheduleSummary) {
	r.write(map[string]interface{}{
		"type":         "schedule_loaded",
		"window_start": summary.WindowStart.UnixMilli(),
		"window_end":   summary.WindowEnd.UnixMilli(),
		"total":        summary.Total,
		"matched":      summary.Matched,
		"next_title":   summary.NextTitle,
		"next_start":   summary.NextStart.UnixMilli(),
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) RecordingStarted(info RecordingInfo) {
	r.write(map[string]interface{}{
		"type":        "recording_started",
		"run_id":      info.RunID,
		"title":       info.Title,
		"subtitle":    info.Subtitle,
		"start":       info.Start.UnixMilli(),
		"end":         info.End.UnixMilli(),
		"output_file": info.OutputFile,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) CaptureStarted(durationMS int64) {
	r.resetProgressThrottle()

	r.write(map[string]interface{}{
		"type":        "capture_started",
		"duration_ms": durationMS,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) CaptureProgress(progress ProgressSnapshot) {
	r.progressEvent("capture_progress", progress)
}

// progressEvent throttles progress output to whole-percent buckets with
// a minimum interval, so long captures do not flood the stream.
func (r *JSONReporter) progressEvent(eventType string, progress ProgressSnapshot) {
	const progressBucketSize = 1
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent) / progressBucketSize
	now := time.Now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":          eventType,
		"current_frame": progress.CurrentFrame,
		"percent":       progress.Percent,
		"speed":         progress.Speed,
		"fps":           progress.FPS,
		"eta_seconds":   int64(progress.ETA.Seconds()),
		"bitrate":       progress.Bitrate,
		"timestamp":     r.timestamp(),
	})
}

func (r *JSONReporter) DetectionComplete(summary DetectionSummary) {
	r.write(map[string]interface{}{
		"type":          "detection_complete",
		"head_detected": summary.HeadDetected,
		"head_strategy": summary.HeadStrategy,
		"tail_detected": summary.TailDetected,
		"tail_strategy": summary.TailStrategy,
		"banner_used":   summary.BannerUsed,
		"crop_windows":  summary.CropWindows,
		"trim_start":    summary.TrimStart,
		"trim_end":      summary.TrimEnd,
		"timestamp":     r.timestamp(),
	})
}

func (r *JSONReporter) PostProcessStarted(encoded bool) {
	r.resetProgressThrottle()

	r.write(map[string]interface{}{
		"type":      "postprocess_started",
		"encoded":   encoded,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) PostProcessProgress(progress ProgressSnapshot) {
	r.progressEvent("postprocess_progress", progress)
}

func (r *JSONReporter) ValidationComplete(summary ValidationSummary) {
	steps := make([]map[string]interface{}, len(summary.Steps))
	for i, step := range summary.Steps {
		steps[i] = map[string]interface{}{
			"step":    step.Name,
			"passed":  step.Passed,
			"details": step.Details,
		}
	}

	r.write(map[string]interface{}{
		"type":              "validation_complete",
		"validation_passed": summary.Passed,
		"validation_steps":  steps,
		"timestamp":         r.timestamp(),
	})
}

func (r *JSONReporter) RecordingComplete(summary RecordingOutcome) {
	r.write(map[string]interface{}{
		"type":             "recording_complete",
		"title":            summary.Title,
		"output_file":      summary.OutputFile,
		"output_size":      summary.OutputSize,
		"trimmed_length":   summary.TrimmedLength,
		"encoded":          summary.Encoded,
		"duration_seconds": int64(summary.TotalTime.Seconds()),
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]interface{}{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}
