// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// ScheduleSummary describes a loaded guide window.
type ScheduleSummary struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Total       int
	Matched     int
	NextTitle   string
	NextStart   time.Time
}

// RecordingInfo describes the programme about to be captured.
type RecordingInfo struct {
	RunID      string
	Title      string
	Subtitle   string
	Start      time.Time
	End        time.Time
	OutputFile string
}

// ProgressSnapshot contains engine progress information.
type ProgressSnapshot struct {
	CurrentFrame uint64
	Percent      float32
	Speed        float32
	FPS          float32
	ETA          time.Duration
	Bitrate      string
}

// DetectionSummary describes what boundary analysis decided for one
// capture.
type DetectionSummary struct {
	HeadDetected bool
	HeadStrategy string
	TailDetected bool
	TailStrategy string
	BannerUsed   bool
	CropWindows  int
	TrimStart    string
	TrimEnd      string
}

// ValidationSummary contains validation results.
type ValidationSummary struct {
	Passed bool
	Steps  []ValidationStep
}

// ValidationStep represents a single validation check.
type ValidationStep struct {
	Name    string
	Passed  bool
	Details string
}

// RecordingOutcome contains final results for one recording.
type RecordingOutcome struct {
	Title         string
	OutputFile    string
	OutputSize    uint64
	TrimmedLength string
	Encoded       bool
	TotalTime     time.Duration
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}
