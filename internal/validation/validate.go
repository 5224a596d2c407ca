// Package validation checks a post-processed recording against what the
// trim asked for.
package validation

import (
	"context"
	"fmt"

	"github.com/bietiekay/nhk-record/internal/util"
)

const (
	// durationToleranceMS is the maximum allowed difference between the
	// trimmed output duration and the requested trim length. Stream-copy
	// cuts land on packet boundaries, so a small drift is expected.
	durationToleranceMS = 2000
	// minOutputBytes is the smallest output accepted as a real recording
	// rather than a header-only or truncated file.
	minOutputBytes = 1 * util.MiB
)

// Options contains optional parameters for validation.
type Options struct {
	ExpectedDurationMS *int64
	ExpectedStreams    *int
	// MinSizeBytes overrides the default minimum output size when positive.
	MinSizeBytes int64
}

// ValidateOutput performs validation of a trimmed recording.
// It delegates to ValidateWithAnalyzer using the DefaultAnalyzer.
func ValidateOutput(ctx context.Context, outputPath string, opts Options) (*Result, error) {
	return ValidateWithAnalyzer(ctx, NewDefaultAnalyzer(), outputPath, opts)
}

// validateSize checks that the output is large enough to be a real recording.
func validateSize(size, minSize int64) (bool, string) {
	if size >= minSize {
		return true, fmt.Sprintf("Output is %s", util.FormatBytes(uint64(size)))
	}
	return false, fmt.Sprintf("Output too small: %s (minimum %s)",
		util.FormatBytes(uint64(size)), util.FormatBytes(uint64(minSize)))
}

// validateDuration checks that duration is within acceptable tolerance
// of the requested trim length.
func validateDuration(actualMS, expectedMS int64) (bool, string) {
	diff := actualMS - expectedMS
	if diff < 0 {
		diff = -diff
	}

	if diff <= durationToleranceMS {
		return true, fmt.Sprintf("Duration matches trim (%.1fs)", float64(actualMS)/1000)
	}
	return false, fmt.Sprintf("Duration mismatch: got %.1fs, expected %.1fs (diff: %.1fs)",
		float64(actualMS)/1000, float64(expectedMS)/1000, float64(diff)/1000)
}

// validateStreams checks that the container kept the expected stream count.
func validateStreams(actual int, expected *int) (bool, string) {
	if expected == nil {
		return true, fmt.Sprintf("%d streams", actual)
	}
	if actual == *expected {
		return true, fmt.Sprintf("%d streams", actual)
	}
	return false, fmt.Sprintf("Stream count mismatch: got %d, expected %d", actual, *expected)
}

// ValidateWithAnalyzer performs validation using a MediaAnalyzer interface.
// This allows for testing without external tool dependencies.
//
// A missing or unprobeable output is a failed check, not an error; the
// returned error is reserved for context cancellation.
func ValidateWithAnalyzer(ctx context.Context, analyzer MediaAnalyzer, outputPath string, opts Options) (*Result, error) {
	minSize := opts.MinSizeBytes
	if minSize <= 0 {
		minSize = minOutputBytes
	}

	result := &Result{}

	size, err := analyzer.FileSize(outputPath)
	if err != nil {
		result.ExistsMessage = "Output file missing"
		result.SizeMessage = "Skipped: no output file"
		result.DurationMessage = "Skipped: no output file"
		result.StreamMessage = "Skipped: no output file"
		return result, nil
	}
	result.Exists = true
	result.ExistsMessage = "Output file present"
	result.OutputSize = size

	result.IsSizeSufficient, result.SizeMessage = validateSize(size, minSize)

	info, err := analyzer.ProbeMedia(ctx, outputPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.DurationMessage = "Failed to probe output"
		result.StreamMessage = "Failed to probe output"
		return result, nil
	}

	// Validate duration against the requested trim
	if opts.ExpectedDurationMS != nil {
		actualMS := info.DurationMS
		result.ActualDurationMS = &actualMS
		result.ExpectedDurationMS = opts.ExpectedDurationMS
		result.IsDurationCorrect, result.DurationMessage = validateDuration(actualMS, *opts.ExpectedDurationMS)
	} else {
		result.IsDurationCorrect = true
		result.DurationMessage = "Duration validation skipped"
	}

	// Validate stream count
	streams := info.StreamCount
	result.ActualStreams = &streams
	result.ExpectedStreams = opts.ExpectedStreams
	result.IsStreamCountCorrect, result.StreamMessage = validateStreams(streams, opts.ExpectedStreams)

	return result, nil
}
