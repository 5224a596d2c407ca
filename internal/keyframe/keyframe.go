// Package keyframe locates video keyframes so stream-copy trims can be
// snapped to positions a demuxer can cut on cleanly.
package keyframe

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
	"github.com/bietiekay/nhk-record/internal/util"
)

// List returns the keyframe timestamps of the primary video stream in
// milliseconds, sorted ascending. When durationMS is positive only the
// window starting at startMS is scanned; otherwise the whole file is.
func List(ctx context.Context, videoPath string, startMS, durationMS int64) ([]int64, error) {
	output, err := runFFprobe(ctx, videoPath, startMS, durationMS)
	if err != nil {
		return nil, err
	}
	return parseKeyframes(output), nil
}

func runFFprobe(ctx context.Context, videoPath string, startMS, durationMS int64) ([]byte, error) {
	args := []string{
		"-v", "quiet",
		"-select_streams", "v:0",
		"-show_entries", "packet=pts_time,flags",
		"-of", "csv=print_section=0",
	}
	if durationMS > 0 {
		args = append(args, "-read_intervals", util.SecondsArg(startMS)+"%+"+util.SecondsArg(durationMS))
	}
	args = append(args, videoPath)

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, apperrors.NewCommandFailedError("ffprobe", exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, apperrors.NewCommandStartError("ffprobe", err)
	}

	return output, nil
}

// parseKeyframes extracts keyframe timestamps from packet CSV lines of
// the form "<pts_time>,<flags>". Only packets flagged K count; lines
// that do not parse are skipped.
func parseKeyframes(output []byte) []int64 {
	var frames []int64
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) < 2 || !strings.HasPrefix(fields[1], "K") {
			continue
		}

		secs, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		frames = append(frames, int64(math.Round(secs*1000)))
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	return dedupe(frames)
}

// SnapBefore returns the latest keyframe at or before targetMS, or
// targetMS unchanged when no known keyframe precedes it.
func SnapBefore(keyframes []int64, targetMS int64) int64 {
	idx := sort.Search(len(keyframes), func(i int) bool {
		return keyframes[i] > targetMS
	})
	if idx == 0 {
		return targetMS
	}
	return keyframes[idx-1]
}

// dedupe removes duplicate values from a sorted slice.
func dedupe(sorted []int64) []int64 {
	if len(sorted) <= 1 {
		return sorted
	}

	result := make([]int64, 0, len(sorted))
	result = append(result, sorted[0])

	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			result = append(result, sorted[i])
		}
	}

	return result
}
