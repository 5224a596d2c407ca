package ffmpeg

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
	"github.com/bietiekay/nhk-record/internal/util"
)

// Progress represents the state of a running FFmpeg invocation.
type Progress struct {
	CurrentFrame uint64
	Percent      float32
	Speed        float32
	FPS          float32
	ETA          time.Duration
	Bitrate      string
	ElapsedSecs  float64
}

// ProgressCallback is called with progress updates while FFmpeg runs.
type ProgressCallback func(Progress)

// Result contains the outcome of an FFmpeg invocation.
type Result struct {
	Success bool
	Error   error
	// Lines is everything FFmpeg wrote to stderr, split at \r and \n
	// boundaries. Analysis output is parsed from here.
	Lines []string
}

var timeRegex = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.?\d*)`)

// Run executes ffmpeg with the given arguments. durationMS is the
// expected output duration used for percent/ETA computation; pass 0
// when unknown. callback may be nil.
func Run(ctx context.Context, args []string, durationMS int64, callback ProgressCallback) Result {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{
			Success: false,
			Error:   apperrors.NewIOError("failed to get stderr pipe", err),
		}
	}

	if err := cmd.Start(); err != nil {
		return Result{
			Success: false,
			Error:   apperrors.NewCommandStartError("ffmpeg", err),
		}
	}

	lines := collectOutput(stderr, float64(durationMS)/1000, callback)

	err = cmd.Wait()
	if err != nil {
		if ctx.Err() != nil {
			return Result{
				Success: false,
				Error:   apperrors.NewCancelledError(),
				Lines:   lines,
			}
		}

		stderrTail := strings.Join(tailLines(lines, 20), "\n")
		if strings.Contains(stderrTail, "No streams found") {
			return Result{
				Success: false,
				Error:   apperrors.NewFFmpegError("no streams found in input"),
				Lines:   lines,
			}
		}
		return Result{
			Success: false,
			Error:   apperrors.WrapExecError("ffmpeg", err, stderrTail),
			Lines:   lines,
		}
	}

	return Result{
		Success: true,
		Lines:   lines,
	}
}

// collectOutput reads FFmpeg stderr line-wise, emitting progress updates
// as they appear. FFmpeg terminates progress lines with \r, everything
// else with \n, so both count as line ends.
func collectOutput(stderr io.Reader, duration float64, callback ProgressCallback) []string {
	reader := bufio.NewReader(stderr)
	var lines []string
	var lineBuf strings.Builder

	flush := func() {
		line := lineBuf.String()
		lineBuf.Reset()
		if line == "" {
			return
		}
		lines = append(lines, line)

		if callback != nil && strings.Contains(line, "frame=") {
			if progress := parseProgressLine(line, duration); progress != nil {
				callback(*progress)
			}
		}
	}

	for {
		b, err := reader.ReadByte()
		if err != nil {
			flush()
			break
		}

		if b == '\r' || b == '\n' {
			flush()
		} else {
			lineBuf.WriteByte(b)
		}
	}

	return lines
}

// parseProgressLine extracts progress information from an FFmpeg
// progress line.
func parseProgressLine(line string, duration float64) *Progress {
	// Extract elapsed time
	var elapsedSecs float64
	if matches := timeRegex.FindStringSubmatch(line); len(matches) >= 2 {
		if secs, ok := util.ParseFFmpegTime(matches[1]); ok {
			elapsedSecs = secs
		}
	}

	var frame uint64
	var fps, speed float32
	var bitrate string

	// Parse frame
	if idx := strings.Index(line, "frame="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+6:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t"); spaceIdx > 0 {
			if f, err := strconv.ParseUint(remaining[:spaceIdx], 10, 64); err == nil {
				frame = f
			}
		}
	}

	// Parse fps
	if idx := strings.Index(line, "fps="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+4:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t"); spaceIdx > 0 {
			if f, err := strconv.ParseFloat(remaining[:spaceIdx], 32); err == nil {
				fps = float32(f)
			}
		}
	}

	// Parse bitrate
	if idx := strings.Index(line, "bitrate="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+8:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t"); spaceIdx > 0 {
			bitrate = remaining[:spaceIdx]
		}
	}

	// Parse speed
	if idx := strings.Index(line, "speed="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+6:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \tx"); spaceIdx > 0 {
			remaining = remaining[:spaceIdx]
		}
		if s, err := strconv.ParseFloat(remaining, 32); err == nil {
			speed = float32(s)
		}
	}

	var percent float32
	if duration > 0 {
		percent = float32((elapsedSecs / duration) * 100)
		if percent > 100 {
			percent = 100
		}
	}

	var eta time.Duration
	if speed > 0 && duration > 0 {
		remainingDuration := duration - elapsedSecs
		etaSeconds := remainingDuration / float64(speed)
		eta = time.Duration(etaSeconds) * time.Second
	}

	return &Progress{
		CurrentFrame: frame,
		Percent:      percent,
		Speed:        speed,
		FPS:          fps,
		ETA:          eta,
		Bitrate:      bitrate,
		ElapsedSecs:  elapsedSecs,
	}
}

// tailLines returns the last n lines.
func tailLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
