// Package ffprobe provides functions for extracting media information using ffprobe.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
)

// MediaInfo contains the probed properties of a recording.
type MediaInfo struct {
	DurationMS         int64
	Width              int
	Height             int
	StreamCount        int
	HasAttachedPicture bool
}

// StreamDisposition contains stream disposition flags.
type StreamDisposition struct {
	Default         int `json:"default"`
	Dub             int `json:"dub"`
	Original        int `json:"original"`
	Comment         int `json:"comment"`
	Lyrics          int `json:"lyrics"`
	Karaoke         int `json:"karaoke"`
	Forced          int `json:"forced"`
	HearingImpaired int `json:"hearing_impaired"`
	VisualImpaired  int `json:"visual_impaired"`
	CleanEffects    int `json:"clean_effects"`
	AttachedPic     int `json:"attached_pic"`
	TimedThumbnails int `json:"timed_thumbnails"`
}

// probeOutput represents the JSON output from ffprobe.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType   string            `json:"codec_type"`
	CodecName   string            `json:"codec_name"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	CodedWidth  int               `json:"coded_width"`
	CodedHeight int               `json:"coded_height"`
	Disposition StreamDisposition `json:"disposition"`
}

// runFFprobe executes ffprobe and returns its raw JSON output.
func runFFprobe(ctx context.Context, inputPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)

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

// parseFFprobeOutput parses ffprobe JSON output.
func parseFFprobeOutput(data []byte) (*probeOutput, error) {
	var result probeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperrors.NewParseError("failed to parse ffprobe output", err)
	}
	return &result, nil
}

func probe(ctx context.Context, inputPath string) (*probeOutput, error) {
	data, err := runFFprobe(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	return parseFFprobeOutput(data)
}

// extractDurationMS returns the container duration in milliseconds.
func extractDurationMS(p *probeOutput) (int64, error) {
	if p.Format.Duration == "" {
		return 0, apperrors.NewProbeError("no duration in ffprobe output")
	}

	secs, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil {
		return 0, apperrors.NewParseError(fmt.Sprintf("invalid duration %q", p.Format.Duration), err)
	}

	return int64(math.Round(secs * 1000)), nil
}

// extractDimensions returns the frame size of the first stream, falling
// back to coded dimensions when display dimensions are absent.
func extractDimensions(p *probeOutput) (int, int, error) {
	if len(p.Streams) == 0 {
		return 0, 0, apperrors.NewProbeError("no streams in ffprobe output")
	}

	s := p.Streams[0]
	width := s.Width
	if width == 0 {
		width = s.CodedWidth
	}
	height := s.Height
	if height == 0 {
		height = s.CodedHeight
	}

	if width <= 0 || height <= 0 {
		return 0, 0, apperrors.NewProbeError(fmt.Sprintf("no usable dimensions on first stream (%dx%d)", width, height))
	}

	return width, height, nil
}

// extractHasAttachedPicture reports whether any stream carries the
// attached picture disposition.
func extractHasAttachedPicture(p *probeOutput) bool {
	for _, s := range p.Streams {
		if s.Disposition.AttachedPic == 1 {
			return true
		}
	}
	return false
}

// GetMediaInfo returns all probed properties with a single ffprobe run.
// Dimensions are left at zero when the first stream carries none.
func GetMediaInfo(ctx context.Context, inputPath string) (*MediaInfo, error) {
	p, err := probe(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	info := &MediaInfo{
		StreamCount:        len(p.Streams),
		HasAttachedPicture: extractHasAttachedPicture(p),
	}

	duration, err := extractDurationMS(p)
	if err != nil {
		return nil, err
	}
	info.DurationMS = duration

	if w, h, err := extractDimensions(p); err == nil {
		info.Width = w
		info.Height = h
	}

	return info, nil
}
