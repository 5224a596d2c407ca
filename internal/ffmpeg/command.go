// Package ffmpeg provides FFmpeg command building and execution for
// capture, analysis, and post-processing of recordings.
package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/bietiekay/nhk-record/internal/util"
)

// networkName is embedded in every capture's container metadata.
const networkName = "NHK World-Japan"

// Metadata carries the descriptive fields embedded in a capture.
// Empty fields are omitted from the container.
type Metadata struct {
	Show        string
	Title       string
	Description string
	Synopsis    string
	Date        string
	EpisodeID   string
}

// CaptureArgs assembles the argument list for recording streamURL into
// outputPath as a stream copy. durationMS bounds the recording length.
// When thumbnailPath is non-empty the image is muxed in as an attached
// picture stream.
func CaptureArgs(streamURL string, durationMS int64, meta Metadata, thumbnailPath, outputPath string) []string {
	args := []string{"-hide_banner", "-y", "-i", streamURL}

	if thumbnailPath != "" {
		args = append(args, "-i", thumbnailPath)
	}

	args = append(args, "-t", util.SecondsArg(durationMS))
	args = append(args, "-map", "0")

	if thumbnailPath != "" {
		args = append(args, "-map", "1", "-disposition:v:1", "attached_pic")
	}

	args = append(args, "-c", "copy")
	args = append(args, metadataArgs(meta)...)
	args = append(args, "-f", "matroska", outputPath)

	return args
}

// PostProcessOptions control trimming and correction of a capture.
type PostProcessOptions struct {
	Input   string
	Output  string
	StartMS int64
	EndMS   int64
	// FilterGraph is a correction graph from BuildCorrectionFilter.
	// Empty selects the stream-copy path.
	FilterGraph  string
	HasThumbnail bool
	// Threads caps FFmpeg's thread count when positive.
	Threads int
}

// PostProcessArgs assembles the argument list trimming a capture to
// [StartMS, EndMS). Without a filter graph every stream is copied;
// with one, the primary video stream is re-encoded through it while
// audio and any attached picture stream are still copied.
func PostProcessArgs(opts PostProcessOptions) []string {
	args := []string{"-hide_banner", "-y"}

	if opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(opts.Threads))
	}

	args = append(args,
		"-ss", util.SecondsArg(opts.StartMS),
		"-i", opts.Input,
		"-t", util.SecondsArg(opts.EndMS-opts.StartMS),
	)

	if opts.FilterGraph == "" {
		args = append(args, "-map", "0", "-c", "copy")
	} else {
		args = append(args,
			"-filter_complex", opts.FilterGraph,
			"-map", "[vout]",
			"-map", "0:a",
		)
		if opts.HasThumbnail {
			args = append(args, "-map", "0:v:1", "-c:v:1", "copy", "-disposition:v:1", "attached_pic")
		}
		args = append(args,
			"-c:v:0", "libx264",
			"-preset", "veryfast",
			"-crf", "18",
			"-c:a", "copy",
		)
	}

	args = append(args, "-map_metadata", "0", "-f", "matroska", opts.Output)

	return args
}

func metadataArgs(meta Metadata) []string {
	pairs := []struct {
		key   string
		value string
	}{
		{"show", meta.Show},
		{"title", meta.Title},
		{"description", meta.Description},
		{"synopsis", meta.Synopsis},
		{"date", meta.Date},
		{"episode_id", meta.EpisodeID},
		{"network", networkName},
	}

	var args []string
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		args = append(args, "-metadata", fmt.Sprintf("%s=%s", p.key, p.value))
	}
	return args
}
