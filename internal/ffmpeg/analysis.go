package ffmpeg

import (
	"context"
	"fmt"
	"strings"

	"github.com/bietiekay/nhk-record/internal/detect"
	"github.com/bietiekay/nhk-record/internal/logging"
	"github.com/bietiekay/nhk-record/internal/util"
)

// Analysis graphs normalize the frame to the reference art geometry
// before comparing. Filter declaration order below is what gives the
// parsed filter ids in the detect package their meaning; changing a
// graph changes the ids.
const (
	analysisWidth  = 1920
	analysisHeight = 1080

	// blackframe parameters accepting a difference frame as a match.
	boundaryMatchAmount = 98
	bannerMatchAmount   = 95
	matchThreshold      = 32

	// Banner overlay search region within the normalized frame.
	bannerRegionW = 1920
	bannerRegionH = 270
	bannerRegionX = 0
	bannerRegionY = 810

	// cropdetect tuning for the partial-width picture search.
	cropLimit = 24
	cropRound = 2

	// silencedetect parameters for boundary gating.
	silenceNoise    = "-50dB"
	silenceDuration = "0.25"
)

// BoundaryArgs assembles the analysis invocation comparing each frame
// in a window of input against each reference image while scanning the
// audio track for silence. durationMS <= 0 analyzes the whole
// recording.
func BoundaryArgs(input string, refImages []string, startMS, durationMS int64) []string {
	args := []string{"-hide_banner"}
	if durationMS > 0 {
		args = append(args, "-ss", util.SecondsArg(startMS), "-t", util.SecondsArg(durationMS))
	}
	args = append(args, "-i", input)

	for _, ref := range refImages {
		args = append(args, "-loop", "1", "-i", ref)
	}

	args = append(args, "-filter_complex", boundaryGraph(len(refImages)))

	for i := range refImages {
		args = append(args, "-map", fmt.Sprintf("[d%d]", i))
	}

	args = append(args,
		"-map", "0:a:0",
		"-af", fmt.Sprintf("silencedetect=noise=%s:d=%s", silenceNoise, silenceDuration),
		"-f", "null", "-",
	)

	return args
}

// boundaryGraph splits the normalized frame once per reference image
// and differences each copy against its reference. Filter numbering:
// scale(0), split(1), then blend(2+2i)/blackframe(3+2i) per reference.
func boundaryGraph(refCount int) string {
	head := NewVideoFilterChain().
		AddFilter(fmt.Sprintf("scale=%d:%d", analysisWidth, analysisHeight)).
		AddFilter(fmt.Sprintf("split=%d", refCount)).
		Build()

	var sb strings.Builder
	sb.WriteString("[0:v]")
	sb.WriteString(head)
	for i := 0; i < refCount; i++ {
		fmt.Fprintf(&sb, "[s%d]", i)
	}

	diff := NewVideoFilterChain().
		AddFilter("blend=difference").
		AddFilter(fmt.Sprintf("blackframe=amount=%d:threshold=%d", boundaryMatchAmount, matchThreshold)).
		Build()

	for i := 0; i < refCount; i++ {
		fmt.Fprintf(&sb, ";[s%d][%d:v]%s[d%d]", i, i+1, diff, i)
	}
	return sb.String()
}

// BannerArgs assembles the analysis invocation comparing the banner
// region of each frame in a window against the reference banner image.
// durationMS <= 0 analyzes the whole recording.
func BannerArgs(input, bannerImage string, startMS, durationMS int64) []string {
	args := []string{"-hide_banner"}
	if durationMS > 0 {
		args = append(args, "-ss", util.SecondsArg(startMS), "-t", util.SecondsArg(durationMS))
	}
	return append(args,
		"-i", input,
		"-loop", "1", "-i", bannerImage,
		"-filter_complex", bannerGraph(),
		"-map", "[d0]",
		"-f", "null", "-",
	)
}

// bannerGraph crops the normalized frame to the banner region before
// differencing. Filter numbering: scale(0), crop(1), blend(2),
// blackframe(3).
func bannerGraph() string {
	region := NewVideoFilterChain().
		AddFilter(fmt.Sprintf("scale=%d:%d", analysisWidth, analysisHeight)).
		AddFilter(fmt.Sprintf("crop=%d:%d:%d:%d", bannerRegionW, bannerRegionH, bannerRegionX, bannerRegionY)).
		Build()

	diff := NewVideoFilterChain().
		AddFilter("blend=difference").
		AddFilter(fmt.Sprintf("blackframe=amount=%d:threshold=%d", bannerMatchAmount, matchThreshold)).
		Build()

	return fmt.Sprintf("[0:v]%s[v];[v][1:v]%s[d0]", region, diff)
}

// CropArgs assembles the time-bounded analysis invocation measuring the
// active picture width against a background reference image.
func CropArgs(input, background string, startMS, durationMS int64) []string {
	return []string{
		"-hide_banner",
		"-ss", util.SecondsArg(startMS),
		"-t", util.SecondsArg(durationMS),
		"-i", input,
		"-loop", "1", "-i", background,
		"-filter_complex", cropGraph(),
		"-map", "[c0]",
		"-f", "null", "-",
	}
}

// cropGraph differences the normalized frame against the background and
// measures the remaining active region. Filter numbering: scale(0),
// blend(1), cropdetect(2).
func cropGraph() string {
	diff := NewVideoFilterChain().
		AddFilter("blend=difference").
		AddFilter(fmt.Sprintf("cropdetect=limit=%d:round=%d", cropLimit, cropRound)).
		Build()

	return fmt.Sprintf("[0:v]scale=%d:%d[v];[v][1:v]%s[c0]", analysisWidth, analysisHeight, diff)
}

// DetectBoundaries runs the boundary analysis over the window starting
// at startMS and returns the accepted boundary features with absolute
// recording times. Returns nil when no reference images are configured.
func DetectBoundaries(ctx context.Context, input string, refImages []string, startMS, durationMS int64) ([]detect.Feature, error) {
	if len(refImages) == 0 {
		return nil, nil
	}

	result := Run(ctx, BoundaryArgs(input, refImages, startMS, durationMS), durationMS, nil)
	if result.Error != nil {
		return nil, result.Error
	}

	silences := detect.ParseSilences(result.Lines)
	events := detect.ParseFrameEvents(result.Lines)
	if durationMS > 0 {
		// Input seeking restarts FFmpeg's clock, so observed times come
		// back relative to the window start.
		for i := range silences {
			silences[i].Start += startMS
			silences[i].End += startMS
		}
		for i := range events {
			events[i].Time += startMS
		}
	}
	logging.Debug("boundary analysis complete",
		"input", input,
		"silences", len(silences),
		"frame_events", len(events))

	return detect.FindBoundaries(events, silences), nil
}

// DetectBanner runs the banner analysis over the window starting at
// startMS and returns the detected overlay intervals with absolute
// recording times.
func DetectBanner(ctx context.Context, input, bannerImage string, startMS, durationMS int64) ([]detect.Feature, error) {
	if bannerImage == "" {
		return nil, nil
	}

	result := Run(ctx, BannerArgs(input, bannerImage, startMS, durationMS), durationMS, nil)
	if result.Error != nil {
		return nil, result.Error
	}

	events := detect.ParseFrameEvents(result.Lines)
	if durationMS > 0 {
		for i := range events {
			events[i].Time += startMS
		}
	}
	logging.Debug("banner analysis complete", "input", input, "frame_events", len(events))

	return detect.DetectBanner(events), nil
}

// DetectCrop measures the active picture width over the window starting
// at startMS. Observation times are absolute recording times.
func DetectCrop(ctx context.Context, input, background string, startMS, durationMS int64) ([]detect.CropObservation, error) {
	if background == "" {
		return nil, nil
	}

	result := Run(ctx, CropArgs(input, background, startMS, durationMS), durationMS, nil)
	if result.Error != nil {
		return nil, result.Error
	}

	observations := detect.ParseCropObservations(result.Lines)
	// Input seeking restarts FFmpeg's clock, so observed times come back
	// relative to the window start.
	for i := range observations {
		observations[i].Time += startMS
	}

	logging.Debug("crop analysis complete", "input", input, "observations", len(observations))

	return observations, nil
}
