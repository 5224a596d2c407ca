package recorder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
	"github.com/bietiekay/nhk-record/internal/ffmpeg"
	"github.com/bietiekay/nhk-record/internal/ffprobe"
	"github.com/bietiekay/nhk-record/internal/keyframe"
	"github.com/bietiekay/nhk-record/internal/logging"
	"github.com/bietiekay/nhk-record/internal/metrics"
	"github.com/bietiekay/nhk-record/internal/reporter"
	"github.com/bietiekay/nhk-record/internal/util"
	"github.com/bietiekay/nhk-record/internal/validation"
)

// Dimensions assumed when the probe reports none.
const (
	defaultWidth  = 1920
	defaultHeight = 1080
)

// Job describes one capture awaiting post-processing.
type Job struct {
	Title    string
	Subtitle string
	// Airing is the scheduled start, zero when unknown.
	Airing time.Time
	// ExpectedStartMS is the offset into the capture where the
	// programme should begin. For scheduled captures this is the
	// safety buffer.
	ExpectedStartMS int64
	// ExpectedDurationMS is the scheduled programme length. Values
	// <= 0 derive it from the capture length minus both buffers.
	ExpectedDurationMS int64
	OutputDir          string
	// OutputBase overrides the name derived from Title and Airing.
	OutputBase string
}

// PostProcess trims a capture down to programme content and validates
// the result. Crop correction is applied when partial-width segments
// were found. Returns the outcome with TotalTime unset; callers that
// also captured fold their own elapsed time in.
func (r *Recorder) PostProcess(ctx context.Context, input string, job Job) (*reporter.RecordingOutcome, error) {
	info, err := ffprobe.GetMediaInfo(ctx, input)
	if err != nil {
		return nil, err
	}
	if info.DurationMS <= 0 {
		return nil, apperrors.NewProbeError(fmt.Sprintf("no duration reported for %s", input))
	}
	durationMS := info.DurationMS

	width, height := info.Width, info.Height
	if width <= 0 || height <= 0 {
		logging.Warn("probe returned no dimensions, assuming 1080p", "input", input)
		width, height = defaultWidth, defaultHeight
	}

	expectedStart, expectedEnd := expectedSpan(job, durationMS)

	var start, end trimPoint
	var bannerUsed bool

	if r.cfg.TrimVideo {
		start, end, bannerUsed, err = r.detectTrim(ctx, input, expectedStart, expectedEnd, durationMS)
		if err != nil {
			return nil, err
		}
	} else {
		start = trimPoint{ms: 0, strategy: strategyFallback}
		end = trimPoint{ms: durationMS, strategy: strategyFallback}
	}

	if end.ms <= start.ms {
		logging.Warn("trim window collapsed, using schedule times",
			"start", util.FormatTimecode(start.ms),
			"end", util.FormatTimecode(end.ms))
		start = trimPoint{ms: expectedStart, strategy: strategyFallback}
		end = trimPoint{ms: expectedEnd, strategy: strategyFallback}
	}
	if end.ms <= start.ms {
		// The schedule span is itself degenerate, keep the whole
		// capture.
		start = trimPoint{ms: 0, strategy: strategyFallback}
		end = trimPoint{ms: durationMS, strategy: strategyFallback}
	}

	graph, cropWindows, err := r.detectCrop(ctx, input, start.ms, end.ms, width, height)
	if err != nil {
		return nil, err
	}

	// Stream copy cannot cut mid-GOP, so land the start on a keyframe.
	if graph == "" && start.ms > 0 {
		start.ms = r.snapToKeyframe(ctx, input, start.ms)
	}

	r.reporter.DetectionComplete(reporter.DetectionSummary{
		HeadDetected: start.detected(),
		HeadStrategy: start.strategy,
		TailDetected: end.detected(),
		TailStrategy: end.strategy,
		BannerUsed:   bannerUsed,
		CropWindows:  cropWindows,
		TrimStart:    util.FormatTimecode(start.ms),
		TrimEnd:      util.FormatTimecode(end.ms),
	})

	base := job.OutputBase
	if base == "" {
		base = outputBaseName(job.Title, job.Subtitle, job.Airing)
	}
	if base == "" {
		base = util.GetFileStem(input)
	}
	if err := util.EnsureDirectory(job.OutputDir); err != nil {
		return nil, err
	}
	outputPath := util.UniquePath(filepath.Join(job.OutputDir, base+".mkv"))

	encoded := graph != ""
	trimmedMS := end.ms - start.ms
	r.reporter.PostProcessStarted(encoded)
	logging.Info("post-processing capture",
		"input", input,
		"output", outputPath,
		"trim_start", util.FormatTimecode(start.ms),
		"trim_end", util.FormatTimecode(end.ms),
		"encoded", encoded)

	result := ffmpeg.Run(ctx, ffmpeg.PostProcessArgs(ffmpeg.PostProcessOptions{
		Input:        input,
		Output:       outputPath,
		StartMS:      start.ms,
		EndMS:        end.ms,
		FilterGraph:  graph,
		HasThumbnail: info.HasAttachedPicture,
		Threads:      r.cfg.ThreadLimit,
	}), trimmedMS, func(p ffmpeg.Progress) {
		r.reporter.PostProcessProgress(progressSnapshot(p))
	})
	if result.Error != nil {
		return nil, result.Error
	}

	expectStreams := info.StreamCount
	vres, err := validation.ValidateOutput(ctx, outputPath, validation.Options{
		ExpectedDurationMS: &trimmedMS,
		ExpectedStreams:    &expectStreams,
	})
	if err != nil {
		return nil, err
	}

	summary := reporter.ValidationSummary{Passed: vres.IsValid()}
	for _, step := range vres.GetValidationSteps() {
		summary.Steps = append(summary.Steps, reporter.ValidationStep{
			Name:    step.Name,
			Passed:  step.Passed,
			Details: step.Details,
		})
	}
	r.reporter.ValidationComplete(summary)

	if !vres.IsValid() {
		return nil, apperrors.NewValidationError(strings.Join(vres.GetFailures(), "; "))
	}

	return &reporter.RecordingOutcome{
		Title:         job.Title,
		OutputFile:    outputPath,
		OutputSize:    uint64(vres.OutputSize),
		TrimmedLength: util.FormatTimecode(trimmedMS),
		Encoded:       encoded,
	}, nil
}

// expectedSpan clamps the scheduled programme span into the capture.
func expectedSpan(job Job, durationMS int64) (startMS, endMS int64) {
	startMS = job.ExpectedStartMS
	if startMS < 0 {
		startMS = 0
	}
	if startMS > durationMS {
		startMS = durationMS
	}

	expectedDur := job.ExpectedDurationMS
	if expectedDur <= 0 {
		expectedDur = durationMS - 2*startMS
		if expectedDur < 0 {
			expectedDur = 0
		}
	}

	endMS = startMS + expectedDur
	if endMS > durationMS {
		endMS = durationMS
	}
	return startMS, endMS
}

// detectTrim runs the boundary detectors over the head and tail search
// windows. Detection failures degrade to schedule times; an interrupted
// invocation aborts.
func (r *Recorder) detectTrim(ctx context.Context, input string, expectedStart, expectedEnd, durationMS int64) (start, end trimPoint, bannerUsed bool, err error) {
	start = trimPoint{ms: expectedStart, strategy: strategyFallback}
	end = trimPoint{ms: expectedEnd, strategy: strategyFallback}

	head, tail := boundaryWindows(expectedStart, expectedEnd, durationMS)

	features, derr := ffmpeg.DetectBoundaries(ctx, input, r.assets.BoundaryRefs, head.startMS, head.durMS)
	if derr != nil {
		if apperrors.IsCancelled(derr) {
			return start, end, false, derr
		}
		logging.Warn("boundary analysis failed at head, using schedule times", "error", derr)
	}

	if p, ok := chooseOpening(features, expectedStart); ok {
		start = p
		metrics.DetectionOutcome("boundary_head", "detected")
	} else {
		metrics.DetectionOutcome("boundary_head", "fallback")

		banners, berr := ffmpeg.DetectBanner(ctx, input, r.assets.Banner, head.startMS, head.durMS)
		if berr != nil {
			if apperrors.IsCancelled(berr) {
				return start, end, false, berr
			}
			logging.Warn("banner analysis failed, using schedule times", "error", berr)
		}
		if p, ok := bannerOpening(banners); ok {
			start = p
			bannerUsed = true
			metrics.DetectionOutcome("banner", "detected")
		} else if r.assets.Banner != "" {
			metrics.DetectionOutcome("banner", "fallback")
		}
	}

	if tail.durMS > 0 {
		features, derr = ffmpeg.DetectBoundaries(ctx, input, r.assets.BoundaryRefs, tail.startMS, tail.durMS)
		if derr != nil {
			if apperrors.IsCancelled(derr) {
				return start, end, bannerUsed, derr
			}
			logging.Warn("boundary analysis failed at tail, using schedule times", "error", derr)
		}
	} else {
		features = nil
	}

	if p, ok := chooseClosing(features, expectedEnd); ok {
		end = p
		metrics.DetectionOutcome("boundary_tail", "detected")
	} else {
		metrics.DetectionOutcome("boundary_tail", "fallback")
	}

	return start, end, bannerUsed, nil
}

// detectCrop measures the active picture width across the trimmed span
// and builds the correction graph. An empty graph selects stream copy.
func (r *Recorder) detectCrop(ctx context.Context, input string, startMS, endMS int64, width, height int) (string, int, error) {
	if !r.cfg.CropVideo || r.assets.Background == "" {
		return "", 0, nil
	}

	observations, err := ffmpeg.DetectCrop(ctx, input, r.assets.Background, startMS, endMS-startMS)
	if err != nil {
		if apperrors.IsCancelled(err) {
			return "", 0, err
		}
		logging.Warn("crop analysis failed, skipping correction", "error", err)
		return "", 0, nil
	}
	if len(observations) == 0 {
		metrics.DetectionOutcome("crop", "fallback")
		return "", 0, nil
	}

	// Observation times are absolute recording times; the correction
	// graph runs on the trimmed output whose clock starts at the trim
	// point.
	for i := range observations {
		observations[i].Time -= startMS
	}

	metrics.DetectionOutcome("crop", "detected")
	return ffmpeg.BuildCorrectionFilter(observations, width, height), len(observations), nil
}

// snapToKeyframe moves a copy-path trim start back onto the nearest
// preceding keyframe. Probe failures keep the requested time.
func (r *Recorder) snapToKeyframe(ctx context.Context, input string, targetMS int64) int64 {
	windowStart := targetMS - keyframeWindowMS
	if windowStart < 0 {
		windowStart = 0
	}

	keyframes, err := keyframe.List(ctx, input, windowStart, targetMS-windowStart+keyframeWindowMS)
	if err != nil {
		logging.Warn("keyframe probe failed, trimming at requested time", "error", err)
		return targetMS
	}

	snapped := keyframe.SnapBefore(keyframes, targetMS)
	if snapped != targetMS {
		logging.Debug("trim start snapped to keyframe",
			"requested", util.FormatTimecode(targetMS),
			"snapped", util.FormatTimecode(snapped))
	}
	return snapped
}
