package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
	"github.com/bietiekay/nhk-record/internal/ffmpeg"
	"github.com/bietiekay/nhk-record/internal/logging"
	"github.com/bietiekay/nhk-record/internal/metrics"
	"github.com/bietiekay/nhk-record/internal/reporter"
	"github.com/bietiekay/nhk-record/internal/schedule"
	"github.com/bietiekay/nhk-record/internal/stream"
	"github.com/bietiekay/nhk-record/internal/util"
)

const (
	// Guide window loaded per cycle. The lookbehind keeps programmes
	// already on air eligible.
	scheduleLookbehind = time.Hour
	scheduleWindow     = 24 * time.Hour

	// idleRecheck is how long to wait before reloading the guide when
	// nothing matched.
	idleRecheck = 15 * time.Minute

	// failureBackoff spaces retries after a failed recording so a
	// persistent fault cannot spin the loop.
	failureBackoff = time.Minute
)

// RunLoop records matching programmes until the context is cancelled.
// A failed recording is logged and the loop moves on to the next
// airing.
func (r *Recorder) RunLoop(ctx context.Context) error {
	sys := util.GetSystemInfo()
	logging.Info("recorder started",
		"host", sys.Hostname,
		"cpus", sys.NumCPU,
		"platform", sys.OS+"/"+sys.Arch)

	for {
		err := r.RecordNext(ctx)
		switch {
		case err == nil:

		case ctx.Err() != nil:
			return ctx.Err()

		case apperrors.IsNoProgramme(err):
			logging.Info("no matching programme in guide window", "recheck_in", idleRecheck)
			if werr := sleepCtx(ctx, idleRecheck); werr != nil {
				return werr
			}

		default:
			logging.Error("recording failed", "error", err)
			r.reporter.Error(reporter.ReporterError{
				Title:   "Recording failed",
				Message: err.Error(),
			})
			if werr := sleepCtx(ctx, failureBackoff); werr != nil {
				return werr
			}
		}
	}
}

// RecordNext picks the next matching airing from the guide and records
// it end to end, sleeping until its capture window opens.
func (r *Recorder) RecordNext(ctx context.Context) error {
	now := time.Now()
	from := now.Add(-scheduleLookbehind)
	to := now.Add(scheduleWindow)

	programmes, err := r.client.Load(ctx, from, to)
	if err != nil {
		return err
	}

	matched := r.matcherSnapshot().Filter(programmes)
	metrics.ScheduleMatched(len(matched))

	next := nextRecordable(matched, now, r.cfg.MinimumDurationMS)

	summary := reporter.ScheduleSummary{
		WindowStart: from,
		WindowEnd:   to,
		Total:       len(programmes),
		Matched:     len(matched),
	}
	if next != nil {
		summary.NextTitle = next.Title
		summary.NextStart = next.StartTime()
	}
	r.reporter.ScheduleLoaded(summary)

	if next == nil {
		return apperrors.NewNoProgrammeError()
	}

	captureAt := next.StartTime().Add(-time.Duration(r.cfg.SafetyBufferMS) * time.Millisecond)
	if err := sleepUntil(ctx, captureAt); err != nil {
		return err
	}

	return r.record(ctx, *next)
}

// UpcomingMatches loads the guide window and returns the matched
// programmes still on air or yet to air, in airing order.
func (r *Recorder) UpcomingMatches(ctx context.Context) ([]schedule.Programme, error) {
	now := time.Now()
	programmes, err := r.client.Load(ctx, now.Add(-scheduleLookbehind), now.Add(scheduleWindow))
	if err != nil {
		return nil, err
	}

	nowMS := now.UnixMilli()
	var upcoming []schedule.Programme
	for _, p := range r.matcherSnapshot().Filter(programmes) {
		if p.EndMS > nowMS {
			upcoming = append(upcoming, p)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartMS < upcoming[j].StartMS
	})
	return upcoming, nil
}

// nextRecordable returns the earliest matched programme still on air or
// yet to air, skipping airings shorter than the configured minimum.
func nextRecordable(matched []schedule.Programme, now time.Time, minDurationMS int64) *schedule.Programme {
	nowMS := now.UnixMilli()

	var next *schedule.Programme
	for i := range matched {
		p := &matched[i]
		if p.EndMS <= nowMS {
			continue
		}
		if p.DurationMS() < minDurationMS {
			logging.Debug("skipping short airing",
				"title", p.Title,
				"duration", util.FormatTimecode(p.DurationMS()))
			continue
		}
		if next == nil || p.StartMS < next.StartMS {
			next = p
		}
	}
	return next
}

// record captures one airing and post-processes it. The raw capture
// survives any failure after capture so it can be trimmed by hand.
func (r *Recorder) record(ctx context.Context, p schedule.Programme) error {
	runID := uuid.NewString()
	started := time.Now()
	logging.Info("recording starting",
		"run_id", runID,
		"title", p.Title,
		"subtitle", p.Subtitle,
		"airing_id", p.AiringID,
		"start", p.StartTime().Format(time.RFC3339),
		"end", p.EndTime().Format(time.RFC3339))

	workDir := r.cfg.GetWorkDir()
	if err := util.EnsureDirectory(workDir); err != nil {
		metrics.RecordingFailed("preflight")
		return err
	}
	if err := r.preflight(ctx, workDir); err != nil {
		metrics.RecordingFailed("preflight")
		return err
	}

	metrics.RecordingStarted()

	base := outputBaseName(p.Title, p.Subtitle, p.StartTime())
	capturePath := util.UniquePath(filepath.Join(workDir, base+"-raw.mkv"))

	r.reporter.RecordingStarted(reporter.RecordingInfo{
		RunID:      runID,
		Title:      p.Title,
		Subtitle:   p.Subtitle,
		Start:      p.StartTime(),
		End:        p.EndTime(),
		OutputFile: capturePath,
	})

	thumbnail, err := r.client.FetchThumbnail(ctx, p, workDir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn("thumbnail fetch failed, capturing without one", "error", err)
		thumbnail = ""
	}

	// Capture runs from now until the scheduled end plus the buffer.
	captureMS := p.EndMS + r.cfg.SafetyBufferMS - time.Now().UnixMilli()
	if captureMS <= 0 {
		metrics.RecordingFailed("capture")
		return apperrors.NewScheduleError(fmt.Sprintf("airing %s already ended", p.AiringID), nil)
	}

	meta := ffmpeg.Metadata{
		Show:        p.Title,
		Title:       p.Subtitle,
		Description: p.Description,
		Synopsis:    p.Content,
		Date:        p.StartTime().UTC().Format("2006-01-02"),
		EpisodeID:   p.AiringID,
	}

	r.reporter.CaptureStarted(captureMS)
	result := ffmpeg.Run(ctx, ffmpeg.CaptureArgs(r.cfg.StreamURL, captureMS, meta, thumbnail, capturePath),
		captureMS, func(pr ffmpeg.Progress) {
			r.reporter.CaptureProgress(progressSnapshot(pr))
		})
	if result.Error != nil {
		metrics.RecordingFailed("capture")
		if util.FileExists(capturePath) {
			logging.Warn("keeping partial capture", "path", capturePath)
		}
		return result.Error
	}

	if size, serr := util.GetFileSize(capturePath); serr == nil {
		logging.Info("capture complete", "path", capturePath, "size", util.FormatBytes(size))
	}

	outcome, err := r.PostProcess(ctx, capturePath, Job{
		Title:              p.Title,
		Subtitle:           p.Subtitle,
		Airing:             p.StartTime(),
		ExpectedStartMS:    r.cfg.SafetyBufferMS,
		ExpectedDurationMS: p.DurationMS(),
		OutputDir:          r.cfg.SaveDir,
		OutputBase:         base,
	})
	if err != nil {
		if ctx.Err() == nil {
			stage := "postprocess"
			if apperrors.IsKind(err, apperrors.KindValidation) {
				stage = "validation"
			}
			metrics.RecordingFailed(stage)
			logging.Warn("keeping raw capture after failed post-processing", "path", capturePath)
		}
		return err
	}

	metrics.RecordingCompleted()
	outcome.TotalTime = time.Since(started)
	r.reporter.RecordingComplete(*outcome)

	if !r.cfg.KeepUntrimmed {
		if rerr := os.Remove(capturePath); rerr != nil {
			logging.Warn("could not remove raw capture", "path", capturePath, "error", rerr)
		}
	}

	logging.Info("recording complete",
		"run_id", runID,
		"output", outcome.OutputFile,
		"elapsed", outcome.TotalTime.Round(time.Second))
	return nil
}

// preflight verifies disk headroom and stream reachability before a
// capture commits. The stream probe retries on a fixed interval since
// the playlist endpoint drops out briefly around programme changes.
func (r *Recorder) preflight(ctx context.Context, workDir string) error {
	if min := uint64(r.cfg.MinDiskGB) * util.GiB; min > 0 {
		if avail := util.AvailableDiskBytes(workDir); avail < min {
			return apperrors.NewIOError(fmt.Sprintf(
				"insufficient disk space in %s: %s available, %s required",
				workDir, util.FormatBytes(avail), util.FormatBytes(min)), nil)
		}
	}

	attempts := r.cfg.StreamRetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(r.cfg.StreamRetryDelaySecs) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		info, err := stream.Probe(ctx, r.cfg.StreamURL)
		if err == nil {
			logging.Debug("stream reachable",
				"master", info.Master,
				"variants", info.VariantCount,
				"segments", info.SegmentCount)
			return nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return err
		}
		if attempt < attempts {
			logging.Warn("stream probe failed, retrying",
				"attempt", attempt,
				"attempts", attempts,
				"delay", delay,
				"error", err)
			if serr := sleepCtx(ctx, delay); serr != nil {
				return serr
			}
		}
	}

	return apperrors.NewStreamError(
		fmt.Sprintf("stream unreachable after %d attempts", attempts), lastErr)
}

func sleepUntil(ctx context.Context, at time.Time) error {
	wait := time.Until(at)
	if wait <= 0 {
		return ctx.Err()
	}
	logging.Info("waiting for capture window",
		"until", at.Format(time.RFC3339),
		"wait", wait.Round(time.Second))
	return sleepCtx(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
