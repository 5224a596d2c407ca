// Package nhkrecord provides a Go library for unattended recording of
// the NHK World-Japan live stream.
//
// A Recorder watches the programme guide for titles matching the
// configured patterns, captures each match off the HLS stream with a
// safety buffer at both ends, then trims the capture back to programme
// content using reference-image boundary detection and validates the
// result.
//
// Basic usage:
//
//	rec, err := nhkrecord.New(
//	    nhkrecord.WithSaveDir("/srv/recordings"),
//	    nhkrecord.WithPatterns("Journeys in Japan", "Document 72 Hours"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := rec.Run(ctx, nil); err != nil {
//	    log.Fatal(err)
//	}
package nhkrecord

import (
	"context"
	"time"

	"github.com/bietiekay/nhk-record/internal/config"
	"github.com/bietiekay/nhk-record/internal/discovery"
	"github.com/bietiekay/nhk-record/internal/recorder"
	"github.com/bietiekay/nhk-record/internal/reporter"
	"github.com/bietiekay/nhk-record/internal/schedule"
)

// Reporter receives progress events during recording and trimming.
type Reporter = reporter.Reporter

// NullReporter discards all progress events.
type NullReporter = reporter.NullReporter

// Programme is one guide entry.
type Programme = schedule.Programme

// Recorder is the main entry point for recording and trimming.
type Recorder struct {
	config *config.Config
}

// Result contains the result of trimming a single capture.
type Result struct {
	OutputFile    string
	OutputSize    uint64
	TrimmedLength string
	Encoded       bool
	TotalTime     time.Duration
}

// Option configures the recorder.
type Option func(*config.Config)

// New creates a Recorder with the given options. WithSaveDir and
// WithPatterns are required for anything useful to happen.
func New(opts ...Option) (*Recorder, error) {
	cfg := config.Default()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Recorder{config: cfg}, nil
}

// WithSaveDir sets where finished recordings land.
func WithSaveDir(dir string) Option {
	return func(c *config.Config) {
		c.SaveDir = dir
	}
}

// WithWorkDir sets where raw captures are written before trimming.
// Defaults to the save directory.
func WithWorkDir(dir string) Option {
	return func(c *config.Config) {
		c.WorkDir = dir
	}
}

// WithAssetsDir sets the directory holding reference art for boundary,
// banner and crop detection. Without it trims fall back to schedule
// times.
func WithAssetsDir(dir string) Option {
	return func(c *config.Config) {
		c.AssetsDir = dir
	}
}

// WithStreamURL overrides the HLS playlist URL.
func WithStreamURL(url string) Option {
	return func(c *config.Config) {
		c.StreamURL = url
	}
}

// WithPatterns sets the case-insensitive title patterns selecting
// which programmes to record.
func WithPatterns(patterns ...string) Option {
	return func(c *config.Config) {
		c.MatchPatterns = patterns
	}
}

// WithSafetyBuffer sets how much is captured before the scheduled
// start and after the scheduled end.
func WithSafetyBuffer(d time.Duration) Option {
	return func(c *config.Config) {
		c.SafetyBufferMS = d.Milliseconds()
	}
}

// WithMinimumDuration skips airings shorter than d.
func WithMinimumDuration(d time.Duration) Option {
	return func(c *config.Config) {
		c.MinimumDurationMS = d.Milliseconds()
	}
}

// WithThreadLimit caps FFmpeg's thread count during post-processing.
func WithThreadLimit(n int) Option {
	return func(c *config.Config) {
		c.ThreadLimit = n
	}
}

// WithoutTrim records the full buffered capture without boundary
// trimming.
func WithoutTrim() Option {
	return func(c *config.Config) {
		c.TrimVideo = false
	}
}

// WithoutCrop disables partial-width crop correction.
func WithoutCrop() Option {
	return func(c *config.Config) {
		c.CropVideo = false
	}
}

// WithKeepUntrimmed keeps the raw capture next to the trimmed output.
func WithKeepUntrimmed() Option {
	return func(c *config.Config) {
		c.KeepUntrimmed = true
	}
}

// Run records matching programmes until the context is cancelled. A
// nil reporter disables progress reporting.
func (r *Recorder) Run(ctx context.Context, rep Reporter) error {
	rec, err := recorder.New(r.config, rep)
	if err != nil {
		return err
	}
	return rec.RunLoop(ctx)
}

// RecordNext records the next matching programme and returns.
func (r *Recorder) RecordNext(ctx context.Context, rep Reporter) error {
	rec, err := recorder.New(r.config, rep)
	if err != nil {
		return err
	}
	return rec.RecordNext(ctx)
}

// Trim post-processes a single capture, writing the trimmed output to
// the save directory. The input is left in place.
func (r *Recorder) Trim(ctx context.Context, input string, rep Reporter) (*Result, error) {
	rec, err := recorder.New(r.config, rep)
	if err != nil {
		return nil, err
	}

	outcome, err := rec.ProcessFile(ctx, input)
	if err != nil {
		return nil, err
	}

	return &Result{
		OutputFile:    outcome.OutputFile,
		OutputSize:    outcome.OutputSize,
		TrimmedLength: outcome.TrimmedLength,
		Encoded:       outcome.Encoded,
		TotalTime:     outcome.TotalTime,
	}, nil
}

// TrimDir post-processes every capture found in inputDir. Individual
// failures are reported and the batch continues.
func (r *Recorder) TrimDir(ctx context.Context, inputDir string, rep Reporter) error {
	rec, err := recorder.New(r.config, rep)
	if err != nil {
		return err
	}

	files, err := discovery.FindRecordings(inputDir)
	if err != nil {
		return err
	}
	return rec.ProcessFiles(ctx, files)
}

// Schedule returns the matched programmes on air or airing within the
// next day, earliest first.
func (r *Recorder) Schedule(ctx context.Context) ([]Programme, error) {
	rec, err := recorder.New(r.config, nil)
	if err != nil {
		return nil, err
	}
	return rec.UpcomingMatches(ctx)
}
