// Package recorder drives the capture pipeline: it watches the
// programme guide for matches, records them off the live stream with a
// safety buffer at both ends, then trims each capture back to
// programme content and validates the result.
package recorder

import (
	"path/filepath"
	"sync"

	"github.com/bietiekay/nhk-record/internal/config"
	"github.com/bietiekay/nhk-record/internal/ffmpeg"
	"github.com/bietiekay/nhk-record/internal/logging"
	"github.com/bietiekay/nhk-record/internal/reporter"
	"github.com/bietiekay/nhk-record/internal/schedule"
)

// Recorder owns the long-running recording pipeline.
type Recorder struct {
	cfg      *config.Config
	client   *schedule.Client
	reporter reporter.Reporter
	assets   *Assets

	mu      sync.RWMutex
	matcher *schedule.Matcher
}

// New creates a Recorder from validated configuration. A nil reporter
// disables progress reporting.
func New(cfg *config.Config, rep reporter.Reporter) (*Recorder, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	matcher, err := schedule.NewMatcher(cfg.MatchPatterns)
	if err != nil {
		return nil, err
	}

	client := schedule.NewClient(schedule.ClientOptions{
		BaseURL:   cfg.ScheduleBaseURL,
		CachePath: filepath.Join(cfg.GetWorkDir(), "schedule-cache.json"),
	})

	assets, err := LoadAssets(cfg.AssetsDir)
	if err != nil {
		logging.Warn("could not load reference art, trims will use schedule times", "error", err)
		assets = &Assets{}
	}

	return &Recorder{
		cfg:      cfg,
		client:   client,
		reporter: rep,
		assets:   assets,
		matcher:  matcher,
	}, nil
}

// UpdatePatterns swaps the programme matcher, typically on a config
// reload. A recording already in flight is unaffected.
func (r *Recorder) UpdatePatterns(patterns []string) error {
	matcher, err := schedule.NewMatcher(patterns)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.matcher = matcher
	r.mu.Unlock()

	logging.Info("match patterns updated", "patterns", len(patterns))
	return nil
}

func (r *Recorder) matcherSnapshot() *schedule.Matcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matcher
}

func progressSnapshot(p ffmpeg.Progress) reporter.ProgressSnapshot {
	return reporter.ProgressSnapshot{
		CurrentFrame: p.CurrentFrame,
		Percent:      p.Percent,
		Speed:        p.Speed,
		FPS:          p.FPS,
		ETA:          p.ETA,
		Bitrate:      p.Bitrate,
	}
}
