package validation

import (
	"context"
	"os"

	"github.com/bietiekay/nhk-record/internal/ffprobe"
)

// DefaultAnalyzer implements MediaAnalyzer using the filesystem and ffprobe.
type DefaultAnalyzer struct{}

// NewDefaultAnalyzer creates a new DefaultAnalyzer instance.
func NewDefaultAnalyzer() *DefaultAnalyzer {
	return &DefaultAnalyzer{}
}

// FileSize returns the size in bytes of the file at path.
func (a *DefaultAnalyzer) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ProbeMedia returns probed container properties using ffprobe.
func (a *DefaultAnalyzer) ProbeMedia(ctx context.Context, path string) (*AnalyzerMediaInfo, error) {
	info, err := ffprobe.GetMediaInfo(ctx, path)
	if err != nil {
		return nil, err
	}
	return &AnalyzerMediaInfo{
		DurationMS:  info.DurationMS,
		Width:       info.Width,
		Height:      info.Height,
		StreamCount: info.StreamCount,
	}, nil
}
