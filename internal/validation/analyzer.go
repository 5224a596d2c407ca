package validation

import "context"

// MediaAnalyzer provides the filesystem and probe lookups validation
// runs against a post-processed recording. The interface allows
// validation logic to be tested without ffprobe or real files.
type MediaAnalyzer interface {
	// FileSize returns the size in bytes of the file at path.
	FileSize(path string) (int64, error)

	// ProbeMedia returns probed container properties for the file at path.
	ProbeMedia(ctx context.Context, path string) (*AnalyzerMediaInfo, error)
}

// AnalyzerMediaInfo contains the probed properties validation checks.
type AnalyzerMediaInfo struct {
	DurationMS  int64
	Width       int
	Height      int
	StreamCount int
}
