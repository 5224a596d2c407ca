package recorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bietiekay/nhk-record/internal/logging"
	"github.com/bietiekay/nhk-record/internal/reporter"
	"github.com/bietiekay/nhk-record/internal/util"
)

// ProcessFile trims and validates a single capture without touching
// the input. The schedule span is derived from the capture length and
// the configured safety buffer.
func (r *Recorder) ProcessFile(ctx context.Context, file string) (*reporter.RecordingOutcome, error) {
	started := time.Now()

	// Raw captures are named <base>-raw.mkv; the trimmed output takes
	// the base name.
	base := strings.TrimSuffix(util.GetFileStem(file), "-raw")

	outcome, err := r.PostProcess(ctx, file, Job{
		Title:           base,
		ExpectedStartMS: r.cfg.SafetyBufferMS,
		OutputDir:       r.cfg.SaveDir,
		OutputBase:      base,
	})
	if err != nil {
		return nil, err
	}

	outcome.TotalTime = time.Since(started)
	return outcome, nil
}

// ProcessFiles trims and validates captures that never made it through
// post-processing, typically after a crash or a capture interrupted at
// shutdown. Inputs are never deleted. Errors on individual files are
// reported and the batch continues.
func (r *Recorder) ProcessFiles(ctx context.Context, files []string) error {
	started := time.Now()
	processed := 0

	for _, file := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logging.Info("processing capture", "file", file)

		outcome, err := r.ProcessFile(ctx, file)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			logging.Error("processing failed", "file", file, "error", err)
			r.reporter.Error(reporter.ReporterError{
				Title:   fmt.Sprintf("Failed to process %s", util.GetFilename(file)),
				Message: err.Error(),
			})
			continue
		}

		r.reporter.RecordingComplete(*outcome)
		processed++
	}

	r.reporter.OperationComplete(fmt.Sprintf(
		"Processed %d of %d recordings in %s",
		processed, len(files), time.Since(started).Round(time.Second)))

	return nil
}
