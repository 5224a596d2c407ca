package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	ScheduleLoaded(summary ScheduleSummary)
	RecordingStarted(info RecordingInfo)
	CaptureStarted(durationMS int64)
	CaptureProgress(progress ProgressSnapshot)
	DetectionComplete(summary DetectionSummary)
	PostProcessStarted(encoded bool)
	PostProcessProgress(progress ProgressSnapshot)
	ValidationComplete(summary ValidationSummary)
	RecordingComplete(summary RecordingOutcome)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) ScheduleLoaded(ScheduleSummary)       {}
func (NullReporter) RecordingStarted(RecordingInfo)       {}
func (NullReporter) CaptureStarted(int64)                 {}
func (NullReporter) CaptureProgress(ProgressSnapshot)     {}
func (NullReporter) DetectionComplete(DetectionSummary)   {}
func (NullReporter) PostProcessStarted(bool)              {}
func (NullReporter) PostProcessProgress(ProgressSnapshot) {}
func (NullReporter) ValidationComplete(ValidationSummary) {}
func (NullReporter) RecordingComplete(RecordingOutcome)   {}
func (NullReporter) Warning(string)                       {}
func (NullReporter) Error(ReporterError)                  {}
func (NullReporter) OperationComplete(string)             {}
