package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) ScheduleLoaded(summary ScheduleSummary) {
	for _, r := range c.reporters {
		r.ScheduleLoaded(summary)
	}
}

func (c *CompositeReporter) RecordingStarted(info RecordingInfo) {
	for _, r := range c.reporters {
		r.RecordingStarted(info)
	}
}

func (c *CompositeReporter) CaptureStarted(durationMS int64) {
	for _, r := range c.reporters {
		r.CaptureStarted(durationMS)
	}
}

func (c *CompositeReporter) CaptureProgress(progress ProgressSnapshot) {
	for _, r := range c.reporters {
		r.CaptureProgress(progress)
	}
}

func (c *CompositeReporter) DetectionComplete(summary DetectionSummary) {
	for _, r := range c.reporters {
		r.DetectionComplete(summary)
	}
}

func (c *CompositeReporter) PostProcessStarted(encoded bool) {
	for _, r := range c.reporters {
		r.PostProcessStarted(encoded)
	}
}

func (c *CompositeReporter) PostProcessProgress(progress ProgressSnapshot) {
	for _, r := range c.reporters {
		r.PostProcessProgress(progress)
	}
}

func (c *CompositeReporter) ValidationComplete(summary ValidationSummary) {
	for _, r := range c.reporters {
		r.ValidationComplete(summary)
	}
}

func (c *CompositeReporter) RecordingComplete(summary RecordingOutcome) {
	for _, r := range c.reporters {
		r.RecordingComplete(summary)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}
