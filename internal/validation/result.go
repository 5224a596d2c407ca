package validation

// Result contains the overall validation result for one trimmed output.
type Result struct {
	Exists               bool
	IsSizeSufficient     bool
	IsDurationCorrect    bool
	IsStreamCountCorrect bool

	// Details
	OutputSize         int64
	ExistsMessage      string
	SizeMessage        string
	ActualDurationMS   *int64
	ExpectedDurationMS *int64
	DurationMessage    string
	ActualStreams      *int
	ExpectedStreams    *int
	StreamMessage      string
}

// ValidationStep represents a single validation check.
type ValidationStep struct {
	Name    string
	Passed  bool
	Details string
}

// IsValid returns true if all validation checks passed.
func (r *Result) IsValid() bool {
	return r.Exists &&
		r.IsSizeSufficient &&
		r.IsDurationCorrect &&
		r.IsStreamCountCorrect
}

// GetValidationSteps returns all validation steps with results.
func (r *Result) GetValidationSteps() []ValidationStep {
	steps := []ValidationStep{
		{
			Name:    "Output file",
			Passed:  r.Exists,
			Details: r.ExistsMessage,
		},
		{
			Name:    "Output size",
			Passed:  r.IsSizeSufficient,
			Details: r.SizeMessage,
		},
		{
			Name:    "Trimmed duration",
			Passed:  r.IsDurationCorrect,
			Details: r.DurationMessage,
		},
		{
			Name:    "Stream count",
			Passed:  r.IsStreamCountCorrect,
			Details: r.StreamMessage,
		},
	}
	return steps
}

// GetFailures returns descriptions of failed validation checks.
func (r *Result) GetFailures() []string {
	var failures []string
	for _, step := range r.GetValidationSteps() {
		if !step.Passed {
			failures = append(failures, step.Name+": "+step.Details)
		}
	}
	return failures
}
