package reporter

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/bietiekay/nhk-record/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	progress   *progressbar.ProgressBar
	maxPercent float32
	cyan       *color.Color
	green      *color.Color
	boldGreen  *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
}

// NewTerminalReporter creates a new terminal reporter.
func NewTerminalReporter() *TerminalReporter {
	return &TerminalReporter{
		cyan:      color.New(color.FgCyan, color.Bold),
		green:     color.New(color.FgGreen),
		boldGreen: color.New(color.FgGreen, color.Bold),
		yellow:    color.New(color.FgYellow, color.Bold),
		red:       color.New(color.FgRed, color.Bold),
		magenta:   color.New(color.FgMagenta),
		bold:      color.New(color.Bold),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) ScheduleLoaded(summary ScheduleSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("SCHEDULE")
	r.printLabel(10, "Window:", fmt.Sprintf("%s to %s",
		summary.WindowStart.Format("2006-01-02 15:04"),
		summary.WindowEnd.Format("2006-01-02 15:04")))
	r.printLabel(10, "Listed:", fmt.Sprintf("%d programmes", summary.Total))
	r.printLabel(10, "Matched:", fmt.Sprintf("%d", summary.Matched))
	if summary.NextTitle != "" {
		r.printLabel(10, "Next:", fmt.Sprintf("%s at %s",
			summary.NextTitle, summary.NextStart.Format("2006-01-02 15:04")))
	}
}

func (r *TerminalReporter) RecordingStarted(info RecordingInfo) {
	title := info.Title
	if info.Subtitle != "" {
		title = fmt.Sprintf("%s: %s", info.Title, info.Subtitle)
	}

	fmt.Println()
	_, _ = r.cyan.Println("RECORDING")
	r.printLabel(10, "Programme:", title)
	r.printLabel(10, "Airing:", fmt.Sprintf("%s to %s",
		info.Start.Format("15:04:05"), info.End.Format("15:04:05")))
	r.printLabel(10, "Output:", info.OutputFile)
	r.printLabel(10, "Run:", info.RunID)
}

func (r *TerminalReporter) startProgress(barStart string) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      barStart,
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) updateProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := progress.Percent
	if clamped > 100 {
		clamped = 100
	}
	if clamped < 0 {
		clamped = 0
	}

	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	desc := fmt.Sprintf("speed %.1fx, fps %.1f, eta %s",
		progress.Speed, progress.FPS, util.FormatDuration(progress.ETA.Seconds()))
	r.progress.Describe(desc)
}

func (r *TerminalReporter) CaptureStarted(durationMS int64) {
	fmt.Println()
	fmt.Printf("  %s capturing %s of stream\n",
		r.magenta.Sprint("›"), util.FormatTimecode(durationMS))
	r.startProgress("Capturing [")
}

func (r *TerminalReporter) CaptureProgress(progress ProgressSnapshot) {
	r.updateProgress(progress)
}

func (r *TerminalReporter) DetectionComplete(summary DetectionSummary) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("DETECTION")

	faint := color.New(color.Faint)

	head := faint.Sprint("schedule fallback")
	if summary.HeadDetected {
		head = r.green.Sprint(summary.HeadStrategy)
	} else if summary.BannerUsed {
		head = r.green.Sprint("banner fallback")
	}
	r.printLabel(8, "Start:", head)

	tail := faint.Sprint("schedule fallback")
	if summary.TailDetected {
		tail = r.green.Sprint(summary.TailStrategy)
	}
	r.printLabel(8, "End:", tail)

	crop := faint.Sprint("full width")
	if summary.CropWindows > 0 {
		crop = r.green.Sprintf("%d partial-width window(s)", summary.CropWindows)
	}
	r.printLabel(8, "Crop:", crop)

	r.printLabel(8, "Trim:", fmt.Sprintf("%s to %s", summary.TrimStart, summary.TrimEnd))
}

func (r *TerminalReporter) PostProcessStarted(encoded bool) {
	mode := "stream copy"
	if encoded {
		mode = "re-encode with geometry correction"
	}

	fmt.Println()
	_, _ = r.cyan.Println("POST-PROCESS")
	fmt.Printf("  %s %s\n", r.magenta.Sprint("›"), mode)
	r.startProgress("Processing [")
}

func (r *TerminalReporter) PostProcessProgress(progress ProgressSnapshot) {
	r.updateProgress(progress)
}

func (r *TerminalReporter) ValidationComplete(summary ValidationSummary) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("VALIDATION")

	if summary.Passed {
		fmt.Printf("  %s\n", r.boldGreen.Sprint("All checks passed"))
	} else {
		fmt.Printf("  %s\n", r.red.Sprint("Validation failed"))
	}

	// Find the longest step name for alignment
	maxLen := 0
	for _, step := range summary.Steps {
		if len(step.Name) > maxLen {
			maxLen = len(step.Name)
		}
	}

	for _, step := range summary.Steps {
		var status string
		if step.Passed {
			status = r.green.Sprint("✓")
		} else {
			status = r.red.Sprint("✗")
		}
		paddedName := fmt.Sprintf("%-*s", maxLen, step.Name)
		fmt.Printf("  - %s: %s (%s)\n", paddedName, status, step.Details)
	}
}

func (r *TerminalReporter) RecordingComplete(summary RecordingOutcome) {
	r.finishProgress()

	video := "stream copy"
	if summary.Encoded {
		video = "re-encoded"
	}

	fmt.Println()
	_, _ = r.cyan.Println("RESULTS")
	r.printLabel(8, "Title:", summary.Title)
	r.printLabel(8, "Size:", util.FormatBytes(summary.OutputSize))
	r.printLabel(8, "Length:", summary.TrimmedLength)
	r.printLabel(8, "Video:", video)
	fmt.Printf("  %s %s\n", r.bold.Sprint("Time:"),
		util.FormatDuration(summary.TotalTime.Seconds()))
	fmt.Printf("  %s %s\n", r.bold.Sprint("Saved to"), r.green.Sprint(summary.OutputFile))
}

func (r *TerminalReporter) Warning(message string) {
	fmt.Println()
	_, _ = r.yellow.Printf("WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	_, _ = fmt.Fprintln(os.Stderr)
	_, _ = r.red.Fprintf(os.Stderr, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	fmt.Println()
	fmt.Printf("%s %s\n", r.boldGreen.Sprint("✓"), r.bold.Sprint(message))
}
