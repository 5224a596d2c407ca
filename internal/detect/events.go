// Package detect locates programme boundaries, overlay banners, and crop
// windows in captured recordings by interpreting FFmpeg analysis output.
package detect

import (
	"math"
	"regexp"
	"strconv"
)

// Silence is a half-open window of audio silence, in milliseconds.
type Silence struct {
	Start int64
	End   int64
}

// Duration returns the window length in milliseconds.
func (s Silence) Duration() int64 {
	return s.End - s.Start
}

// FrameEvent is one frame-difference observation attributed to a
// numbered comparison filter.
type FrameEvent struct {
	Filter int
	Frame  int64
	Time   int64
}

// CropObservation is one crop-candidate sample: the detected active
// picture width at a moment in the recording.
type CropObservation struct {
	Time  int64
	Width int
}

// Feature is a contiguous run of frame events collapsed into a single
// boundary candidate. Times are milliseconds.
type Feature struct {
	Start      int64
	End        int64
	FirstFrame int64
	LastFrame  int64
}

// Diagnostic line shapes emitted by the analysis filters:
//
//	[silencedetect @ 0x5640] silence_end: 10.5 | silence_duration: 2.0
//	[Parsed_blackframe_3 @ 0x5640] frame:120 pblack:99 pts:4800 t:4.800 type:P last_keyframe:96
//	[Parsed_cropdetect_2 @ 0x5640] x1:240 x2:1679 y1:0 y2:1079 w:1440 h:1080 x:240 y:0 pts:98 t:3.920 crop=1440:1080:240:0
var (
	silenceRegex = regexp.MustCompile(`silence_end:\s*(?P<end>-?\d+(?:\.\d+)?)\s*\|\s*silence_duration:\s*(?P<duration>\d+(?:\.\d+)?)`)
	frameRegex   = regexp.MustCompile(`Parsed_blackframe_(?P<filter>\d+).*?\sframe:(?P<frame>\d+).*?\st:(?P<time>\d+(?:\.\d+)?)`)
	cropRegex    = regexp.MustCompile(`Parsed_cropdetect_(?P<filter>\d+).*?\sw:(?P<width>\d+).*?\st:(?P<time>\d+(?:\.\d+)?)`)
)

var (
	silenceEndIdx      = silenceRegex.SubexpIndex("end")
	silenceDurationIdx = silenceRegex.SubexpIndex("duration")
	frameFilterIdx     = frameRegex.SubexpIndex("filter")
	frameFrameIdx      = frameRegex.SubexpIndex("frame")
	frameTimeIdx       = frameRegex.SubexpIndex("time")
	cropFilterIdx      = cropRegex.SubexpIndex("filter")
	cropWidthIdx       = cropRegex.SubexpIndex("width")
	cropTimeIdx        = cropRegex.SubexpIndex("time")
)

// toMillis converts fractional seconds to whole milliseconds.
func toMillis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// ParseSilences extracts silence windows from analysis output.
// Lines that do not carry a silence marker are skipped.
func ParseSilences(lines []string) []Silence {
	var silences []Silence
	for _, line := range lines {
		m := silenceRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		end, err := strconv.ParseFloat(m[silenceEndIdx], 64)
		if err != nil {
			continue
		}
		duration, err := strconv.ParseFloat(m[silenceDurationIdx], 64)
		if err != nil {
			continue
		}

		endMS := toMillis(end)
		silences = append(silences, Silence{
			Start: endMS - toMillis(duration),
			End:   endMS,
		})
	}
	return silences
}

// ParseFrameEvents extracts frame-difference events from analysis output.
// Lines that do not carry a blackframe marker are skipped.
func ParseFrameEvents(lines []string) []FrameEvent {
	var events []FrameEvent
	for _, line := range lines {
		m := frameRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		filter, err := strconv.Atoi(m[frameFilterIdx])
		if err != nil {
			continue
		}
		frame, err := strconv.ParseInt(m[frameFrameIdx], 10, 64)
		if err != nil {
			continue
		}
		seconds, err := strconv.ParseFloat(m[frameTimeIdx], 64)
		if err != nil {
			continue
		}

		events = append(events, FrameEvent{
			Filter: filter,
			Frame:  frame,
			Time:   toMillis(seconds),
		})
	}
	return events
}

// ParseCropObservations extracts crop-candidate samples from analysis
// output, in encounter order. Lines that do not carry a cropdetect
// marker are skipped.
func ParseCropObservations(lines []string) []CropObservation {
	var observations []CropObservation
	for _, line := range lines {
		m := cropRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		width, err := strconv.Atoi(m[cropWidthIdx])
		if err != nil {
			continue
		}
		seconds, err := strconv.ParseFloat(m[cropTimeIdx], 64)
		if err != nil {
			continue
		}

		observations = append(observations, CropObservation{
			Time:  toMillis(seconds),
			Width: width,
		})
	}
	return observations
}
