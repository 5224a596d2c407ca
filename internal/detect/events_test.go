package detect

import (
	"reflect"
	"testing"
)

func TestParseSilences(t *testing.T) {
	lines := []string{
		"[silencedetect @ 0x5640a1b2c3d0] silence_start: 8.5",
		"[silencedetect @ 0x5640a1b2c3d0] silence_end: 10.500 | silence_duration: 2.000",
		"frame= 1234 fps=250 q=-1.0 size=  102400KiB time=00:00:49.36 bitrate=16998.2kbits/s speed=9.87x",
		"[silencedetect @ 0x5640a1b2c3d0] silence_end: 65.25 | silence_duration: 0.75",
	}

	got := ParseSilences(lines)
	want := []Silence{
		{Start: 8500, End: 10500},
		{Start: 64500, End: 65250},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSilences() = %v, want %v", got, want)
	}
}

func TestParseSilences_IntegerSeconds(t *testing.T) {
	lines := []string{
		"[silencedetect @ 0x7fc1f3625880] silence_end: 10 | silence_duration: 2",
	}

	got := ParseSilences(lines)
	want := []Silence{{Start: 8000, End: 10000}}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSilences() = %v, want %v", got, want)
	}
}

func TestParseSilences_NoMatches(t *testing.T) {
	lines := []string{
		"Input #0, matroska,webm, from 'capture.mkv':",
		"  Duration: 00:30:00.02, start: 0.000000, bitrate: 9568 kb/s",
		"",
	}

	if got := ParseSilences(lines); got != nil {
		t.Errorf("ParseSilences() = %v, want nil", got)
	}
}

func TestParseFrameEvents(t *testing.T) {
	lines := []string{
		"[Parsed_blackframe_3 @ 0x5640a1b2c3d0] frame:120 pblack:99 pts:4800 t:4.800 type:P last_keyframe:96",
		"[Parsed_blackframe_3 @ 0x5640a1b2c3d0] frame:121 pblack:100 pts:4840 t:4.840 type:P last_keyframe:96",
		"[Parsed_blackframe_5 @ 0x5640a1b2c3d0] frame:7201 pblack:98 pts:288040 t:288.040 type:I last_keyframe:7200",
		"[silencedetect @ 0x5640a1b2c3d0] silence_end: 10.500 | silence_duration: 2.000",
	}

	got := ParseFrameEvents(lines)
	want := []FrameEvent{
		{Filter: 3, Frame: 120, Time: 4800},
		{Filter: 3, Frame: 121, Time: 4840},
		{Filter: 5, Frame: 7201, Time: 288040},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFrameEvents() = %v, want %v", got, want)
	}
}

func TestParseFrameEvents_Rounding(t *testing.T) {
	lines := []string{
		"[Parsed_blackframe_3 @ 0x55d] frame:1 pblack:99 pts:33 t:0.0334 type:P last_keyframe:0",
		"[Parsed_blackframe_3 @ 0x55d] frame:2 pblack:99 pts:66 t:0.0667 type:P last_keyframe:0",
	}

	got := ParseFrameEvents(lines)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Time != 33 {
		t.Errorf("got[0].Time = %d, want 33", got[0].Time)
	}
	if got[1].Time != 67 {
		t.Errorf("got[1].Time = %d, want 67", got[1].Time)
	}
}

func TestParseCropObservations(t *testing.T) {
	lines := []string{
		"[Parsed_cropdetect_2 @ 0x5640a1b2c3d0] x1:240 x2:1679 y1:0 y2:1079 w:1440 h:1080 x:240 y:0 pts:98 t:3.920 crop=1440:1080:240:0",
		"[Parsed_cropdetect_2 @ 0x5640a1b2c3d0] x1:0 x2:1919 y1:0 y2:1079 w:1920 h:1080 x:0 y:0 pts:199 t:7.960 crop=1920:1080:0:0",
		"frame= 1234 fps=250 q=-1.0 size=N/A time=00:00:49.36 bitrate=N/A speed=9.87x",
	}

	got := ParseCropObservations(lines)
	want := []CropObservation{
		{Time: 3920, Width: 1440},
		{Time: 7960, Width: 1920},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCropObservations() = %v, want %v", got, want)
	}
}

func TestParseMixedAnalysisLog(t *testing.T) {
	// A slice of a real analysis run interleaves all three families with
	// ordinary progress chatter; each parser must pick out only its own.
	lines := []string{
		"ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers",
		"[silencedetect @ 0x558a] silence_start: 0",
		"[Parsed_blackframe_3 @ 0x558a] frame:12 pblack:100 pts:480 t:0.480 type:P last_keyframe:0",
		"[silencedetect @ 0x558a] silence_end: 1.250 | silence_duration: 1.250",
		"[Parsed_cropdetect_2 @ 0x558a] x1:240 x2:1679 y1:0 y2:1079 w:1440 h:1080 x:240 y:0 pts:25 t:1.000 crop=1440:1080:240:0",
		"frame=  100 fps=0.0 q=-0.0 size=N/A time=00:00:04.00 bitrate=N/A speed=8.01x",
	}

	if got := ParseSilences(lines); len(got) != 1 || got[0] != (Silence{Start: 0, End: 1250}) {
		t.Errorf("ParseSilences() = %v, want [{0 1250}]", got)
	}
	if got := ParseFrameEvents(lines); len(got) != 1 || got[0] != (FrameEvent{Filter: 3, Frame: 12, Time: 480}) {
		t.Errorf("ParseFrameEvents() = %v, want [{3 12 480}]", got)
	}
	if got := ParseCropObservations(lines); len(got) != 1 || got[0] != (CropObservation{Time: 1000, Width: 1440}) {
		t.Errorf("ParseCropObservations() = %v, want [{1000 1440}]", got)
	}
}

func TestSilenceDuration(t *testing.T) {
	s := Silence{Start: 8500, End: 10500}
	if got := s.Duration(); got != 2000 {
		t.Errorf("Duration() = %d, want 2000", got)
	}
}
