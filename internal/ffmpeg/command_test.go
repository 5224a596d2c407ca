package ffmpeg

import (
	"slices"
	"strings"
	"testing"
)

func TestCaptureArgs(t *testing.T) {
	meta := Metadata{
		Show:  "Journeys in Japan",
		Title: "Kyoto by Bicycle",
		Date:  "2026-08-20",
	}

	args := CaptureArgs("https://example.com/live/master.m3u8", 1800000, meta, "/tmp/thumb.jpg", "/recordings/capture.mkv")

	want := []string{
		"-hide_banner", "-y",
		"-i", "https://example.com/live/master.m3u8",
		"-i", "/tmp/thumb.jpg",
		"-t", "1800.000",
		"-map", "0",
		"-map", "1", "-disposition:v:1", "attached_pic",
		"-c", "copy",
		"-metadata", "show=Journeys in Japan",
		"-metadata", "title=Kyoto by Bicycle",
		"-metadata", "date=2026-08-20",
		"-metadata", "network=NHK World-Japan",
		"-f", "matroska", "/recordings/capture.mkv",
	}
	if !slices.Equal(args, want) {
		t.Errorf("CaptureArgs() =\n%v\nwant\n%v", args, want)
	}
}

func TestCaptureArgsNoThumbnail(t *testing.T) {
	args := CaptureArgs("https://example.com/live/master.m3u8", 900000, Metadata{}, "", "/recordings/capture.mkv")

	joined := strings.Join(args, " ")
	if strings.Contains(joined, "-map 1") {
		t.Errorf("capture without thumbnail should not map a second input: %s", joined)
	}
	if strings.Contains(joined, "attached_pic") {
		t.Errorf("capture without thumbnail should not set a picture disposition: %s", joined)
	}
	if !strings.Contains(joined, "-t 900.000") {
		t.Errorf("capture should bound the recording length: %s", joined)
	}
}

func TestMetadataArgsSkipsEmptyFields(t *testing.T) {
	args := metadataArgs(Metadata{Title: "News at Noon"})

	want := []string{
		"-metadata", "title=News at Noon",
		"-metadata", "network=NHK World-Japan",
	}
	if !slices.Equal(args, want) {
		t.Errorf("metadataArgs() = %v, want %v", args, want)
	}
}

func TestPostProcessArgsCopy(t *testing.T) {
	args := PostProcessArgs(PostProcessOptions{
		Input:   "/recordings/capture.mkv",
		Output:  "/recordings/trimmed.mkv",
		StartMS: 90500,
		EndMS:   1890500,
	})

	want := []string{
		"-hide_banner", "-y",
		"-ss", "90.500",
		"-i", "/recordings/capture.mkv",
		"-t", "1800.000",
		"-map", "0", "-c", "copy",
		"-map_metadata", "0",
		"-f", "matroska", "/recordings/trimmed.mkv",
	}
	if !slices.Equal(args, want) {
		t.Errorf("PostProcessArgs() =\n%v\nwant\n%v", args, want)
	}
}

func TestPostProcessArgsEncode(t *testing.T) {
	graph := "color=c=black:s=1920x1080[base];[comp]crop=1920:1080:0:0[vout]"
	args := PostProcessArgs(PostProcessOptions{
		Input:        "/recordings/capture.mkv",
		Output:       "/recordings/trimmed.mkv",
		StartMS:      0,
		EndMS:        600000,
		FilterGraph:  graph,
		HasThumbnail: true,
		Threads:      4,
	})

	joined := strings.Join(args, " ")
	for _, fragment := range []string{
		"-threads 4",
		"-filter_complex " + graph,
		"-map [vout]",
		"-map 0:a",
		"-map 0:v:1 -c:v:1 copy -disposition:v:1 attached_pic",
		"-c:v:0 libx264 -preset veryfast -crf 18",
		"-c:a copy",
		"-map_metadata 0",
	} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("encode args missing %q:\n%s", fragment, joined)
		}
	}
	if strings.Contains(joined, "-c copy") {
		t.Errorf("encode path should not stream-copy everything: %s", joined)
	}
}

func TestPostProcessArgsEncodeNoThumbnail(t *testing.T) {
	args := PostProcessArgs(PostProcessOptions{
		Input:       "/recordings/capture.mkv",
		Output:      "/recordings/trimmed.mkv",
		EndMS:       600000,
		FilterGraph: "x[vout]",
	})

	joined := strings.Join(args, " ")
	if strings.Contains(joined, "0:v:1") {
		t.Errorf("encode without thumbnail should not map a picture stream: %s", joined)
	}
	if strings.Contains(joined, "-threads") {
		t.Errorf("thread cap should be absent when unset: %s", joined)
	}
}
