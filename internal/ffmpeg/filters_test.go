package ffmpeg

import (
	"strings"
	"testing"

	"github.com/bietiekay/nhk-record/internal/detect"
)

func TestVideoFilterChain(t *testing.T) {
	chain := NewVideoFilterChain()
	if !chain.IsEmpty() {
		t.Error("new chain should be empty")
	}
	if got := chain.Build(); got != "" {
		t.Errorf("Build() on empty chain = %q, want empty", got)
	}

	chain.AddFilter("scale=1920:1080").AddFilter("").AddFilter("split=2")
	if chain.IsEmpty() {
		t.Error("chain with filters should not be empty")
	}
	if got, want := chain.Build(), "scale=1920:1080,split=2"; got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuildCorrectionFilterEmpty(t *testing.T) {
	if got := BuildCorrectionFilter(nil, 1920, 1080); got != "" {
		t.Errorf("BuildCorrectionFilter(nil) = %q, want empty", got)
	}
	if got := BuildCorrectionFilter([]detect.CropObservation{}, 1920, 1080); got != "" {
		t.Errorf("BuildCorrectionFilter(empty) = %q, want empty", got)
	}
}

func TestBuildCorrectionFilterFullWidth(t *testing.T) {
	obs := []detect.CropObservation{{Time: 0, Width: 1920}}
	got := BuildCorrectionFilter(obs, 1920, 1080)

	want := "color=c=black:s=1920x1080[base];" +
		"[0:v:0]scale=w='1920':h=1080:eval=frame[scaled];" +
		"[base][scaled]overlay=x='0':y=0:shortest=1[comp];" +
		"[comp]crop=1920:1080:0:0[vout]"
	if got != want {
		t.Errorf("BuildCorrectionFilter() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildCorrectionFilterNested(t *testing.T) {
	obs := []detect.CropObservation{
		{Time: 0, Width: 1920},
		{Time: 60000, Width: 1440},
	}
	got := BuildCorrectionFilter(obs, 1920, 1080)

	wantWidth := "if(gte(t,60.000),2560,1920)"
	wantOffset := "if(gte(t,60.000),-240,0)"
	if !strings.Contains(got, "scale=w='"+wantWidth+"'") {
		t.Errorf("graph missing width expression %q:\n%s", wantWidth, got)
	}
	if !strings.Contains(got, "overlay=x='"+wantOffset+"'") {
		t.Errorf("graph missing offset expression %q:\n%s", wantOffset, got)
	}
}

func TestBuildCorrectionFilterThreeObservations(t *testing.T) {
	// The earliest observation supplies the innermost value, the most
	// recent the outermost condition.
	obs := []detect.CropObservation{
		{Time: 0, Width: 1920},
		{Time: 60000, Width: 1440},
		{Time: 300000, Width: 1920},
	}
	got := BuildCorrectionFilter(obs, 1920, 1080)

	wantWidth := "if(gte(t,300.000),1920,if(gte(t,60.000),2560,1920))"
	if !strings.Contains(got, "scale=w='"+wantWidth+"'") {
		t.Errorf("graph missing width expression %q:\n%s", wantWidth, got)
	}
}

func TestBuildCorrectionFilterProbedDimensions(t *testing.T) {
	obs := []detect.CropObservation{{Time: 0, Width: 1440}}
	got := BuildCorrectionFilter(obs, 1440, 1080)

	if !strings.Contains(got, "color=c=black:s=1440x1080[base]") {
		t.Errorf("canvas should use probed dimensions:\n%s", got)
	}
	if !strings.Contains(got, "[comp]crop=1440:1080:0:0[vout]") {
		t.Errorf("final crop should use probed dimensions:\n%s", got)
	}
	// A full-width observation at the probed width is a no-op.
	if !strings.Contains(got, "scale=w='1440'") {
		t.Errorf("full-width observation should scale to probed width:\n%s", got)
	}
	if !strings.Contains(got, "overlay=x='0'") {
		t.Errorf("full-width observation should not offset:\n%s", got)
	}
}

func TestBuildCorrectionFilterDefaultDimensions(t *testing.T) {
	obs := []detect.CropObservation{{Time: 0, Width: 1920}}
	got := BuildCorrectionFilter(obs, 0, 0)

	if !strings.Contains(got, "color=c=black:s=1920x1080[base]") {
		t.Errorf("zero dimensions should fall back to defaults:\n%s", got)
	}
}

func TestScaledWidthAlwaysEven(t *testing.T) {
	for cropWidth := 960; cropWidth <= 1920; cropWidth += 17 {
		if w := scaledWidth(cropWidth, 1920); w%2 != 0 {
			t.Errorf("scaledWidth(%d, 1920) = %d, want even", cropWidth, w)
		}
	}
}

func TestCropOffset(t *testing.T) {
	tests := []struct {
		name        string
		cropWidth   int
		targetWidth int
		want        int
	}{
		{"full width", 1920, 1920, 0},
		{"news sidebar", 1440, 1920, -240},
		{"narrow picture", 1280, 1920, -320},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cropOffset(tt.cropWidth, tt.targetWidth); got != tt.want {
				t.Errorf("cropOffset(%d, %d) = %d, want %d", tt.cropWidth, tt.targetWidth, got, tt.want)
			}
		})
	}
}

func TestScaledWidth(t *testing.T) {
	tests := []struct {
		name        string
		cropWidth   int
		targetWidth int
		want        int
	}{
		{"full width", 1920, 1920, 1920},
		{"news sidebar", 1440, 1920, 2560},
		{"narrow picture", 1280, 1920, 2880},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scaledWidth(tt.cropWidth, tt.targetWidth); got != tt.want {
				t.Errorf("scaledWidth(%d, %d) = %d, want %d", tt.cropWidth, tt.targetWidth, got, tt.want)
			}
		})
	}
}
