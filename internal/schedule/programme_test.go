package schedule

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// loadTestData reads a file from the testdata directory.
func loadTestData(t *testing.T, filename string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	if err != nil {
		t.Fatalf("failed to read test data %s: %v", filename, err)
	}
	return data
}

func TestScheduleResponseParsing(t *testing.T) {
	var payload scheduleResponse
	if err := json.Unmarshal(loadTestData(t, "schedule.json"), &payload); err != nil {
		t.Fatalf("failed to parse schedule: %v", err)
	}

	programmes := payload.programmes()

	// The untitled placeholder slot is dropped.
	if len(programmes) != 3 {
		t.Fatalf("got %d programmes, want 3", len(programmes))
	}

	// Sorted by start time regardless of feed order.
	if programmes[0].Title != "NHK Newsline" {
		t.Errorf("programmes[0].Title = %q, want NHK Newsline", programmes[0].Title)
	}
	if programmes[1].Title != "Zero Waste Life" {
		t.Errorf("programmes[1].Title = %q, want Zero Waste Life", programmes[1].Title)
	}
	if programmes[2].Title != "Journeys in Japan" {
		t.Errorf("programmes[2].Title = %q, want Journeys in Japan", programmes[2].Title)
	}

	journeys := programmes[2]
	if journeys.SeriesID != "4026" || journeys.AiringID != "058" {
		t.Errorf("ids = %s/%s, want 4026/058", journeys.SeriesID, journeys.AiringID)
	}
	if journeys.Subtitle != "Kyoto by Bicycle" {
		t.Errorf("Subtitle = %q", journeys.Subtitle)
	}
	if journeys.StartMS != 1755961200000 || journeys.EndMS != 1755963000000 {
		t.Errorf("times = %d..%d, want 1755961200000..1755963000000", journeys.StartMS, journeys.EndMS)
	}
	if journeys.Thumbnail != "/nhkworld/upld/thumbnails/en/tv/journeys/4026058.jpg" {
		t.Errorf("Thumbnail = %q", journeys.Thumbnail)
	}

	// Dates arrive as strings or numbers; both must decode.
	newsline := programmes[0]
	if newsline.StartMS != 1755954000000 {
		t.Errorf("numeric pubDate decoded to %d, want 1755954000000", newsline.StartMS)
	}
}

func TestEpochMillisUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"string form", `"1755954000000"`, 1755954000000, false},
		{"number form", `1755954000000`, 1755954000000, false},
		{"null", `null`, 0, false},
		{"empty string", `""`, 0, false},
		{"garbage", `"not-a-date"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m epochMillis
			err := json.Unmarshal([]byte(tt.input), &m)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if int64(m) != tt.want {
				t.Errorf("got %d, want %d", int64(m), tt.want)
			}
		})
	}
}

func TestProgrammeTimes(t *testing.T) {
	p := Programme{StartMS: 1755961200000, EndMS: 1755963000000}

	if got := p.DurationMS(); got != 1800000 {
		t.Errorf("DurationMS() = %d, want 1800000", got)
	}
	if got := p.StartTime(); !got.Equal(time.UnixMilli(1755961200000)) {
		t.Errorf("StartTime() = %v", got)
	}
	if got := p.EndTime(); !got.Equal(time.UnixMilli(1755963000000)) {
		t.Errorf("EndTime() = %v", got)
	}
}
