package schedule

import (
	"testing"
	"time"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
)

func TestNewMatcherInvalidPattern(t *testing.T) {
	_, err := NewMatcher([]string{"valid", "[unterminated"})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !apperrors.IsKind(err, apperrors.KindConfig) {
		t.Errorf("error kind = %v, want config error", err)
	}
}

func TestMatcherCaseInsensitive(t *testing.T) {
	m, err := NewMatcher([]string{"newsline", "^journeys"})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	tests := []struct {
		title string
		want  bool
	}{
		{"NHK Newsline", true},
		{"NEWSLINE ASIA", true},
		{"Journeys in Japan", true},
		{"Great Journeys", false},
		{"Zero Waste Life", false},
	}

	for _, tt := range tests {
		if got := m.Matches(Programme{Title: tt.title}); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestMatcherNoPatternsMatchesNothing(t *testing.T) {
	m, err := NewMatcher(nil)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	if m.Matches(Programme{Title: "NHK Newsline"}) {
		t.Error("matcher without patterns should match nothing")
	}
}

func TestMatcherFilter(t *testing.T) {
	m, err := NewMatcher([]string{"japan"})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	programmes := []Programme{
		{Title: "NHK Newsline", StartMS: 1000},
		{Title: "Journeys in Japan", StartMS: 2000},
		{Title: "Japan Railway Journal", StartMS: 3000},
	}

	got := m.Filter(programmes)
	if len(got) != 2 {
		t.Fatalf("Filter() returned %d programmes, want 2", len(got))
	}
	if got[0].StartMS != 2000 || got[1].StartMS != 3000 {
		t.Errorf("Filter() order = %d, %d, want 2000, 3000", got[0].StartMS, got[1].StartMS)
	}
}

func TestMatcherNext(t *testing.T) {
	m, err := NewMatcher([]string{"journeys"})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	programmes := []Programme{
		{Title: "Journeys in Japan", StartMS: 1000, EndMS: 2000},
		{Title: "NHK Newsline", StartMS: 2000, EndMS: 3000},
		{Title: "Journeys in Japan", StartMS: 3000, EndMS: 4000},
		{Title: "Journeys in Japan", StartMS: 5000, EndMS: 6000},
	}

	// The first matched airing still in the future.
	next, err := m.Next(programmes, time.UnixMilli(2500))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.StartMS != 3000 {
		t.Errorf("Next().StartMS = %d, want 3000", next.StartMS)
	}

	// An airing already in progress still qualifies.
	next, err = m.Next(programmes, time.UnixMilli(3500))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.StartMS != 3000 {
		t.Errorf("Next() during airing = %d, want 3000", next.StartMS)
	}
}

func TestMatcherNextNoneFound(t *testing.T) {
	m, err := NewMatcher([]string{"journeys"})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	programmes := []Programme{
		{Title: "Journeys in Japan", StartMS: 1000, EndMS: 2000},
	}

	_, err = m.Next(programmes, time.UnixMilli(9000))
	if err == nil {
		t.Fatal("expected error when every airing has ended")
	}
	if !apperrors.IsNoProgramme(err) {
		t.Errorf("error = %v, want no-programme kind", err)
	}
}
