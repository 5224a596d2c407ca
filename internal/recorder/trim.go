package recorder

import (
	"time"

	"github.com/bietiekay/nhk-record/internal/detect"
	"github.com/bietiekay/nhk-record/internal/util"
)

// Strategy labels surfaced in detection summaries.
const (
	strategyIdent    = "ident"
	strategyBanner   = "banner"
	strategyFallback = "schedule fallback"
)

const (
	// searchPadMS widens boundary search windows beyond the scheduling
	// uncertainty so idents straddling a window edge are still seen
	// whole.
	searchPadMS = 30_000

	// keyframeWindowMS bounds the packet probe around a copy-path trim
	// point.
	keyframeWindowMS = 15_000
)

// window is a time-bounded slice of a capture handed to an analysis
// invocation.
type window struct {
	startMS int64
	durMS   int64
}

// boundaryWindows derives the head and tail search windows from where
// the schedule says the programme sits inside the capture. The
// scheduling uncertainty at either end equals the safety buffer, which
// is expectedStartMS by construction.
func boundaryWindows(expectedStartMS, expectedEndMS, durationMS int64) (head, tail window) {
	head.startMS = 0
	head.durMS = 2*expectedStartMS + searchPadMS
	if head.durMS > durationMS {
		head.durMS = durationMS
	}

	tail.startMS = expectedEndMS - expectedStartMS - searchPadMS
	if tail.startMS < 0 {
		tail.startMS = 0
	}
	tail.durMS = durationMS - tail.startMS

	return head, tail
}

// trimPoint is one chosen trim endpoint and how it was chosen.
type trimPoint struct {
	ms       int64
	strategy string
}

func (p trimPoint) detected() bool {
	return p.strategy != strategyFallback
}

// chooseOpening picks the boundary feature whose end lands closest to
// the expected programme start. The programme begins where its ident
// ends.
func chooseOpening(features []detect.Feature, expectedStartMS int64) (trimPoint, bool) {
	if len(features) == 0 {
		return trimPoint{}, false
	}

	best := features[0]
	for _, f := range features[1:] {
		if absMS(f.End-expectedStartMS) < absMS(best.End-expectedStartMS) {
			best = f
		}
	}
	return trimPoint{ms: best.End, strategy: strategyIdent}, true
}

// chooseClosing picks the boundary feature whose start lands closest
// to the expected programme end. The programme ends where the next
// ident begins.
func chooseClosing(features []detect.Feature, expectedEndMS int64) (trimPoint, bool) {
	if len(features) == 0 {
		return trimPoint{}, false
	}

	best := features[0]
	for _, f := range features[1:] {
		if absMS(f.Start-expectedEndMS) < absMS(best.Start-expectedEndMS) {
			best = f
		}
	}
	return trimPoint{ms: best.Start, strategy: strategyIdent}, true
}

// bannerOpening trims to the first appearance of the title banner,
// which overlays programme content from its first second.
func bannerOpening(features []detect.Feature) (trimPoint, bool) {
	if len(features) == 0 {
		return trimPoint{}, false
	}

	best := features[0]
	for _, f := range features[1:] {
		if f.Start < best.Start {
			best = f
		}
	}
	return trimPoint{ms: best.Start, strategy: strategyBanner}, true
}

func absMS(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// outputBaseName derives a filesystem-safe output name from programme
// metadata. airing contributes a date suffix when known.
func outputBaseName(title, subtitle string, airing time.Time) string {
	name := title
	if subtitle != "" {
		name += " - " + subtitle
	}
	if !airing.IsZero() {
		name += " " + airing.UTC().Format("2006-01-02")
	}
	return util.SanitizeFilename(name)
}
