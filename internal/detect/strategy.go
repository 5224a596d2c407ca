package detect

import (
	"slices"
	"sort"
)

// Filter ids are positional: ffmpeg numbers each parsed filter instance
// by its declaration order within the graph. The boundary analysis graph
// declares scale(0), split(1), then one blend/blackframe pair per
// reference image, so the blackframe comparing against reference i
// reports id 3+2i. The banner graph declares scale(0), crop(1),
// blend(2), blackframe(3); the crop graph scale(0), blend(1),
// cropdetect(2).
const (
	boundaryBlackframeBase   = 3
	boundaryBlackframeStride = 2

	// BannerFilterID is the blackframe id in the banner analysis graph.
	BannerFilterID = 3
	// CropFilterID is the cropdetect id in the crop analysis graph.
	CropFilterID = 2
)

// BoundaryFilterID returns the blackframe filter id comparing the frame
// against the i-th boundary reference image.
func BoundaryFilterID(i int) int {
	return boundaryBlackframeBase + boundaryBlackframeStride*i
}

// Strategy is a named boundary search policy over frame-difference
// events. Filters selects which comparison filters feed the search,
// MaxSkip the largest frame-number gap tolerated inside a run,
// MinSilence the audio silence (seconds) an event must sit inside, and
// MinFrames the shortest acceptable run.
type Strategy struct {
	Name       string
	Filters    []int
	MaxSkip    int64
	MinSilence float64
	MinFrames  int
}

// BoundaryStrategies is evaluated in declared order; the first strategy
// producing at least one accepted run is authoritative and the rest are
// never consulted.
var BoundaryStrategies = []Strategy{
	{
		Name:       "ident during long silence",
		Filters:    []int{BoundaryFilterID(0), BoundaryFilterID(1)},
		MaxSkip:    1,
		MinSilence: 1,
		MinFrames:  3,
	},
	{
		Name:       "ident during short silence",
		Filters:    []int{BoundaryFilterID(0), BoundaryFilterID(1)},
		MaxSkip:    1,
		MinSilence: 0.25,
		MinFrames:  3,
	},
	{
		Name:       "sustained ident",
		Filters:    []int{BoundaryFilterID(0), BoundaryFilterID(1)},
		MaxSkip:    2,
		MinSilence: 0,
		MinFrames:  15,
	},
}

// BannerStrategy locates the recurring programme banner overlay. No
// silence gating applies: the banner appears over normal audio.
var BannerStrategy = Strategy{
	Name:      "banner",
	Filters:   []int{BannerFilterID},
	MaxSkip:   1,
	MinFrames: 3,
}

// FindBoundaries evaluates the boundary strategy cascade over events and
// returns the features accepted by the first strategy that yields any.
// Returns nil when silences is empty: a capture without any audio
// silence carries no reliable visual boundary either.
func FindBoundaries(events []FrameEvent, silences []Silence) []Feature {
	return findFeatures(events, silences, BoundaryStrategies)
}

func findFeatures(events []FrameEvent, silences []Silence, strategies []Strategy) []Feature {
	if len(silences) == 0 {
		return nil
	}

	index := NewSilenceIndex(silences)
	for _, strategy := range strategies {
		if features := strategy.apply(events, index); len(features) > 0 {
			return features
		}
	}
	return nil
}

// DetectBanner groups banner-filter events into overlay intervals.
func DetectBanner(events []FrameEvent) []Feature {
	return BannerStrategy.apply(events, nil)
}

// apply runs the policy over events. When the policy requires a minimum
// silence, events outside a sufficiently long window in index are
// dropped before grouping.
func (s Strategy) apply(events []FrameEvent, index *SilenceIndex) []Feature {
	minSilenceMS := toMillis(s.MinSilence)

	var selected []FrameEvent
	for _, ev := range events {
		if !slices.Contains(s.Filters, ev.Filter) {
			continue
		}
		if minSilenceMS > 0 && index != nil && index.MaxDurationAt(ev.Time) < minSilenceMS {
			continue
		}
		selected = append(selected, ev)
	}

	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Filter != selected[j].Filter {
			return selected[i].Filter < selected[j].Filter
		}
		return selected[i].Frame < selected[j].Frame
	})

	maxSkip := s.MaxSkip
	if maxSkip <= 0 {
		maxSkip = 1
	}

	var features []Feature
	start := 0
	for i := 1; i <= len(selected); i++ {
		if i < len(selected) &&
			selected[i].Filter == selected[i-1].Filter &&
			selected[i].Frame-selected[i-1].Frame <= maxSkip {
			continue
		}

		run := selected[start:i]
		if len(run) >= s.MinFrames {
			features = append(features, Feature{
				Start:      run[0].Time,
				End:        run[len(run)-1].Time,
				FirstFrame: run[0].Frame,
				LastFrame:  run[len(run)-1].Frame,
			})
		}
		start = i
	}
	return features
}
