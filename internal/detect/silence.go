package detect

import "sort"

// SilenceIndex answers containment queries over a fixed set of silence
// windows. The index is built once per detection pass and read-only
// thereafter.
type SilenceIndex struct {
	intervals []Silence // sorted by Start ascending
	maxEnd    []int64   // maxEnd[i] = max End over intervals[0..i]
}

// NewSilenceIndex builds an index over the given windows.
func NewSilenceIndex(silences []Silence) *SilenceIndex {
	intervals := make([]Silence, len(silences))
	copy(intervals, silences)
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})

	maxEnd := make([]int64, len(intervals))
	for i, iv := range intervals {
		maxEnd[i] = iv.End
		if i > 0 && maxEnd[i-1] > iv.End {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &SilenceIndex{intervals: intervals, maxEnd: maxEnd}
}

// Len returns the number of indexed windows.
func (ix *SilenceIndex) Len() int {
	return len(ix.intervals)
}

// MaxDurationAt returns the duration of the longest window containing t,
// or 0 when no window contains t. Windows are half-open: a window
// contains t when Start <= t < End.
func (ix *SilenceIndex) MaxDurationAt(t int64) int64 {
	// Rightmost interval starting at or before t. Anything later cannot
	// contain t.
	idx := sort.Search(len(ix.intervals), func(i int) bool {
		return ix.intervals[i].Start > t
	}) - 1

	var best int64
	for i := idx; i >= 0; i-- {
		if ix.maxEnd[i] <= t {
			// No interval at or before i extends past t.
			break
		}
		if iv := ix.intervals[i]; iv.End > t {
			if d := iv.Duration(); d > best {
				best = d
			}
		}
	}
	return best
}
