package schedule

import (
	"fmt"
	"regexp"
	"time"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
)

// Matcher selects programmes whose title matches any of a set of
// case-insensitive patterns. A Matcher is immutable; pattern reloads
// swap in a new one.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles the given patterns case-insensitively.
func NewMatcher(patterns []string) (*Matcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid match pattern %q: %v", pattern, err))
		}
		compiled = append(compiled, re)
	}
	return &Matcher{patterns: compiled}, nil
}

// Matches reports whether any pattern matches the programme title.
// A Matcher with no patterns matches nothing.
func (m *Matcher) Matches(p Programme) bool {
	for _, re := range m.patterns {
		if re.MatchString(p.Title) {
			return true
		}
	}
	return false
}

// Filter returns the programmes the matcher selects, preserving order.
func (m *Matcher) Filter(programmes []Programme) []Programme {
	var out []Programme
	for _, p := range programmes {
		if m.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Next returns the first matched programme still airing or yet to air
// at the given time. Programmes must be sorted by start time. Returns a
// no-programme error when nothing qualifies.
func (m *Matcher) Next(programmes []Programme, now time.Time) (*Programme, error) {
	nowMS := now.UnixMilli()
	for _, p := range programmes {
		if !m.Matches(p) {
			continue
		}
		if p.EndMS > nowMS {
			found := p
			return &found, nil
		}
	}
	return nil, apperrors.NewNoProgrammeError()
}
