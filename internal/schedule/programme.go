// Package schedule retrieves and filters the NHK World programme guide.
package schedule

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Programme is one airing from the programme guide.
type Programme struct {
	SeriesID    string `json:"series_id"`
	AiringID    string `json:"airing_id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Content     string `json:"content"`
	StartMS     int64  `json:"start_ms"`
	EndMS       int64  `json:"end_ms"`
	Thumbnail   string `json:"thumbnail"`
}

// StartTime returns the airing start as a time.Time.
func (p Programme) StartTime() time.Time {
	return time.UnixMilli(p.StartMS)
}

// EndTime returns the airing end as a time.Time.
func (p Programme) EndTime() time.Time {
	return time.UnixMilli(p.EndMS)
}

// DurationMS returns the scheduled length of the airing.
func (p Programme) DurationMS() int64 {
	return p.EndMS - p.StartMS
}

// epochMillis decodes the guide's date fields, which arrive as epoch
// milliseconds in either string or number form.
type epochMillis int64

func (m *epochMillis) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*m = epochMillis(v)
	return nil
}

type scheduleResponse struct {
	Channel struct {
		Items []programmeItem `json:"item"`
	} `json:"channel"`
}

type programmeItem struct {
	SeriesID    string      `json:"seriesId"`
	AiringID    string      `json:"airingId"`
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	PubDate     epochMillis `json:"pubDate"`
	EndDate     epochMillis `json:"endDate"`
	Thumbnail   string      `json:"thumbnail"`
}

// programmes converts the wire items into Programme values sorted by
// start time. Items without a title or start date are dropped.
func (r *scheduleResponse) programmes() []Programme {
	out := make([]Programme, 0, len(r.Channel.Items))
	for _, item := range r.Channel.Items {
		if item.Title == "" || item.PubDate == 0 {
			continue
		}

		out = append(out, Programme{
			SeriesID:    item.SeriesID,
			AiringID:    item.AiringID,
			Title:       item.Title,
			Subtitle:    item.Subtitle,
			Description: item.Description,
			Content:     item.Content,
			StartMS:     int64(item.PubDate),
			EndMS:       int64(item.EndDate),
			Thumbnail:   item.Thumbnail,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartMS < out[j].StartMS })
	return out
}
