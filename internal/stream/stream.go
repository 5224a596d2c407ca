// Package stream probes the live stream playlist before a capture
// starts, so an unreachable or empty stream is caught while a retry is
// still worth something.
package stream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grafov/m3u8"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
	"github.com/bietiekay/nhk-record/internal/logging"
)

const requestTimeout = 15 * time.Second

// Info summarizes a probed playlist.
type Info struct {
	// Master is true when the URL served a master playlist.
	Master bool
	// VariantCount is the number of variant streams in a master
	// playlist.
	VariantCount int
	// SegmentCount is the number of segments in a media playlist.
	SegmentCount int
	// TargetDuration is the media playlist's target segment duration
	// in seconds.
	TargetDuration float64
}

var httpClient = &http.Client{Timeout: requestTimeout}

// Probe fetches and parses the playlist at url. It returns a stream
// error when the playlist is unreachable, unparseable, or carries
// nothing to play.
func Probe(ctx context.Context, url string) (*Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewStreamError("failed to build playlist request", err)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewStreamError("playlist request failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, apperrors.NewStreamError(fmt.Sprintf("playlist request returned status %d", res.StatusCode), nil)
	}

	playlist, listType, err := m3u8.DecodeFrom(res.Body, false)
	if err != nil {
		return nil, apperrors.NewStreamError("failed to parse playlist", err)
	}

	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		if len(master.Variants) == 0 {
			return nil, apperrors.NewStreamError("master playlist has no variants", nil)
		}
		logging.Debug("stream playlist probed", "url", url, "variants", len(master.Variants))
		return &Info{Master: true, VariantCount: len(master.Variants)}, nil

	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		count := int(media.Count())
		if count == 0 {
			return nil, apperrors.NewStreamError("media playlist has no segments", nil)
		}
		logging.Debug("stream playlist probed", "url", url, "segments", count)
		return &Info{
			SegmentCount:   count,
			TargetDuration: media.TargetDuration,
		}, nil
	}

	return nil, apperrors.NewStreamError("unrecognized playlist type", nil)
}
