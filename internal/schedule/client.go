package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
	"github.com/bietiekay/nhk-record/internal/logging"
)

// Defaults for the NHK World guide endpoints.
const (
	DefaultBaseURL      = "https://api.nhk.or.jp/nhkworld"
	DefaultImageBaseURL = "https://www3.nhk.or.jp"
	DefaultCacheTTL     = time.Hour
)

const requestTimeout = 30 * time.Second

// Client fetches the programme guide over HTTP, falling back to an
// on-disk cache when the API is unreachable.
type Client struct {
	baseURL      string
	imageBaseURL string
	cachePath    string
	cacheTTL     time.Duration
	http         *http.Client
}

// ClientOptions configure a Client. Zero-valued fields take the
// defaults above; an empty CachePath disables the cache.
type ClientOptions struct {
	BaseURL      string
	ImageBaseURL string
	CachePath    string
	CacheTTL     time.Duration
}

// NewClient creates a guide client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(opts.ImageBaseURL, "/"),
		cachePath:    opts.CachePath,
		cacheTTL:     opts.CacheTTL,
		http:         &http.Client{Timeout: requestTimeout},
	}
}

// Fetch retrieves the guide window [from, to) from the API.
func (c *Client) Fetch(ctx context.Context, from, to time.Time) ([]Programme, error) {
	url := fmt.Sprintf("%s/epg/v7b/world/s%d-e%d.json", c.baseURL, from.UnixMilli(), to.UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewScheduleError("failed to build schedule request", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewScheduleError("schedule request failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, apperrors.NewScheduleError(fmt.Sprintf("schedule request returned status %d", res.StatusCode), nil)
	}

	var payload scheduleResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewScheduleError("failed to decode schedule response", err)
	}

	programmes := payload.programmes()
	logging.Debug("schedule fetched", "programmes", len(programmes))
	return programmes, nil
}

// Load returns the guide window, preferring a fresh cache over the
// network and a stale cache over a failed fetch.
func (c *Client) Load(ctx context.Context, from, to time.Time) ([]Programme, error) {
	if cached, ok := c.readCache(c.cacheTTL); ok {
		logging.Debug("using cached schedule", "path", c.cachePath, "programmes", len(cached))
		return cached, nil
	}

	programmes, err := c.Fetch(ctx, from, to)
	if err != nil {
		if cached, ok := c.readCache(0); ok {
			logging.Warn("schedule fetch failed, using stale cache", "error", err)
			return cached, nil
		}
		return nil, err
	}

	c.writeCache(programmes)
	return programmes, nil
}

// FetchThumbnail downloads the programme's thumbnail into dir and
// returns the written path. Callers treat failure as non-fatal.
func (c *Client) FetchThumbnail(ctx context.Context, p Programme, dir string) (string, error) {
	if p.Thumbnail == "" {
		return "", apperrors.NewScheduleError("programme has no thumbnail", nil)
	}

	url := p.Thumbnail
	if strings.HasPrefix(url, "/") {
		url = c.imageBaseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperrors.NewScheduleError("failed to build thumbnail request", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.NewScheduleError("thumbnail request failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", apperrors.NewScheduleError(fmt.Sprintf("thumbnail request returned status %d", res.StatusCode), nil)
	}

	ext := path.Ext(url)
	if ext == "" {
		ext = ".jpg"
	}
	name := p.AiringID
	if name == "" {
		name = "thumbnail"
	}
	outPath := filepath.Join(dir, name+ext)

	out, err := os.Create(outPath)
	if err != nil {
		return "", apperrors.NewIOError("failed to create thumbnail file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, res.Body); err != nil {
		return "", apperrors.NewIOError("failed to write thumbnail file", err)
	}

	return outPath, nil
}

type cacheEnvelope struct {
	FetchedAt  time.Time   `json:"fetched_at"`
	Programmes []Programme `json:"programmes"`
}

// readCache loads the cache if present and younger than maxAge.
// maxAge 0 accepts any age.
func (c *Client) readCache(maxAge time.Duration) ([]Programme, bool) {
	if c.cachePath == "" {
		return nil, false
	}

	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, false
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		logging.Warn("discarding unreadable schedule cache", "path", c.cachePath, "error", err)
		return nil, false
	}

	if maxAge > 0 && time.Since(envelope.FetchedAt) > maxAge {
		return nil, false
	}
	return envelope.Programmes, true
}

func (c *Client) writeCache(programmes []Programme) {
	if c.cachePath == "" {
		return
	}

	data, err := json.Marshal(cacheEnvelope{FetchedAt: time.Now(), Programmes: programmes})
	if err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		logging.Warn("failed to create schedule cache directory", "path", c.cachePath, "error", err)
		return
	}
	if err := renameio.WriteFile(c.cachePath, data, 0644); err != nil {
		logging.Warn("failed to write schedule cache", "path", c.cachePath, "error", err)
	}
}
