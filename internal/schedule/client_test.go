package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
)

func TestClientFetch(t *testing.T) {
	from := time.UnixMilli(1755950000000)
	to := time.UnixMilli(1756000000000)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := fmt.Sprintf("/epg/v7b/world/s%d-e%d.json", from.UnixMilli(), to.UnixMilli())
		if r.URL.Path != wantPath {
			t.Errorf("request path = %q, want %q", r.URL.Path, wantPath)
		}
		w.Write(loadTestData(t, "schedule.json"))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})

	programmes, err := client.Fetch(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(programmes) != 3 {
		t.Fatalf("got %d programmes, want 3", len(programmes))
	}
	if programmes[2].Title != "Journeys in Japan" {
		t.Errorf("programmes[2].Title = %q", programmes[2].Title)
	}
}

func TestClientFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})

	_, err := client.Fetch(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	if !apperrors.IsKind(err, apperrors.KindSchedule) {
		t.Errorf("error = %v, want schedule kind", err)
	}
}

func TestClientLoadUsesFreshCache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(loadTestData(t, "schedule.json"))
	}))
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "schedule.json")
	client := NewClient(ClientOptions{
		BaseURL:   server.URL,
		CachePath: cachePath,
		CacheTTL:  time.Hour,
	})

	ctx := context.Background()
	from, to := time.Now(), time.Now().Add(24*time.Hour)

	if _, err := client.Load(ctx, from, to); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if hits != 1 {
		t.Fatalf("first Load made %d requests, want 1", hits)
	}

	programmes, err := client.Load(ctx, from, to)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if hits != 1 {
		t.Errorf("second Load hit the network, want cache; requests = %d", hits)
	}
	if len(programmes) != 3 {
		t.Errorf("cached load returned %d programmes, want 3", len(programmes))
	}
}

func TestClientLoadStaleCacheFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "schedule.json")
	stale := cacheEnvelope{
		FetchedAt:  time.Now().Add(-2 * time.Hour),
		Programmes: []Programme{{Title: "Journeys in Japan", StartMS: 1, EndMS: 2}},
	}
	data, err := json.Marshal(stale)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		t.Fatal(err)
	}

	client := NewClient(ClientOptions{
		BaseURL:   server.URL,
		CachePath: cachePath,
		CacheTTL:  time.Hour,
	})

	programmes, err := client.Load(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Load should fall back to the stale cache: %v", err)
	}
	if len(programmes) != 1 || programmes[0].Title != "Journeys in Japan" {
		t.Errorf("fallback returned %v", programmes)
	}
}

func TestClientLoadNoCacheNoNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})

	_, err := client.Load(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error with no cache and failing fetch")
	}
	if !apperrors.IsKind(err, apperrors.KindSchedule) {
		t.Errorf("error = %v, want schedule kind", err)
	}
}

func TestFetchThumbnail(t *testing.T) {
	imageData := []byte("jpeg-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nhkworld/upld/thumbnails/en/tv/journeys/4026058.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write(imageData)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{ImageBaseURL: server.URL})
	p := Programme{
		AiringID:  "058",
		Thumbnail: "/nhkworld/upld/thumbnails/en/tv/journeys/4026058.jpg",
	}

	dir := t.TempDir()
	path, err := client.FetchThumbnail(context.Background(), p, dir)
	if err != nil {
		t.Fatalf("FetchThumbnail: %v", err)
	}

	if filepath.Base(path) != "058.jpg" {
		t.Errorf("thumbnail name = %q, want 058.jpg", filepath.Base(path))
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(imageData) {
		t.Errorf("thumbnail contents = %q", got)
	}
}

func TestFetchThumbnailMissing(t *testing.T) {
	client := NewClient(ClientOptions{})
	_, err := client.FetchThumbnail(context.Background(), Programme{}, t.TempDir())
	if err == nil {
		t.Fatal("expected error for programme without thumbnail")
	}
}
