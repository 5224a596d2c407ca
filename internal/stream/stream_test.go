package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=5500000,RESOLUTION=1920x1080
1080/1080.m3u8
#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=2000000,RESOLUTION=1280x720
720/720.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:8260
#EXTINF:10.000,
segment8260.ts
#EXTINF:10.000,
segment8261.ts
#EXTINF:10.000,
segment8262.ts
`

func servePlaylist(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProbeMasterPlaylist(t *testing.T) {
	server := servePlaylist(t, masterPlaylist)

	info, err := Probe(context.Background(), server.URL+"/master.m3u8")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if !info.Master {
		t.Error("Master = false, want true")
	}
	if info.VariantCount != 2 {
		t.Errorf("VariantCount = %d, want 2", info.VariantCount)
	}
}

func TestProbeMediaPlaylist(t *testing.T) {
	server := servePlaylist(t, mediaPlaylist)

	info, err := Probe(context.Background(), server.URL+"/1080.m3u8")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if info.Master {
		t.Error("Master = true, want false")
	}
	if info.SegmentCount != 3 {
		t.Errorf("SegmentCount = %d, want 3", info.SegmentCount)
	}
	if info.TargetDuration != 10 {
		t.Errorf("TargetDuration = %v, want 10", info.TargetDuration)
	}
}

func TestProbeUnreachable(t *testing.T) {
	server := servePlaylist(t, masterPlaylist)
	server.Close()

	_, err := Probe(context.Background(), server.URL+"/master.m3u8")
	if err == nil {
		t.Fatal("expected error for unreachable stream")
	}
	if !apperrors.IsKind(err, apperrors.KindStream) {
		t.Errorf("error = %v, want stream kind", err)
	}
}

func TestProbeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Probe(context.Background(), server.URL+"/master.m3u8")
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	if !apperrors.IsKind(err, apperrors.KindStream) {
		t.Errorf("error = %v, want stream kind", err)
	}
}

func TestProbeGarbage(t *testing.T) {
	server := servePlaylist(t, "this is not a playlist")

	_, err := Probe(context.Background(), server.URL+"/master.m3u8")
	if err == nil {
		t.Fatal("expected error for unparseable playlist")
	}
	if !apperrors.IsKind(err, apperrors.KindStream) {
		t.Errorf("error = %v, want stream kind", err)
	}
}
