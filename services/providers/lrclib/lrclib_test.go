package lrclib

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lrckit-api/services/providers"
)

func newTestServer(t *testing.T, records []Record, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("missing user agent")
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(records)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testProvider(srv *httptest.Server) *LrclibProvider {
	return NewProviderWithClient(NewClient(srv.URL, "test-agent", 2*time.Second), 2000)
}

func TestIntegrityScore(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   int
	}{
		{"empty", Record{}, 0},
		{"track only", Record{TrackName: "t"}, 20},
		{"blank fields", Record{TrackName: " ", ArtistName: "\t"}, 0},
		{"no synced", Record{TrackName: "t", ArtistName: "a", AlbumName: "al"}, 50},
		{"complete", Record{TrackName: "t", ArtistName: "a", AlbumName: "al", SyncedLyrics: "[00:01.00]x"}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IntegrityScore(tt.record); got != tt.want {
				t.Errorf("IntegrityScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRank(t *testing.T) {
	records := []Record{
		{ID: 1, TrackName: "t", Duration: 180},
		{ID: 2, TrackName: "t", SyncedLyrics: "[00:01.00]x", Duration: 181.5},
		{ID: 3, TrackName: "t", SyncedLyrics: "[00:01.00]x", Duration: 180.2},
		{ID: 4, TrackName: "t", SyncedLyrics: "[00:01.00]x", Duration: 240},
		{ID: 5, TrackName: "t", SyncedLyrics: "[00:01.00]x"},
	}

	ranked := Rank(records, 180000, 2000)

	var ids []int64
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	want := []int64{3, 2, 5, 1}
	if len(ids) != len(want) {
		t.Fatalf("Rank() ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Rank() ids = %v, want %v", ids, want)
		}
	}
}

func TestRank_NoDuration(t *testing.T) {
	records := []Record{
		{ID: 1, TrackName: "t", Duration: 10},
		{ID: 2, TrackName: "t", Duration: 500},
	}
	ranked := Rank(records, 0, 2000)
	if len(ranked) != 2 || ranked[0].ID != 1 {
		t.Errorf("expected stable order without duration, got %+v", ranked)
	}
}

func TestFetchLyrics(t *testing.T) {
	srv, _ := newTestServer(t, []Record{
		{ID: 7, TrackName: "Song", ArtistName: "Artist", AlbumName: "Album", Duration: 10,
			SyncedLyrics: "[ar:Artist]\n[00:01.00]first\n[00:04.50]second"},
		{ID: 8, TrackName: "Song", PlainLyrics: "first\nsecond", Duration: 10},
	}, http.StatusOK)

	result, err := testProvider(srv).FetchLyrics(context.Background(), "Song", "Artist", "Album", 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Score != 1.0 {
		t.Errorf("score = %f, want 1.0", result.Score)
	}
	if result.TrackDurationMs != 10000 {
		t.Errorf("track duration = %d", result.TrackDurationMs)
	}
	lines := result.Document.Lines
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "first" || lines[0].End != 4500 {
		t.Errorf("first line = %+v", lines[0])
	}
	if lines[1].End != 10000 || lines[1].Duration != 5500 {
		t.Errorf("last line should close at track end, got %+v", lines[1].Timing)
	}
	if result.Document.Metadata["ar"] != "Artist" {
		t.Errorf("metadata = %v", result.Document.Metadata)
	}
	if result.Language != "en" {
		t.Errorf("language = %q", result.Language)
	}
}

func TestFetchLyrics_WordTimedRecord(t *testing.T) {
	srv, _ := newTestServer(t, []Record{
		{ID: 9, TrackName: "Song", ArtistName: "Artist", Duration: 10,
			SyncedLyrics: "[00:01.00]<00:01.00>Hel<00:01.50>lo<00:02.00>\n[00:03.00]plain"},
	}, http.StatusOK)

	result, err := testProvider(srv).FetchLyrics(context.Background(), "Song", "Artist", "", 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := result.Document.Lines
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "Hello" {
		t.Errorf("text = %q, want word tags stripped", lines[0].Text)
	}
	if len(lines[0].Words) != 2 || lines[0].Words[1].Begin != 1500 || lines[0].Words[1].End != 2000 {
		t.Errorf("words = %+v", lines[0].Words)
	}
	if lines[0].End != 2000 {
		t.Errorf("line end = %d, want 2000 from the closing word tag", lines[0].End)
	}
	if lines[1].End != 10000 {
		t.Errorf("last line should close at track end, got %+v", lines[1].Timing)
	}
}

func TestFetchLyrics_Instrumental(t *testing.T) {
	srv, _ := newTestServer(t, []Record{
		{TrackName: "Intro", ArtistName: "Band", Instrumental: true, Duration: 60},
	}, http.StatusOK)

	result, err := testProvider(srv).FetchLyrics(context.Background(), "Intro", "Band", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Instrumental {
		t.Error("expected instrumental result")
	}
	if !result.Document.IsEmpty() || result.Document.Metadata == nil {
		t.Errorf("expected empty document, got %+v", result.Document)
	}
}

func TestFetchLyrics_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		status  int
	}{
		{"empty results", []Record{}, http.StatusOK},
		{"404", nil, http.StatusNotFound},
		{"outside duration delta", []Record{{TrackName: "Song", SyncedLyrics: "[00:01.00]x", Duration: 300}}, http.StatusOK},
		{"plain only", []Record{{TrackName: "Song", PlainLyrics: "words", Duration: 180}}, http.StatusOK},
		{"no timed lines", []Record{{TrackName: "Song", SyncedLyrics: "just text", Duration: 180}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.records, tt.status)
			_, err := testProvider(srv).FetchLyrics(context.Background(), "Song", "Artist", "", 180000)
			if !providers.IsNotFound(err) {
				t.Errorf("expected not-found, got %v", err)
			}
		})
	}
}

func TestFetchLyrics_ServerError(t *testing.T) {
	srv, hits := newTestServer(t, nil, http.StatusInternalServerError)

	_, err := testProvider(srv).FetchLyrics(context.Background(), "Song", "Artist", "", 0)
	if err == nil || providers.IsNotFound(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("status errors should not be retried, got %d calls", hits.Load())
	}
}

func TestFetchLyrics_RequiresTrack(t *testing.T) {
	_, err := NewProvider().FetchLyrics(context.Background(), " ", "Artist", "", 0)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_RetriesTransient(t *testing.T) {
	// closed server: connection refused is a net.Error
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(base, "test-agent", time.Second)
	client.RetryDelay = time.Millisecond

	if _, err := client.Search(context.Background(), "a", "b", ""); err == nil {
		t.Fatal("expected error from closed server")
	}
}

func TestProviderRegistered(t *testing.T) {
	var _ providers.Provider = NewProvider()
	if !providers.Has(ProviderName) {
		t.Error("lrclib should self-register")
	}
}
