package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lrckit-api/services/providers"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestKeyForFile(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"Artist - Title.lrc", "artist - title", true},
		{"  ARTIST  -  Title  Two.LRC", "artist - title two", true},
		{"Title.lrc", "title", true},
		{"notes.txt", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, ok := keyForFile(tt.name)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("keyForFile(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLibrary_Lookup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Artist - Song.lrc", []byte("[00:01.00]x"))
	writeFile(t, dir, "Solo.lrc", []byte("[00:01.00]y"))
	writeFile(t, dir, "readme.md", []byte("ignored"))
	if err := os.Mkdir(filepath.Join(dir, "sub.lrc"), 0755); err != nil {
		t.Fatal(err)
	}

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	if lib.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lib.Len())
	}

	tests := []struct {
		artist, title string
		wantFile      string
	}{
		{"artist", "song", "Artist - Song.lrc"},
		{"ARTIST", "  Song ", "Artist - Song.lrc"},
		{"Anyone", "Solo", "Solo.lrc"},
		{"", "Solo", "Solo.lrc"},
		{"Other", "Song", ""},
	}
	for _, tt := range tests {
		path, ok := lib.Lookup(tt.artist, tt.title)
		if tt.wantFile == "" {
			if ok {
				t.Errorf("Lookup(%q, %q) unexpectedly found %s", tt.artist, tt.title, path)
			}
			continue
		}
		if !ok || filepath.Base(path) != tt.wantFile {
			t.Errorf("Lookup(%q, %q) = %q, %v", tt.artist, tt.title, path, ok)
		}
	}
}

func TestNewLibrary_Errors(t *testing.T) {
	if _, err := NewLibrary(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}

	file := writeFile(t, t.TempDir(), "f.lrc", nil)
	if _, err := NewLibrary(file); err == nil {
		t.Error("expected error for a file path")
	}
}

func TestDecodeLyrics(t *testing.T) {
	gb, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte("[00:01.00]你好"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8", []byte("[00:01.00]你好"), "[00:01.00]你好"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, "[00:01.00]hi"...), "[00:01.00]hi"},
		{"gb18030", gb, "[00:01.00]你好"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeLyrics(tt.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocalProvider_FetchLyrics(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Duo - Duet.lrc", []byte("[ti:Duet]\n[00:01.00]v1:<00:01.00>Hel<00:01.50>lo<00:02.00>\n[00:03.00]v2:World"))
	writeFile(t, dir, "Empty - Song.lrc", []byte("[ti:nothing timed]"))

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatal(err)
	}
	p := NewProvider(lib)
	var _ providers.Provider = p

	result, err := p.FetchLyrics(context.Background(), "Duet", "Duo", "", 8000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := result.Document.Lines
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "Hello" || len(lines[0].Words) != 2 {
		t.Errorf("first line = %+v", lines[0])
	}
	if !lines[1].IsAlignedRight {
		t.Error("v2 line should be aligned right")
	}
	if lines[1].End != 8000 {
		t.Errorf("last line end = %d, want 8000", lines[1].End)
	}
	if result.Document.Metadata["ti"] != "Duet" {
		t.Errorf("metadata = %v", result.Document.Metadata)
	}

	if _, err := p.FetchLyrics(context.Background(), "Song", "Empty", "", 0); !providers.IsNotFound(err) {
		t.Errorf("expected not-found for untimed file, got %v", err)
	}
	if _, err := p.FetchLyrics(context.Background(), "Nope", "Nobody", "", 0); !providers.IsNotFound(err) {
		t.Errorf("expected not-found for missing file, got %v", err)
	}
}

func TestLibrary_Watch(t *testing.T) {
	dir := t.TempDir()
	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := lib.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	path := writeFile(t, dir, "New - Track.lrc", []byte("[00:01.00]x"))
	waitFor(t, func() bool { _, ok := lib.Lookup("New", "Track"); return ok })

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { _, ok := lib.Lookup("New", "Track"); return !ok })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
