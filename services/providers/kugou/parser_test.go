package kugou

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
)

func TestNormalizeLyrics_HeadCredits(t *testing.T) {
	content := `[00:00.00]Title - Artist
[00:00.50]作词：Lyricist
[00:01.00]作曲：Composer
[00:05.00]Real lyrics start here
[00:10.00]More lyrics`

	got := NormalizeLyrics(content)

	if strings.Contains(got, "作词") || strings.Contains(got, "Title - Artist") {
		t.Errorf("head credits not removed: %q", got)
	}
	if !strings.HasPrefix(got, "[00:05.00]Real lyrics start here") {
		t.Errorf("unexpected start: %q", got)
	}
}

func TestNormalizeLyrics_TailCredits(t *testing.T) {
	var lines []string
	for i := 0; i < 35; i++ {
		lines = append(lines, fmt.Sprintf("[00:%02d.00]Lyrics line %d", i, i+1))
	}
	lines = append(lines, "[03:00.00]制作：Producer", "[03:01.00]Trailing")

	got := NormalizeLyrics(strings.Join(lines, "\n"))

	if strings.Contains(got, "制作") || strings.Contains(got, "Trailing") {
		t.Errorf("tail credits not removed: %q", got)
	}
	if n := strings.Count(got, "\n") + 1; n != 35 {
		t.Errorf("expected 35 lines, got %d", n)
	}
}

func TestNormalizeLyrics_KeepsMetadata(t *testing.T) {
	content := "[ar:Artist]\n[00:01.00]one\nnot a lyric line\n[00:02.00]two"

	got := NormalizeLyrics(content)
	want := "[ar:Artist]\n[00:01.00]one\n[00:02.00]two"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeLyrics_PureMusic(t *testing.T) {
	got := NormalizeLyrics("[00:00.00]纯音乐，请欣赏")
	if got != "[00:00.00]"+InstrumentalText {
		t.Errorf("got %q", got)
	}
	if !IsInstrumental(got) {
		t.Error("IsInstrumental should be true")
	}
	if IsInstrumental("[00:01.00]words") {
		t.Error("IsInstrumental should be false for lyrics")
	}
}

func TestNormalizeLyrics_HTMLEntities(t *testing.T) {
	got := NormalizeLyrics(`[00:05.00]Don&apos;t stop believing`)
	if got != "[00:05.00]Don't stop believing" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeLyrics_NoTimedLines(t *testing.T) {
	for _, in := range []string{"", "plain text"} {
		if got := NormalizeLyrics(in); got != in {
			t.Errorf("NormalizeLyrics(%q) = %q", in, got)
		}
	}
}

func TestDecodeBase64Content(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("\ufeff[00:01.00]hi"))

	got, err := DecodeBase64Content(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[00:01.00]hi" {
		t.Errorf("got %q", got)
	}

	if _, err := DecodeBase64Content("!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestParseLyrics(t *testing.T) {
	content := "[id:$00000000]\n[ar:Artist]\n[ti:Title]\n[hash:abc]\n[00:01.00]one\n[00:03.00]two"

	doc := ParseLyrics(content, 10000)

	if _, ok := doc.Metadata["id"]; ok {
		t.Error("internal id tag should be removed")
	}
	if _, ok := doc.Metadata["hash"]; ok {
		t.Error("internal hash tag should be removed")
	}
	if doc.Metadata["ar"] != "Artist" || doc.Metadata["ti"] != "Title" {
		t.Errorf("unexpected metadata: %v", doc.Metadata)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Lines))
	}

	first, last := doc.Lines[0], doc.Lines[1]
	if first.Begin != 1000 || first.End != 3000 {
		t.Errorf("first line timing = %+v", first.Timing)
	}
	if last.End != 10000 || last.Duration != 7000 {
		t.Errorf("last line timing = %+v", last.Timing)
	}
	if first.Words != nil || first.Secondary != nil {
		t.Error("standard lines should carry no word or secondary content")
	}
}
