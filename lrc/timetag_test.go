package lrc

import "testing"

func TestParseTimeTag(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected int64
		ok       bool
	}{
		{name: "Hundredths", tag: "[00:12.34]", expected: 12340, ok: true},
		{name: "With hours", tag: "[01:02:03.45]", expected: 3723450, ok: true},
		{name: "Milliseconds", tag: "[00:12.345]", expected: 12345, ok: true},
		{name: "Colon fraction", tag: "[00:12:34]", expected: 12340, ok: true},
		{name: "No fraction", tag: "[00:12]", expected: 12000, ok: true},
		{name: "Minutes overflow", tag: "[120:00.00]", expected: 7200000, ok: true},
		{name: "Single digit second", tag: "[1:2.5]", expected: 62500, ok: true},
		{name: "Metadata tag", tag: "[ti:Song]", ok: false},
		{name: "Trailing text", tag: "[00:12.34]text", ok: false},
		{name: "Three digit seconds", tag: "[00:123]", ok: false},
		{name: "Angle brackets", tag: "<00:12.34>", ok: false},
		{name: "Empty", tag: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimeTag(tt.tag)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v for %q, got %v", tt.ok, tt.tag, ok)
			}
			if ok && got != tt.expected {
				t.Errorf("Expected %dms for %q, got %d", tt.expected, tt.tag, got)
			}
		})
	}
}

func TestFractionLength(t *testing.T) {
	tests := []struct {
		fraction string
		expected int64
	}{
		{"", 0},
		{"5", 500},
		{"05", 50},
		{"50", 500},
		{"005", 5},
		{"500", 500},
		{"1234", 123},
		{"99999", 999},
	}

	for _, tt := range tests {
		t.Run("."+tt.fraction, func(t *testing.T) {
			if got := fractionMs(tt.fraction); got != tt.expected {
				t.Errorf("Expected %dms, got %d", tt.expected, got)
			}
		})
	}
}

func TestParseTimeTag_FractionThroughTag(t *testing.T) {
	tests := map[string]int64{
		"[00:00.5]":    500,
		"[00:00.05]":   50,
		"[00:00.50]":   500,
		"[00:00.005]":  5,
		"[00:00.1234]": 123,
	}
	for tag, expected := range tests {
		got, ok := ParseTimeTag(tag)
		if !ok {
			t.Errorf("Expected %q to parse", tag)
			continue
		}
		if got != expected {
			t.Errorf("Expected %dms for %q, got %d", expected, tag, got)
		}
	}
}

func TestParseWordTag(t *testing.T) {
	if got, ok := ParseWordTag("<00:05.40>"); !ok || got != 5400 {
		t.Errorf("Expected 5400, true; got %d, %v", got, ok)
	}
	if got, ok := ParseWordTag("<01:00:00.000>"); !ok || got != 3600000 {
		t.Errorf("Expected 3600000, true; got %d, %v", got, ok)
	}
	if _, ok := ParseWordTag("[00:05.40]"); ok {
		t.Error("Expected bracket tag to be rejected as a word tag")
	}
}

func TestFindTimeTags(t *testing.T) {
	t.Run("Multiple leading tags", func(t *testing.T) {
		line := "[00:05.00][00:30.00]Chorus"
		tags := findTimeTags(line)
		if len(tags) != 2 {
			t.Fatalf("Expected 2 tags, got %d", len(tags))
		}
		if tags[0].ms != 5000 || tags[1].ms != 30000 {
			t.Errorf("Expected 5000 and 30000, got %d and %d", tags[0].ms, tags[1].ms)
		}
		if line[tags[1].end:] != "Chorus" {
			t.Errorf("Expected text after last tag to be 'Chorus', got %q", line[tags[1].end:])
		}
	})

	t.Run("Tag not at start", func(t *testing.T) {
		if tags := findTimeTags("text [00:01.00]"); tags != nil {
			t.Errorf("Expected nil for line not starting with a tag, got %v", tags)
		}
	})

	t.Run("Metadata line", func(t *testing.T) {
		if tags := findTimeTags("[ar:Artist]"); tags != nil {
			t.Errorf("Expected nil for metadata line, got %v", tags)
		}
	})
}

func TestParseMetaTag(t *testing.T) {
	tests := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"[ti:Song]", "ti", "Song", true},
		{"[AR: Some Artist ]", "ar", "Some Artist", true},
		{"[offset:+500]", "offset", "+500", true},
		{"[ti: Song: Part 2]", "ti", "Song: Part 2", true},
		{"[by:]", "by", "", true},
		{"[ti:Song] trailing", "", "", false},
		{"plain text", "", "", false},
		{"[no colon]", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, value, ok := parseMetaTag(tt.line)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if key != tt.key || value != tt.value {
				t.Errorf("Expected (%q, %q), got (%q, %q)", tt.key, tt.value, key, value)
			}
		})
	}
}
