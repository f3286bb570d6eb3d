package lrc

import "testing"

func TestFinalize_Empty(t *testing.T) {
	var lines []Line
	finalize(lines, 1000)
	if len(lines) != 0 {
		t.Errorf("Expected no lines, got %d", len(lines))
	}
}

func TestFinalize_InfersFromNext(t *testing.T) {
	lines := []Line{
		{Timing: Timing{Begin: 3000, End: 3000}, Text: "b"},
		{Timing: Timing{Begin: 1000, End: 1000}, Text: "a"},
	}
	finalize(lines, 0)

	if lines[0].Text != "a" || lines[1].Text != "b" {
		t.Fatalf("Expected lines sorted a, b; got %q, %q", lines[0].Text, lines[1].Text)
	}
	if lines[0].End != 3000 || lines[0].Duration != 2000 {
		t.Errorf("Expected a to end at 3000 (duration 2000), got %d (%d)", lines[0].End, lines[0].Duration)
	}
	if lines[1].End != 3000+DefaultSpanMs {
		t.Errorf("Expected b to end at %d, got %d", 3000+DefaultSpanMs, lines[1].End)
	}
}

func TestFinalize_Hint(t *testing.T) {
	tests := []struct {
		name     string
		hint     int64
		expected int64
	}{
		{name: "Positive hint after begin", hint: 9000, expected: 9000},
		{name: "No hint", hint: 0, expected: 7000},
		{name: "Negative hint", hint: -1, expected: 7000},
		{name: "Hint before begin", hint: 1000, expected: 7000},
		{name: "Hint equal to begin", hint: 2000, expected: 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []Line{{Timing: Timing{Begin: 2000, End: 2000}}}
			finalize(lines, tt.hint)
			if lines[0].End != tt.expected {
				t.Errorf("Expected end %d, got %d", tt.expected, lines[0].End)
			}
			if lines[0].Duration != lines[0].End-lines[0].Begin {
				t.Errorf("Expected duration %d, got %d", lines[0].End-lines[0].Begin, lines[0].Duration)
			}
		})
	}
}

func TestFinalize_KeepsExplicitEnd(t *testing.T) {
	lines := []RichLine{
		{Timing: Timing{Begin: 0, End: 4000}},
		{Timing: Timing{Begin: 1000, End: 1000}},
	}
	finalize(lines, 0)

	if lines[0].End != 4000 {
		t.Errorf("Expected explicit end 4000 to be kept, got %d", lines[0].End)
	}
	if lines[0].Duration != 4000 {
		t.Errorf("Expected duration recomputed to 4000, got %d", lines[0].Duration)
	}
}

func TestFinalize_InconsistentEndIsUnresolved(t *testing.T) {
	lines := []Word{{Timing: Timing{Begin: 5000, End: 1000, Duration: -4000}}}
	finalize(lines, 0)

	if lines[0].End != 10000 {
		t.Errorf("Expected end 10000, got %d", lines[0].End)
	}
	if lines[0].Duration != 5000 {
		t.Errorf("Expected duration 5000, got %d", lines[0].Duration)
	}
}

func TestFinalize_StableForEqualBegins(t *testing.T) {
	lines := []Line{
		{Timing: Timing{Begin: 1000}, Text: "first"},
		{Timing: Timing{Begin: 500}, Text: "zero"},
		{Timing: Timing{Begin: 1000}, Text: "second"},
		{Timing: Timing{Begin: 1000}, Text: "third"},
	}
	finalize(lines, 0)

	expected := []string{"zero", "first", "second", "third"}
	for i, text := range expected {
		if lines[i].Text != text {
			t.Errorf("Position %d: expected %q, got %q", i, text, lines[i].Text)
		}
	}
	// an equal next begin closes the entry with zero duration
	if lines[1].End != 1000 || lines[1].Duration != 0 {
		t.Errorf("Expected end 1000 duration 0, got %d / %d", lines[1].End, lines[1].Duration)
	}
}
