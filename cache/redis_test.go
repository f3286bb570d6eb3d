package cache

import "testing"

func TestNewRedisCache_Unreachable(t *testing.T) {
	// port 1 on loopback refuses connections
	if _, err := NewRedisCache("127.0.0.1:1", "", 0, false); err == nil {
		t.Error("Expected error when redis is unreachable")
	}
}

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"lrclib|song", "lrclib|song"},
		{"a*b", `a\*b`},
		{"what?", `what\?`},
		{"[live]", `\[live\]`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeGlob(tt.input); got != tt.expected {
			t.Errorf("escapeGlob(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
