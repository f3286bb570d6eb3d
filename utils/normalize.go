package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKey folds a song, artist or album name into a comparable form:
// NFKC, lower case, inner whitespace collapsed.
// Full-width and half-width forms of the same name normalize to one key.
func NormalizeKey(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CacheKey appends each normalized part to prefix, separated by '|'.
// Empty parts are kept so positions stay stable.
func CacheKey(prefix string, parts ...string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, p := range parts {
		sb.WriteByte('|')
		sb.WriteString(NormalizeKey(p))
	}
	return sb.String()
}
