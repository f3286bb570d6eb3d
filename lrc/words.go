package lrc

import (
	"cmp"
	"slices"
	"strings"
)

// ParseWords extracts word timing from a fragment such as
// "<00:01.10>Hello <00:01.50>World<00:02.00>". Each word's text runs up to
// the next tag. A trailing tag with no text after it only closes the
// previous word. Words are returned in begin order; out-of-order tags are
// stable-sorted before words without an explicit end take the next word's
// begin. The last word may keep end == begin for the caller to resolve.
//
// It returns nil when the fragment has no word tags.
func ParseWords(fragment string) []Word {
	locs := wordTagRegex.FindAllStringSubmatchIndex(fragment, -1)
	if len(locs) == 0 {
		return nil
	}

	words := make([]Word, 0, len(locs))
	for i, loc := range locs {
		begin := tagMs(fragment, loc)

		textEnd := len(fragment)
		if i+1 < len(locs) {
			textEnd = locs[i+1][0]
		}
		text := fragment[loc[1]:textEnd]

		if text != "" {
			words = append(words, Word{Timing: Timing{Begin: begin, End: begin}, Text: text})
			continue
		}

		// end anchor for the previous word
		if i == len(locs)-1 && len(words) > 0 {
			last := &words[len(words)-1]
			last.End = begin
			last.Duration = max(0, begin-last.Begin)
		}
	}

	if len(words) == 0 {
		return nil
	}

	slices.SortStableFunc(words, func(a, b Word) int {
		return cmp.Compare(a.Begin, b.Begin)
	})

	for i := 0; i+1 < len(words); i++ {
		if words[i].End <= words[i].Begin {
			words[i].End = words[i+1].Begin
			words[i].Duration = max(0, words[i].End-words[i].Begin)
		}
	}

	return words
}

func joinWords(words []Word) string {
	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(w.Text)
	}
	return sb.String()
}
