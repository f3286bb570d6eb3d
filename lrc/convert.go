package lrc

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// translationPlaceholder is the empty-translation marker some sources emit
const translationPlaceholder = "//"

// ToRich lifts standard lines into rich lines without secondary content
func ToRich(lines []Line) []RichLine {
	out := make([]RichLine, len(lines))
	for i, l := range lines {
		out[i] = RichLine{Timing: l.Timing, Text: l.Text}
	}
	return out
}

// WithTranslations attaches translation and romanization texts to doc.
// Both are parsed with the enhanced grammar and matched to main lines by
// identical begin. Main lines with blank text are dropped. Either input
// may be empty.
func WithTranslations(doc RichDocument, translation, roma string) RichDocument {
	translations := textByBegin(translation)
	romas := textByBegin(roma)

	out := RichDocument{
		Metadata: maps.Clone(doc.Metadata),
		Lines:    make([]RichLine, 0, len(doc.Lines)),
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}

	for _, line := range doc.Lines {
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		line = line.clone()
		if t, ok := translations[line.Begin]; ok && t != translationPlaceholder {
			line.Translation = stringPtr(t)
		}
		if r, ok := romas[line.Begin]; ok {
			line.Roma = stringPtr(r)
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

func textByBegin(raw string) map[int64]string {
	doc := ParseEnhanced(raw, 0)
	if doc.IsEmpty() {
		return nil
	}
	texts := make(map[int64]string, len(doc.Lines))
	for _, l := range doc.Lines {
		texts[l.Begin] = l.Text
	}
	return texts
}

// MapText returns a copy of the document with every line text passed
// through fn.
func (d Document) MapText(fn func(string) string) Document {
	out := Document{Metadata: maps.Clone(d.Metadata), Lines: make([]Line, len(d.Lines))}
	for i, l := range d.Lines {
		l.Text = fn(l.Text)
		out.Lines[i] = l
	}
	return out
}

// MapText returns a copy of the document with every text field, including
// words, secondary content and translations, passed through fn.
func (d RichDocument) MapText(fn func(string) string) RichDocument {
	out := RichDocument{Metadata: maps.Clone(d.Metadata), Lines: make([]RichLine, len(d.Lines))}
	for i, l := range d.Lines {
		l = l.clone()
		l.Text = fn(l.Text)
		mapWords(l.Words, fn)
		mapWords(l.SecondaryWords, fn)
		l.Secondary = mapOptional(l.Secondary, fn)
		l.Translation = mapOptional(l.Translation, fn)
		l.Roma = mapOptional(l.Roma, fn)
		out.Lines[i] = l
	}
	return out
}

func mapWords(words []Word, fn func(string) string) {
	for i := range words {
		words[i].Text = fn(words[i].Text)
	}
}

func mapOptional(s *string, fn func(string) string) *string {
	if s == nil {
		return nil
	}
	return stringPtr(fn(*s))
}

// clone copies the word slices and optional strings so the result shares
// nothing with l.
func (l RichLine) clone() RichLine {
	l.Words = slices.Clone(l.Words)
	l.SecondaryWords = slices.Clone(l.SecondaryWords)
	if l.Secondary != nil {
		l.Secondary = stringPtr(*l.Secondary)
	}
	if l.Translation != nil {
		l.Translation = stringPtr(*l.Translation)
	}
	if l.Roma != nil {
		l.Roma = stringPtr(*l.Roma)
	}
	return l
}

// FormatTimestamp renders ms as a [mm:ss.xx] tag. Minutes are not wrapped
// into hours.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("[%02d:%02d.%02d]", ms/msPerMinute, (ms/msPerSecond)%60, (ms%msPerSecond)/10)
}

// String renders the document back to standard LRC, metadata first in key
// order.
func (d Document) String() string {
	var sb strings.Builder

	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "[%s:%s]\n", k, d.Metadata[k])
	}

	for _, l := range d.Lines {
		sb.WriteString(FormatTimestamp(l.Begin))
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
