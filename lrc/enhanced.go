package lrc

import (
	"regexp"
	"slices"
	"strings"
)

const backgroundRole = "bg"

var roleRegex = regexp.MustCompile(`(?i)^(v\d+|bg):\s*(.+)$`)

// enhancedParser holds the state of one ParseEnhanced call
type enhancedParser struct {
	// lead is the first non-background role seen in the document
	lead  string
	lines []RichLine
}

// ParseEnhanced reads enhanced LRC text: the standard grammar plus word
// tags, role prefixes and background vocals.
//
//   - "v1: text" / "v2: text" / "bg: text" set the line's role. Lines whose
//     role differs from the first non-background role are aligned right.
//   - When a line carries word tags its text is rebuilt from the words and
//     its begin/end come from the first and last word.
//   - A line with the same begin as the previous emitted line is folded into
//     that line's secondary slot, unless the slot is already taken.
//   - A standalone [bg: text] tag sets the previous emitted line's secondary
//     slot and never creates an entry. It overwrites a secondary set by the
//     merge rule.
//   - Secondary content extends the line's end when its last word is closed.
//     When that word is unclosed the line's end is inferred like any
//     unresolved end, and never ends before one of its explicit word ends.
//
// durationMs is the track length used to close the last entry; zero means
// unknown.
func ParseEnhanced(raw string, durationMs int64) RichDocument {
	doc := emptyRichDocument()
	if strings.TrimSpace(raw) == "" {
		return doc
	}

	p := &enhancedParser{lines: doc.Lines}
	for _, rawLine := range splitLines(raw) {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if tags := findTimeTags(line); tags != nil {
			for _, candidate := range p.buildLines(line, tags) {
				p.emit(candidate)
			}
			continue
		}

		key, value, ok := parseMetaTag(line)
		if !ok {
			continue
		}
		if key == backgroundRole && len(p.lines) > 0 {
			attachBackground(&p.lines[len(p.lines)-1], value)
			continue
		}
		doc.Metadata[key] = value
	}

	doc.Lines = p.lines
	finalize(doc.Lines, durationMs)
	for i := range doc.Lines {
		line := &doc.Lines[i]
		coverWords(line)
		if len(line.Words) > 0 {
			finalize(line.Words, line.End)
		}
		if len(line.SecondaryWords) > 0 {
			finalize(line.SecondaryWords, line.End)
		}
	}

	return doc
}

// buildLines produces one candidate per time tag on the line
func (p *enhancedParser) buildLines(line string, tags []timeTag) []RichLine {
	content := strings.TrimSpace(line[tags[len(tags)-1].end:])

	role := ""
	if m := roleRegex.FindStringSubmatch(content); m != nil {
		role = strings.ToLower(m[1])
		content = m[2]
		if p.lead == "" && role != backgroundRole {
			p.lead = role
		}
	}
	alignedRight := role != "" && role != backgroundRole && role != p.lead

	words := ParseWords(content)
	text := content
	if len(words) > 0 {
		text = joinWords(words)
	}

	out := make([]RichLine, 0, len(tags))
	for _, tag := range tags {
		begin, end := tag.ms, tag.ms
		if len(words) > 0 {
			// word timing is more precise than the line cue. An unclosed
			// last word leaves the end for finalize to infer.
			first, last := words[0], words[len(words)-1]
			begin, end = first.Begin, first.Begin
			if last.End > last.Begin {
				end = last.End
			}
		}

		out = append(out, RichLine{
			Timing:         Timing{Begin: begin, End: end, Duration: max(0, end-begin)},
			Text:           text,
			Words:          slices.Clone(words),
			IsAlignedRight: alignedRight,
		})
	}
	return out
}

// emit appends candidate, or folds it into the previous line when both
// start together and the previous line has no secondary yet.
func (p *enhancedParser) emit(candidate RichLine) {
	if n := len(p.lines); n > 0 {
		prev := &p.lines[n-1]
		if prev.Begin == candidate.Begin && prev.Secondary == nil {
			prev.Secondary = stringPtr(candidate.Text)
			prev.SecondaryWords = candidate.Words
			switch {
			case candidate.End > candidate.Begin:
				extendEnd(prev, candidate.End)
			case len(candidate.Words) > 0:
				reopen(prev)
			}
			return
		}
	}
	p.lines = append(p.lines, candidate)
}

// attachBackground stores a [bg: ...] value as the line's secondary content
func attachBackground(line *RichLine, content string) {
	words := ParseWords(content)
	if len(words) == 0 {
		line.Secondary = stringPtr(content)
		line.SecondaryWords = nil
		return
	}

	line.Secondary = stringPtr(joinWords(words))
	line.SecondaryWords = words
	if last := words[len(words)-1]; last.End > last.Begin {
		extendEnd(line, last.End)
	} else {
		reopen(line)
	}
}

// reopen leaves the line's end for finalize to infer. Secondary content
// whose last word is unclosed runs until the next line.
func reopen(line *RichLine) {
	line.End = line.Begin
	line.Duration = 0
}

// coverWords widens the line to the latest explicit end among its words
func coverWords(line *RichLine) {
	for _, words := range [][]Word{line.Words, line.SecondaryWords} {
		for _, w := range words {
			if w.End > w.Begin {
				extendEnd(line, w.End)
			}
		}
	}
}

func extendEnd(line *RichLine, end int64) {
	if end > line.End {
		line.End = end
		line.Duration = max(0, line.End-line.Begin)
	}
}
