package lrc

import "strings"

// Parse reads standard LRC text. Every time tag on a line becomes its own
// entry sharing the text after the last tag; duplicate cues are kept.
// Lines without a leading time tag are read as [key: value] metadata or
// dropped. durationMs is the track length used to close the last entry;
// zero means unknown.
func Parse(raw string, durationMs int64) Document {
	doc := emptyDocument()
	if strings.TrimSpace(raw) == "" {
		return doc
	}

	for _, rawLine := range splitLines(raw) {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		tags := findTimeTags(line)
		if tags == nil {
			if key, value, ok := parseMetaTag(line); ok {
				doc.Metadata[key] = value
			}
			continue
		}

		text := strings.TrimSpace(line[tags[len(tags)-1].end:])
		for _, tag := range tags {
			doc.Lines = append(doc.Lines, Line{
				Timing: Timing{Begin: tag.ms, End: tag.ms},
				Text:   text,
			})
		}
	}

	finalize(doc.Lines, durationMs)
	return doc
}

// splitLines splits on \n, \r\n and lone \r. Empty lines are not returned.
func splitLines(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}
