package lrc

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	msPerSecond int64 = 1000
	msPerMinute int64 = 60_000
	msPerHour   int64 = 3_600_000
)

// A three-field tag is hour:minute:second only when a '.' fraction follows.
// Otherwise the last field is a colon-separated fraction, so [00:12:34] is
// 12.34 seconds rather than 12 minutes.
const timeTagBody = `(?:(\d+):(\d+):(\d{1,2})\.(\d+)|(\d+):(\d{1,2})(?:[.:](\d+))?)`

var (
	timeTagRegex = regexp.MustCompile(`\[` + timeTagBody + `\]`)
	wordTagRegex = regexp.MustCompile(`<` + timeTagBody + `>`)
	metaTagRegex = regexp.MustCompile(`^\[(\w+)\s*:\s*([^\]]*)\]$`)
)

// timeTag is one time tag located inside a line
type timeTag struct {
	ms    int64
	start int
	end   int
}

// ParseTimeTag converts a single line-level tag such as "[01:02.34]" to
// milliseconds. The whole string must be one tag.
func ParseTimeTag(tag string) (int64, bool) {
	return parseWholeTag(timeTagRegex, tag)
}

// ParseWordTag converts a single word-level tag such as "<01:02.34>" to
// milliseconds. The whole string must be one tag.
func ParseWordTag(tag string) (int64, bool) {
	return parseWholeTag(wordTagRegex, tag)
}

func parseWholeTag(re *regexp.Regexp, tag string) (int64, bool) {
	loc := re.FindStringSubmatchIndex(tag)
	if loc == nil || loc[0] != 0 || loc[1] != len(tag) {
		return 0, false
	}
	return tagMs(tag, loc), true
}

// findTimeTags returns every line-level tag in line, or nil when the line
// does not begin with one.
func findTimeTags(line string) []timeTag {
	locs := timeTagRegex.FindAllStringSubmatchIndex(line, -1)
	if len(locs) == 0 || locs[0][0] != 0 {
		return nil
	}

	tags := make([]timeTag, len(locs))
	for i, loc := range locs {
		tags[i] = timeTag{ms: tagMs(line, loc), start: loc[0], end: loc[1]}
	}
	return tags
}

// parseMetaTag recognizes a [key: value] line. The key is lower-cased and
// the value trimmed.
func parseMetaTag(line string) (key, value string, ok bool) {
	m := metaTagRegex.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2]), true
}

// tagMs reads the capture groups of a timeTagBody match located by loc.
// Groups 1-4 are the hour form, groups 5-7 the minute form.
func tagMs(s string, loc []int) int64 {
	group := func(n int) string {
		if loc[2*n] < 0 {
			return ""
		}
		return s[loc[2*n]:loc[2*n+1]]
	}

	if hour := group(1); hour != "" {
		return toMs(hour, group(2), group(3), group(4))
	}
	return toMs("", group(5), group(6), group(7))
}

func toMs(hour, minute, second, fraction string) int64 {
	return parseDigits(hour)*msPerHour +
		parseDigits(minute)*msPerMinute +
		parseDigits(second)*msPerSecond +
		fractionMs(fraction)
}

// fractionMs scales the fraction by its length: ".5" is 500ms, ".05" is
// 50ms, ".005" is 5ms. Digits past the third are dropped.
func fractionMs(fraction string) int64 {
	switch len(fraction) {
	case 0:
		return 0
	case 1:
		return parseDigits(fraction) * 100
	case 2:
		return parseDigits(fraction) * 10
	default:
		return parseDigits(fraction[:3])
	}
}

func parseDigits(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
