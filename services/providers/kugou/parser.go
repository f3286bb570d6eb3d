package kugou

import (
	"encoding/base64"
	"regexp"
	"strings"

	"lrckit-api/lrc"
)

var (
	timedLineRegex = regexp.MustCompile(`^\[\d{2}:\d{2}[.:]\d{2,3}\]`)
	metaLineRegex  = regexp.MustCompile(`^\[[a-zA-Z]+:[^\]]*\]$`)

	// Credit lines such as "[00:05.00]作曲：xxx". Only the head and tail of
	// a file are scanned so lyrics containing a full-width colon survive.
	bannedRegex = regexp.MustCompile(`^\[\d{2}:\d{2}[.:]\d{2,3}\].+：.+`)
)

const (
	// PureMusicText is the placeholder Kugou serves for instrumental tracks
	PureMusicText = "纯音乐，请欣赏"

	InstrumentalText = "[Instrumental Only]"

	MaxHeadTailLines = 30
)

// Kugou bookkeeping tags that are not track metadata
var internalTags = map[string]bool{
	"id":    true,
	"hash":  true,
	"sign":  true,
	"qq":    true,
	"total": true,
}

// DecodeBase64Content decodes the download payload and drops a UTF-8 BOM
func DecodeBase64Content(encoded string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(decoded), "\ufeff"), nil
}

// IsInstrumental reports whether normalized content is the instrumental marker
func IsInstrumental(content string) bool {
	return strings.HasSuffix(content, InstrumentalText) && strings.Count(content, "\n") == 0
}

// NormalizeLyrics removes credit lines from the head and tail of the timed
// lines and replaces the pure music placeholder. Metadata lines are kept in
// front of the timed lines. Anything else is dropped.
func NormalizeLyrics(content string) string {
	content = strings.ReplaceAll(content, "&apos;", "'")

	if strings.Contains(content, PureMusicText) {
		return "[00:00.00]" + InstrumentalText
	}

	var meta, timed []string
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
		case timedLineRegex.MatchString(line):
			timed = append(timed, line)
		case metaLineRegex.MatchString(line):
			meta = append(meta, line)
		}
	}

	if len(timed) == 0 {
		return content
	}

	// drop everything up to the last credit line near the head
	head := 0
	for i := min(MaxHeadTailLines, len(timed)) - 1; i >= 0; i-- {
		if bannedRegex.MatchString(timed[i]) {
			head = i + 1
			break
		}
	}

	// and from the first credit line found walking back from the tail
	end := len(timed)
	for i := 0; i < MaxHeadTailLines && i < len(timed); i++ {
		idx := len(timed) - 1 - i
		if idx < head {
			break
		}
		if bannedRegex.MatchString(timed[idx]) {
			end = idx
			break
		}
	}

	return strings.Join(append(meta, timed[head:end]...), "\n")
}

// ParseLyrics parses normalized Kugou LRC with the standard grammar and
// returns rich lines. Kugou bookkeeping tags are removed from the metadata.
func ParseLyrics(content string, durationMs int) lrc.RichDocument {
	doc := lrc.Parse(content, int64(durationMs))

	for key := range doc.Metadata {
		if internalTags[key] {
			delete(doc.Metadata, key)
		}
	}

	return lrc.RichDocument{
		Metadata: doc.Metadata,
		Lines:    lrc.ToRich(doc.Lines),
	}
}
