// Package lrc parses timestamped lyric text into an ordered timeline.
//
// Two grammars are supported. The standard grammar (Parse) reads plain LRC:
// one or more leading [mm:ss.xx] cues per line plus [key: value] metadata.
// The enhanced grammar (ParseEnhanced) adds <mm:ss.xx> word tags, v1:/v2:/bg:
// role prefixes, same-timestamp merging into secondary lines and standalone
// [bg: ...] background tags.
//
// Parsing never fails: malformed lines are dropped and blank input yields an
// empty document. All functions are safe for concurrent use.
package lrc

// DefaultSpanMs is the span given to a trailing entry whose end cannot be
// inferred from a following entry or a duration hint.
const DefaultSpanMs int64 = 5000

// Timing is the begin/end/duration triple shared by lines and words.
// All values are milliseconds.
type Timing struct {
	Begin    int64 `json:"begin"`
	End      int64 `json:"end"`
	Duration int64 `json:"duration"`
}

func (t *Timing) timing() *Timing { return t }

// Line is a timed line produced by the standard grammar
type Line struct {
	Timing
	Text string `json:"text"`
}

// Word is a word-level timing segment. It is owned by exactly one line.
type Word struct {
	Timing
	Text string `json:"text"`
}

// RichLine is a line produced by the enhanced grammar
type RichLine struct {
	Timing
	Text           string  `json:"text"`
	Words          []Word  `json:"words,omitempty"`
	Translation    *string `json:"translation,omitempty"`
	Roma           *string `json:"roma,omitempty"`
	Secondary      *string `json:"secondary,omitempty"`
	SecondaryWords []Word  `json:"secondaryWords,omitempty"`

	// IsAlignedRight marks a line sung by a voice other than the lead voice.
	// It is a rendering hint for duets and carries no timing meaning.
	IsAlignedRight bool `json:"isAlignedRight"`
}

// Document is the result of parsing with the standard grammar
type Document struct {
	Metadata map[string]string `json:"metadata"`
	Lines    []Line            `json:"lines"`
}

// RichDocument is the result of parsing with the enhanced grammar
type RichDocument struct {
	Metadata map[string]string `json:"metadata"`
	Lines    []RichLine        `json:"lines"`
}

// IsEmpty reports whether the document has no timeline entries
func (d Document) IsEmpty() bool {
	return len(d.Lines) == 0
}

// IsEmpty reports whether the document has no timeline entries
func (d RichDocument) IsEmpty() bool {
	return len(d.Lines) == 0
}

func emptyDocument() Document {
	return Document{Metadata: map[string]string{}, Lines: []Line{}}
}

func emptyRichDocument() RichDocument {
	return RichDocument{Metadata: map[string]string{}, Lines: []RichLine{}}
}

func stringPtr(s string) *string {
	return &s
}
