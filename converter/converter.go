// Package converter rewrites lyric text from Traditional to Simplified Chinese.
package converter

import (
	"fmt"
	"sync"

	"lrckit-api/logcolors"
	"lrckit-api/lrc"

	"github.com/liuzl/gocc"
	log "github.com/sirupsen/logrus"
)

// TextConverter converts one string
type TextConverter interface {
	Convert(text string) (string, error)
}

// Converter applies a TextConverter to whole documents. A failed conversion
// of one string leaves that string unchanged.
type Converter struct {
	text TextConverter
}

// New wraps an existing text converter
func New(text TextConverter) *Converter {
	return &Converter{text: text}
}

// NewT2S loads the OpenCC t2s dictionaries
func NewT2S() (*Converter, error) {
	cc, err := gocc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenCC converter: %w", err)
	}
	log.Infof("%s OpenCC converter (t2s) initialized", logcolors.LogConverter)
	return New(cc), nil
}

var (
	defaultOnce sync.Once
	defaultConv *Converter
	defaultErr  error
)

// Default returns a process-wide t2s converter, loaded on first use
func Default() (*Converter, error) {
	defaultOnce.Do(func() {
		defaultConv, defaultErr = NewT2S()
	})
	return defaultConv, defaultErr
}

// String converts s
func (c *Converter) String(s string) string {
	if s == "" {
		return s
	}
	out, err := c.text.Convert(s)
	if err != nil {
		log.Warnf("%s Conversion failed, keeping original: %v", logcolors.LogWarning, err)
		return s
	}
	return out
}

// Document returns a converted copy of doc
func (c *Converter) Document(doc lrc.Document) lrc.Document {
	return doc.MapText(c.String)
}

// RichDocument returns a converted copy of doc
func (c *Converter) RichDocument(doc lrc.RichDocument) lrc.RichDocument {
	return doc.MapText(c.String)
}
