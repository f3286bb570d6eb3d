// Package local serves lyrics from a directory of .lrc files.
package local

import (
	"context"
	"fmt"

	"lrckit-api/logcolors"
	"lrckit-api/lrc"
	"lrckit-api/services/providers"

	log "github.com/sirupsen/logrus"
)

const (
	ProviderName = "local"
	CachePrefix  = "local"
)

// LocalProvider implements providers.Provider over a Library.
// Files are parsed with the enhanced grammar so word timing and duet
// roles in hand-made files are preserved.
type LocalProvider struct {
	library *Library
}

// NewProvider wraps an indexed library
func NewProvider(library *Library) *LocalProvider {
	return &LocalProvider{library: library}
}

func (p *LocalProvider) Name() string {
	return ProviderName
}

func (p *LocalProvider) CacheKeyPrefix() string {
	return CachePrefix
}

// FetchLyrics reads "artist - title.lrc" (or "title.lrc") from the library
func (p *LocalProvider) FetchLyrics(ctx context.Context, song, artist, album string, durationMs int) (*providers.LyricsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, ok := p.library.Lookup(artist, song)
	if !ok {
		return nil, providers.NewNotFoundError(ProviderName, fmt.Sprintf("no file for: %s - %s", artist, song))
	}

	content, err := ReadLyricsFile(path)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "failed to read "+path, err)
	}

	doc := lrc.ParseEnhanced(content, int64(durationMs))
	if doc.IsEmpty() {
		return nil, providers.NewNotFoundError(ProviderName, path+" has no timed lines")
	}

	log.Infof("%s [Local] Loaded %s (%d lines)", logcolors.LogLyrics, path, len(doc.Lines))

	language := providers.DetectLanguage(content)
	return &providers.LyricsResult{
		RawLyrics:       content,
		Document:        doc,
		TrackDurationMs: durationMs,
		Score:           1,
		Provider:        ProviderName,
		Language:        language,
		IsRTL:           providers.IsRTLLanguage(language),
	}, nil
}
