package kugou

import (
	"context"
	"fmt"
	"time"

	"lrckit-api/config"
	"lrckit-api/logcolors"
	"lrckit-api/services/providers"

	log "github.com/sirupsen/logrus"
)

const (
	// ProviderName is the identifier for the Kugou provider
	ProviderName = "kugou"

	// CachePrefix is the cache key prefix for Kugou lyrics
	CachePrefix = "kugou"
)

// KugouProvider implements providers.Provider on top of the Kugou search API
type KugouProvider struct {
	client        *Client
	durationDelta int
	minScore      float64
}

// NewProvider builds a provider from the global configuration
func NewProvider() *KugouProvider {
	conf := config.Get().Configuration
	return NewProviderWithClient(
		NewClient(time.Duration(conf.ProviderTimeoutSecs)*time.Second),
		conf.DurationMatchDeltaMs,
		conf.MinSimilarityScore,
	)
}

// NewProviderWithClient builds a provider around an existing client
func NewProviderWithClient(client *Client, durationDeltaMs int, minScore float64) *KugouProvider {
	return &KugouProvider{client: client, durationDelta: durationDeltaMs, minScore: minScore}
}

// Name returns the provider identifier
func (p *KugouProvider) Name() string {
	return ProviderName
}

// CacheKeyPrefix returns the cache key prefix for this provider
func (p *KugouProvider) CacheKeyPrefix() string {
	return CachePrefix
}

// FetchLyrics runs song search, lyrics search and download, then parses the
// result with the standard grammar.
func (p *KugouProvider) FetchLyrics(ctx context.Context, song, artist, album string, durationMs int) (*providers.LyricsResult, error) {
	if song == "" && artist == "" {
		return nil, providers.NewProviderError(ProviderName, "song name and artist name cannot both be empty", nil)
	}

	log.Infof("%s [Kugou] Searching: %s - %s", logcolors.LogSearch, song, artist)

	songs, err := p.client.SearchSongs(ctx, song, artist, 10)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "song search failed", err)
	}
	if len(songs) == 0 {
		return nil, providers.NewNotFoundError(ProviderName, fmt.Sprintf("no songs found for: %s - %s", song, artist))
	}

	filtered := songs
	if durationMs > 0 && p.durationDelta > 0 {
		filtered = filterSongsByDuration(songs, durationMs, p.durationDelta)
		if len(filtered) == 0 {
			return nil, providers.NewNotFoundError(ProviderName,
				fmt.Sprintf("no songs within %dms of duration %dms", p.durationDelta, durationMs))
		}
		log.Infof("%s [Kugou] %d/%d songs passed duration filter (delta: %dms)",
			logcolors.LogDurationFilter, len(filtered), len(songs), p.durationDelta)
	}

	bestSong, songScore := SelectBestSong(filtered, song, artist, durationMs)
	if bestSong == nil || songScore < p.minScore {
		return nil, providers.NewNotFoundError(ProviderName,
			fmt.Sprintf("best match score %.2f below threshold %.2f", songScore, p.minScore))
	}

	log.Infof("%s [Kugou] Found song: %s - %s (score: %.2f)",
		logcolors.LogMatch, bestSong.SongName, bestSong.SingerName, songScore)

	candidates, err := p.client.SearchLyrics(ctx, song, artist, durationMs, bestSong.Hash)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "lyrics search failed", err)
	}

	best, matchScore := SelectBestCandidate(candidates, song, artist, durationMs)
	if best == nil {
		return nil, providers.NewNotFoundError(ProviderName, fmt.Sprintf("no lyrics found for: %s - %s", song, artist))
	}

	log.Infof("%s [Kugou] Best lyrics match: %s - %s (score: %.2f, type: %d)",
		logcolors.LogBestMatch, best.Song, best.Singer, matchScore, best.KRCType)

	content, err := p.client.DownloadLyrics(ctx, best.ID, best.AccessKey)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "failed to download lyrics", err)
	}

	content = NormalizeLyrics(content)

	trackMs := best.Duration
	if trackMs <= 0 {
		trackMs = bestSong.Duration * 1000
	}
	doc := ParseLyrics(content, trackMs)
	if doc.IsEmpty() {
		return nil, providers.NewNotFoundError(ProviderName, "downloaded lyrics have no timed lines")
	}

	language := providers.NormalizeLanguageCode(best.Language)
	if language == "" {
		language = providers.DetectLanguage(content)
	}

	log.Infof("%s [Kugou] Fetched lyrics for: %s - %s (%d lines)",
		logcolors.LogLyrics, best.Song, best.Singer, len(doc.Lines))

	return &providers.LyricsResult{
		RawLyrics:       content,
		Document:        doc,
		TrackDurationMs: trackMs,
		Score:           matchScore,
		Provider:        ProviderName,
		Language:        language,
		IsRTL:           providers.IsRTLLanguage(language),
		Instrumental:    IsInstrumental(content),
	}, nil
}

func init() {
	providers.Register(NewProvider())
}
