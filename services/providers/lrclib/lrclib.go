// Package lrclib fetches synchronized lyrics from lrclib.net.
package lrclib

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"lrckit-api/config"
	"lrckit-api/logcolors"
	"lrckit-api/lrc"
	"lrckit-api/services/providers"

	log "github.com/sirupsen/logrus"
)

const (
	ProviderName = "lrclib"
	CachePrefix  = "lrclib"

	// integrity score of a record with every field present
	maxIntegrity = 100
)

// LrclibProvider implements providers.Provider for lrclib.net
type LrclibProvider struct {
	client        *Client
	durationDelta int
}

// NewProvider builds a provider from the global configuration
func NewProvider() *LrclibProvider {
	conf := config.Get().Configuration
	client := NewClient(conf.LrclibBaseURL, conf.LrclibUserAgent,
		time.Duration(conf.ProviderTimeoutSecs)*time.Second)
	return NewProviderWithClient(client, conf.DurationMatchDeltaMs)
}

// NewProviderWithClient builds a provider around an existing client
func NewProviderWithClient(client *Client, durationDeltaMs int) *LrclibProvider {
	return &LrclibProvider{client: client, durationDelta: durationDeltaMs}
}

func (p *LrclibProvider) Name() string {
	return ProviderName
}

func (p *LrclibProvider) CacheKeyPrefix() string {
	return CachePrefix
}

// IntegrityScore rates how complete a record is:
// track 20, artist 20, album 10, synced lyrics 50.
func IntegrityScore(r Record) int {
	score := 0
	if strings.TrimSpace(r.TrackName) != "" {
		score += 20
	}
	if strings.TrimSpace(r.ArtistName) != "" {
		score += 20
	}
	if strings.TrimSpace(r.AlbumName) != "" {
		score += 10
	}
	if strings.TrimSpace(r.SyncedLyrics) != "" {
		score += 50
	}
	return score
}

// Rank drops records outside deltaMs of durationMs and orders the rest by
// integrity score, then by duration closeness. durationMs <= 0 disables
// both the filter and the tie break; records without a duration are kept.
func Rank(records []Record, durationMs, deltaMs int) []Record {
	ranked := make([]Record, 0, len(records))
	for _, r := range records {
		if durationMs > 0 && deltaMs > 0 && r.Duration > 0 && absInt(r.DurationMs()-durationMs) > deltaMs {
			continue
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := IntegrityScore(ranked[i]), IntegrityScore(ranked[j])
		if si != sj {
			return si > sj
		}
		if durationMs <= 0 {
			return false
		}
		return distance(ranked[i], durationMs) < distance(ranked[j], durationMs)
	})
	return ranked
}

// records without a duration sort after any timed record
func distance(r Record, durationMs int) int {
	if r.Duration <= 0 {
		return int(^uint(0) >> 1)
	}
	return absInt(r.DurationMs() - durationMs)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// FetchLyrics searches lrclib and parses the best record's synced lyrics
// with the enhanced grammar, so word-timed records keep their word timing.
// Instrumental tracks yield an empty document.
func (p *LrclibProvider) FetchLyrics(ctx context.Context, song, artist, album string, durationMs int) (*providers.LyricsResult, error) {
	if strings.TrimSpace(song) == "" {
		return nil, providers.NewProviderError(ProviderName, "track name is required", nil)
	}

	log.Infof("%s [LRCLIB] Searching: %s - %s", logcolors.LogSearch, song, artist)

	records, err := p.client.Search(ctx, song, artist, album)
	if err != nil {
		return nil, providers.NewProviderError(ProviderName, "search failed", err)
	}

	ranked := Rank(records, durationMs, p.durationDelta)
	if len(ranked) == 0 {
		if len(records) > 0 {
			log.Infof("%s [LRCLIB] All %d results outside %dms of %dms",
				logcolors.LogDurationFilter, len(records), p.durationDelta, durationMs)
		}
		return nil, providers.NewNotFoundError(ProviderName, fmt.Sprintf("no results for: %s - %s", song, artist))
	}

	best := ranked[0]
	score := float64(IntegrityScore(best)) / maxIntegrity

	log.Infof("%s [LRCLIB] Best match: %s - %s (id: %d, score: %.2f)",
		logcolors.LogBestMatch, best.TrackName, best.ArtistName, best.ID, score)

	trackMs := best.DurationMs()
	if trackMs <= 0 {
		trackMs = durationMs
	}

	result := &providers.LyricsResult{
		RawLyrics:       best.SyncedLyrics,
		TrackDurationMs: trackMs,
		Score:           score,
		Provider:        ProviderName,
		Instrumental:    best.Instrumental,
	}

	if best.Instrumental {
		result.Document = lrc.RichDocument{Metadata: map[string]string{}, Lines: []lrc.RichLine{}}
		return result, nil
	}

	if strings.TrimSpace(best.SyncedLyrics) == "" {
		return nil, providers.NewNotFoundError(ProviderName, "best match has no synced lyrics")
	}

	doc := lrc.ParseEnhanced(best.SyncedLyrics, int64(trackMs))
	if doc.IsEmpty() {
		return nil, providers.NewNotFoundError(ProviderName, "synced lyrics have no timed lines")
	}

	result.Document = doc
	result.Language = providers.DetectLanguage(best.SyncedLyrics)
	result.IsRTL = providers.IsRTLLanguage(result.Language)

	log.Infof("%s [LRCLIB] Parsed %d lines for: %s - %s",
		logcolors.LogLyrics, len(doc.Lines), best.TrackName, best.ArtistName)

	return result, nil
}

func init() {
	providers.Register(NewProvider())
}
