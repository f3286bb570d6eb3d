package main

import (
	"sync"

	"lrckit-api/lrc"
)

type contextKey string

const (
	cacheOnlyModeKey contextKey = "cacheOnlyMode"
	rateLimitTypeKey contextKey = "rateLimitType"
)

// Cache key prefixes
const (
	lyricsKeyPrefix   = "lyrics:"
	negativeKeyPrefix = "no_lyrics:"
)

// CachePerformance contains cache hit/miss statistics
type CachePerformance struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	NegativeHits int64   `json:"negative_hits"`
	StaleHits    int64   `json:"stale_hits"`
	Coalesced    int64   `json:"coalesced"`
	HitRate      float64 `json:"hit_rate_percent"`
}

// CacheDumpResponse is the response format for /cache endpoint
type CacheDumpResponse struct {
	Backend      string           `json:"backend"`
	NumberOfKeys int              `json:"number_of_keys"`
	SizeInKB     int              `json:"size_kb"`
	SizeInMB     float64          `json:"size_mb"`
	Performance  CachePerformance `json:"performance"`
	Keys         []string         `json:"keys"`
}

// CachedDocument is a parsed provider result as stored in the cache
type CachedDocument struct {
	Document        lrc.RichDocument `json:"document"`
	Provider        string           `json:"provider"`
	TrackDurationMs int              `json:"trackDurationMs,omitempty"`
	Score           float64          `json:"score,omitempty"`
	Language        string           `json:"language,omitempty"`
	IsRTL           bool             `json:"isRtlLanguage,omitempty"`
	Instrumental    bool             `json:"instrumental,omitempty"`
	CachedAt        int64            `json:"cachedAt"`
}

// NegativeCacheEntry stores info about failed lyrics lookups
type NegativeCacheEntry struct {
	Reason    string `json:"reason"`
	Provider  string `json:"provider"`
	Timestamp int64  `json:"timestamp"`
}

// InFlightRequest tracks concurrent requests for the same query
type InFlightRequest struct {
	wg     sync.WaitGroup
	result *CachedDocument
	status string
	err    error
}

// ParseRequest is the JSON body accepted by POST /parse. A non-JSON body is
// read as LRC text.
type ParseRequest struct {
	LRC         string `json:"lrc"`
	Translation string `json:"translation,omitempty"`
	Roma        string `json:"roma,omitempty"`
	DurationMs  int64  `json:"durationMs,omitempty"`
}
