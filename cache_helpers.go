package main

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"lrckit-api/cache"
	"lrckit-api/logcolors"
	"lrckit-api/services/providers"
	"lrckit-api/utils"

	log "github.com/sirupsen/logrus"
)

// Lyrics cache operations

// getCachedLyrics returns the cached document for key and whether it is
// still within the lyrics TTL. Expired entries are kept for stale fallback.
func getCachedLyrics(key string) (*CachedDocument, bool, bool) {
	cached, ok := store.Get(key)
	if !ok {
		return nil, false, false
	}

	var doc CachedDocument
	if err := json.Unmarshal([]byte(cached), &doc); err != nil {
		log.Warnf("%s Dropping unreadable entry %s: %v", logcolors.LogCacheLyrics, key, err)
		store.Delete(key)
		return nil, false, false
	}

	ttl := int64(conf.Configuration.LyricsCacheTTLInSeconds)
	fresh := ttl <= 0 || time.Now().Unix() < doc.CachedAt+ttl
	return &doc, fresh, true
}

// setCachedLyrics stores a provider result
func setCachedLyrics(key string, result *providers.LyricsResult) *CachedDocument {
	doc := &CachedDocument{
		Document:        result.Document,
		Provider:        result.Provider,
		TrackDurationMs: result.TrackDurationMs,
		Score:           result.Score,
		Language:        result.Language,
		IsRTL:           result.IsRTL,
		Instrumental:    result.Instrumental,
		CachedAt:        time.Now().Unix(),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		log.Errorf("%s Error marshaling cached lyrics: %v", logcolors.LogCacheLyrics, err)
		return doc
	}
	if err := store.Set(key, string(data)); err != nil {
		log.Errorf("%s Error setting cache value: %v", logcolors.LogCacheLyrics, err)
	}
	return doc
}

// Negative cache operations

func negativeTTL() int64 {
	return int64(conf.Configuration.NegativeCacheTTLInDays) * 24 * 60 * 60
}

// getNegativeCache checks if a request is in the negative cache (no lyrics available)
// Returns the reason and true if found and not expired, empty string and false otherwise
func getNegativeCache(key string) (string, bool) {
	negativeKey := negativeKeyPrefix + key
	cached, ok := store.Get(negativeKey)
	if !ok {
		return "", false
	}

	var entry NegativeCacheEntry
	if err := json.Unmarshal([]byte(cached), &entry); err != nil {
		return "", false
	}

	if time.Now().Unix() > entry.Timestamp+negativeTTL() {
		store.Delete(negativeKey)
		return "", false
	}

	return entry.Reason, true
}

// setNegativeCache stores a failed lookup in the negative cache
func setNegativeCache(key, provider, reason string) {
	entry := NegativeCacheEntry{
		Reason:    reason,
		Provider:  provider,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("%s Error marshaling negative cache entry: %v", logcolors.LogCacheNegative, err)
		return
	}
	if err := store.Set(negativeKeyPrefix+key, string(data)); err != nil {
		log.Errorf("%s Error setting negative cache: %v", logcolors.LogCacheNegative, err)
		return
	}
	log.Infof("%s Cached 'no lyrics' for key: %s (reason: %s)", logcolors.LogCacheNegative, key, reason)
}

// shouldNegativeCache reports whether err is a permanent "no lyrics" outcome.
// Transient failures are never cached.
func shouldNegativeCache(err error) bool {
	return providers.IsNotFound(err)
}

// purgeExpiredNegatives deletes negative entries past their TTL
func purgeExpiredNegatives(s cache.Store) int {
	keys, err := s.Keys()
	if err != nil {
		log.Warnf("%s Failed to list keys: %v", logcolors.LogCacheNegative, err)
		return 0
	}

	now := time.Now().Unix()
	purged := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, negativeKeyPrefix) {
			continue
		}
		cached, ok := s.Get(key)
		if !ok {
			continue
		}
		var entry NegativeCacheEntry
		if err := json.Unmarshal([]byte(cached), &entry); err == nil && now <= entry.Timestamp+negativeTTL() {
			continue
		}
		if err := s.Delete(key); err == nil {
			purged++
		}
	}
	return purged
}

// Cache key builders

// buildLyricsCacheKey creates a normalized cache key for one provider lookup.
// Casing, width and whitespace differences in the query map to one key.
func buildLyricsCacheKey(providerPrefix, songName, artistName, albumName string, durationMs int) string {
	duration := ""
	if durationMs > 0 {
		duration = strconv.Itoa(durationMs/1000) + "s"
	}
	return utils.CacheKey(lyricsKeyPrefix+providerPrefix, songName, artistName, albumName, duration)
}

// buildFallbackCacheKeys returns keys to try when the provider fails.
// Duration is preserved so fallbacks never cross track lengths.
func buildFallbackCacheKeys(providerPrefix, songName, artistName, albumName string, durationMs int, originalKey string) []string {
	var keys []string
	if strings.TrimSpace(albumName) != "" {
		noAlbum := buildLyricsCacheKey(providerPrefix, songName, artistName, "", durationMs)
		if noAlbum != originalKey {
			keys = append(keys, noAlbum)
		}
	}
	return keys
}

// providerCachePrefix is the key prefix that covers every entry of a provider
func providerCachePrefix(providerPrefix string) string {
	return lyricsKeyPrefix + providerPrefix + "|"
}
