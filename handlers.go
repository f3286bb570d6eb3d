package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lrckit-api/cache"
	"lrckit-api/circuitbreaker"
	"lrckit-api/converter"
	"lrckit-api/logcolors"
	"lrckit-api/lrc"
	"lrckit-api/services/notifier"
	"lrckit-api/services/providers"
	"lrckit-api/stats"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// queryValue returns the first non-empty query parameter among names
func queryValue(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// parseDurationSeconds reads a track duration in seconds and returns
// milliseconds. Invalid or negative values count as unknown.
func parseDurationSeconds(s string) int {
	if s == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return int(secs * 1000)
}

// authorized checks the Authorization header against CACHE_ACCESS_TOKEN.
// An unset token locks the protected endpoints.
func authorized(r *http.Request) bool {
	token := conf.Configuration.CacheAccessToken
	return token != "" && r.Header.Get("Authorization") == token
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).Error(http.StatusUnauthorized, map[string]interface{}{
		"error": "Unauthorized",
	})
}

// simplifier returns the converter to apply to a response, or nil.
// The simplified query flag overrides FF_SIMPLIFIED_CHINESE.
func simplifier(r *http.Request) *converter.Converter {
	want := conf.FeatureFlags.SimplifiedChinese
	if v := r.URL.Query().Get("simplified"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			want = b
		}
	}
	if !want {
		return nil
	}

	c, err := converter.Default()
	if err != nil {
		log.Warnf("%s Simplified conversion unavailable: %v", logcolors.LogConverter, err)
		return nil
	}
	return c
}

// parseLyrics parses an LRC body. Query parameters:
//   - format: standard (default), enhanced or lrc (normalized LRC text)
//   - duration: track length in milliseconds, closes the last line
//   - simplified: convert Traditional Chinese text to Simplified
//
// A JSON body may carry translation and roma texts, which are attached to
// enhanced output.
func parseLyrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		Respond(w, r).Error(http.StatusMethodNotAllowed, map[string]interface{}{
			"error": "Use POST with the LRC text as the request body",
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, conf.Configuration.MaxParseBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Respond(w, r).Error(http.StatusRequestEntityTooLarge, map[string]interface{}{
				"error": fmt.Sprintf("Body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		Respond(w, r).Error(http.StatusBadRequest, map[string]interface{}{
			"error": "Failed to read request body",
		})
		return
	}

	var req ParseRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(body, &req); err != nil {
			Respond(w, r).Error(http.StatusBadRequest, map[string]interface{}{
				"error": "Invalid JSON body: " + err.Error(),
			})
			return
		}
	} else {
		req.LRC = string(body)
	}

	if d := r.URL.Query().Get("duration"); d != "" {
		ms, err := strconv.ParseInt(d, 10, 64)
		if err != nil || ms < 0 {
			Respond(w, r).Error(http.StatusBadRequest, map[string]interface{}{
				"error": "duration must be a non-negative number of milliseconds",
			})
			return
		}
		req.DurationMs = ms
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "standard"
	}
	conv := simplifier(r)

	switch format {
	case "standard", "lrc":
		doc := lrc.Parse(req.LRC, req.DurationMs)
		if conv != nil {
			doc = conv.Document(doc)
		}
		stats.Get().RecordParse(false, len(req.LRC), len(doc.Lines))
		log.Debugf("%s Parsed %d lines (%s)", logcolors.LogParser, len(doc.Lines), format)

		if format == "lrc" {
			Respond(w, r).Text(doc.String())
			return
		}
		Respond(w, r).JSON(map[string]interface{}{
			"format":   format,
			"document": doc,
		})

	case "enhanced":
		doc := lrc.ParseEnhanced(req.LRC, req.DurationMs)
		if req.Translation != "" || req.Roma != "" {
			doc = lrc.WithTranslations(doc, req.Translation, req.Roma)
		}
		if conv != nil {
			doc = conv.RichDocument(doc)
		}
		stats.Get().RecordParse(true, len(req.LRC), len(doc.Lines))
		log.Debugf("%s Parsed %d lines (enhanced)", logcolors.LogParser, len(doc.Lines))

		Respond(w, r).JSON(map[string]interface{}{
			"format":   format,
			"document": doc,
		})

	default:
		Respond(w, r).Error(http.StatusBadRequest, map[string]interface{}{
			"error": fmt.Sprintf("unknown format %q (use standard, enhanced or lrc)", format),
		})
	}
}

// resolveProvider picks the provider from the route, the provider query
// parameter or the configured default, in that order.
func resolveProvider(r *http.Request) (providers.Provider, error) {
	name := mux.Vars(r)["provider"]
	if name == "" {
		name = queryValue(r, "provider")
	}
	if name == "" {
		name = conf.Configuration.DefaultProvider
	}
	return providers.Get(strings.ToLower(name))
}

// lyricsResponse renders a cached document, converting it when requested
func lyricsResponse(doc *CachedDocument, conv *converter.Converter) map[string]interface{} {
	document := doc.Document
	if conv != nil {
		document = conv.RichDocument(document)
	}
	resp := map[string]interface{}{
		"provider":      doc.Provider,
		"lyrics":        document,
		"language":      doc.Language,
		"isRtlLanguage": doc.IsRTL,
		"instrumental":  doc.Instrumental,
	}
	if doc.Score > 0 {
		resp["score"] = doc.Score
	}
	if doc.TrackDurationMs > 0 {
		resp["trackDurationMs"] = doc.TrackDurationMs
	}
	return resp
}

// fetchLyrics calls the provider through its circuit breaker with the
// configured timeout
func fetchLyrics(ctx context.Context, p providers.Provider, song, artist, album string, durationMs int) (*providers.LyricsResult, error) {
	counters := stats.Get().Provider(p.Name())
	counters.Requests.Add(1)

	timeout := time.Duration(conf.Configuration.ProviderTimeoutSecs) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var result *providers.LyricsResult
	err := breakers.Get(p.Name()).Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = p.FetchLyrics(ctx, song, artist, album, durationMs)
		return err
	})

	switch {
	case err == nil:
		counters.Found.Add(1)
	case providers.IsNotFound(err):
		counters.NotFound.Add(1)
	default:
		counters.Errors.Add(1)
	}
	return result, err
}

// isBreakerFailure decides which provider errors count against a breaker
func isBreakerFailure(err error) bool {
	if err == nil || providers.IsNotFound(err) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// writeFetchError maps a provider error to a response
func writeFetchError(w http.ResponseWriter, r *http.Request, provider string, err error) {
	resp := Respond(w, r).SetCacheStatus("MISS").SetProvider(provider)
	switch {
	case providers.IsNotFound(err):
		resp.Error(http.StatusNotFound, map[string]interface{}{
			"error": "Lyrics not available for this track",
		})
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		w.Header().Set("Retry-After", strconv.Itoa(int(breakers.Get(provider).TimeUntilRetry().Seconds())+1))
		resp.Error(http.StatusServiceUnavailable, map[string]interface{}{
			"error": fmt.Sprintf("%s is temporarily unavailable", provider),
		})
	default:
		resp.Error(http.StatusBadGateway, map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// getLyrics serves /getLyrics and /{provider}/getLyrics
func getLyrics(w http.ResponseWriter, r *http.Request) {
	songName := queryValue(r, "s", "song", "songName")
	artistName := queryValue(r, "a", "artist", "artistName")
	albumName := queryValue(r, "al", "album", "albumName")
	durationMs := parseDurationSeconds(queryValue(r, "d", "duration"))

	if songName == "" && artistName == "" {
		Respond(w, r).Error(http.StatusUnprocessableEntity, map[string]interface{}{
			"error": "Song name or artist name not provided",
		})
		return
	}

	p, err := resolveProvider(r)
	if err != nil {
		Respond(w, r).Error(http.StatusNotFound, map[string]interface{}{
			"error":     err.Error(),
			"available": providers.List(),
		})
		return
	}

	name := p.Name()
	conv := simplifier(r)
	cacheKey := buildLyricsCacheKey(p.CacheKeyPrefix(), songName, artistName, albumName, durationMs)
	query := songName + " - " + artistName

	cached, fresh, found := getCachedLyrics(cacheKey)
	if found && fresh {
		stats.Get().RecordCacheHit()
		log.Infof("%s Found cached lyrics for: %s (%s)", logcolors.LogCacheLyrics, query, name)
		Respond(w, r).SetCacheStatus("HIT").SetProvider(cached.Provider).JSON(lyricsResponse(cached, conv))
		return
	}

	if reason, ok := getNegativeCache(cacheKey); ok {
		stats.Get().RecordNegativeCacheHit()
		log.Infof("%s Returning cached 'no lyrics' response for: %s", logcolors.LogCacheNegative, query)
		Respond(w, r).SetCacheStatus("NEGATIVE_HIT").SetProvider(name).Error(http.StatusNotFound, map[string]interface{}{
			"error": reason,
		})
		return
	}

	cacheOnlyMode, _ := r.Context().Value(cacheOnlyModeKey).(bool)
	if cacheOnlyMode || conf.FeatureFlags.CacheOnlyMode {
		if stale := staleLyrics(cached, p.CacheKeyPrefix(), songName, artistName, albumName, durationMs, cacheKey); stale != nil {
			stats.Get().RecordStaleCacheHit()
			Respond(w, r).SetCacheStatus("STALE").SetProvider(stale.Provider).JSON(lyricsResponse(stale, conv))
			return
		}
		stats.Get().RecordCacheMiss()
		log.Warnf("%s Cache-only mode but no cache found for: %s", logcolors.LogCacheLyrics, query)
		w.Header().Set("Retry-After", "60")
		Respond(w, r).SetCacheStatus("MISS").Error(http.StatusTooManyRequests, map[string]interface{}{
			"error":   "Rate limit exceeded. This request requires cached data, but no cache is available for this query.",
			"message": "Please try again later or reduce your request rate.",
		})
		return
	}

	req := &InFlightRequest{}
	req.wg.Add(1)
	if existing, loaded := inFlightReqs.LoadOrStore(cacheKey, req); loaded {
		inFlight := existing.(*InFlightRequest)
		stats.Get().RecordCoalesced()
		log.Infof("%s Waiting for in-flight request: %s", logcolors.LogCacheLyrics, query)
		inFlight.wg.Wait()

		if inFlight.err != nil {
			writeFetchError(w, r, name, inFlight.err)
			return
		}
		Respond(w, r).SetCacheStatus(inFlight.status).SetProvider(inFlight.result.Provider).JSON(lyricsResponse(inFlight.result, conv))
		return
	}
	defer func() {
		inFlightReqs.Delete(cacheKey)
		req.wg.Done()
	}()

	result, err := fetchLyrics(r.Context(), p, songName, artistName, albumName, durationMs)
	if err != nil {
		log.Errorf("%s Error fetching lyrics from %s: %v", logcolors.LogLyrics, name, err)

		if shouldNegativeCache(err) {
			stats.Get().RecordCacheMiss()
			setNegativeCache(cacheKey, name, "Lyrics not available for this track")
			req.err = err
			writeFetchError(w, r, name, err)
			return
		}

		if stale := staleLyrics(cached, p.CacheKeyPrefix(), songName, artistName, albumName, durationMs, cacheKey); stale != nil {
			stats.Get().RecordStaleCacheHit()
			log.Warnf("%s %s failed, serving stale cache for: %s", logcolors.LogCacheLyrics, name, query)
			req.result, req.status = stale, "STALE"
			Respond(w, r).SetCacheStatus("STALE").SetProvider(stale.Provider).JSON(lyricsResponse(stale, conv))
			return
		}

		stats.Get().RecordCacheMiss()
		req.err = err
		writeFetchError(w, r, name, err)
		return
	}

	stats.Get().RecordCacheMiss()
	doc := setCachedLyrics(cacheKey, result)
	req.result, req.status = doc, "MISS"
	log.Infof("%s Cached %d lines for: %s (%s)", logcolors.LogCacheLyrics, len(doc.Document.Lines), query, name)

	Respond(w, r).SetCacheStatus("MISS").SetProvider(name).JSON(lyricsResponse(doc, conv))
}

// staleLyrics returns an expired entry for the key itself or a fallback key
func staleLyrics(expired *CachedDocument, providerPrefix, song, artist, album string, durationMs int, cacheKey string) *CachedDocument {
	if expired != nil {
		return expired
	}
	for _, key := range buildFallbackCacheKeys(providerPrefix, song, artist, album, durationMs, cacheKey) {
		if doc, _, ok := getCachedLyrics(key); ok {
			return doc
		}
	}
	return nil
}

func cacheBackendName(s cache.Store) string {
	switch s.(type) {
	case *cache.RedisCache:
		return "redis"
	case *cache.PersistentCache:
		return "bbolt"
	default:
		return "unknown"
	}
}

func getStats(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		unauthorized(w, r)
		return
	}

	snapshot := stats.Get().Snapshot()

	numKeys, sizeInKB := store.Stats()
	snapshot["cache_storage"] = map[string]interface{}{
		"backend": cacheBackendName(store),
		"keys":    numKeys,
		"size_kb": sizeInKB,
		"size_mb": float64(sizeInKB) / 1024,
	}
	snapshot["circuit_breakers"] = breakers.Statuses()

	Respond(w, r).JSON(snapshot)
}

func getCacheDump(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		unauthorized(w, r)
		return
	}

	keys, err := store.Keys()
	if err != nil {
		log.Errorf("%s Failed to list keys: %v", logcolors.LogCache, err)
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
			"error": fmt.Sprintf("Failed to list keys: %v", err),
		})
		return
	}
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		filtered := keys[:0]
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				filtered = append(filtered, k)
			}
		}
		keys = filtered
	}

	numKeys, sizeInKB := store.Stats()
	s := stats.Get()

	Respond(w, r).JSON(CacheDumpResponse{
		Backend:      cacheBackendName(store),
		NumberOfKeys: numKeys,
		SizeInKB:     sizeInKB,
		SizeInMB:     float64(sizeInKB) / 1024,
		Performance: CachePerformance{
			Hits:         s.CacheHits.Load(),
			Misses:       s.CacheMisses.Load(),
			NegativeHits: s.NegativeCacheHits.Load(),
			StaleHits:    s.StaleCacheHits.Load(),
			Coalesced:    s.CoalescedRequests.Load(),
			HitRate:      s.CacheHitRate(),
		},
		Keys: keys,
	})
}

// clearCache removes every entry, or only one provider's entries when the
// provider query parameter is set. Stores that support it are backed up
// before a full clear.
func clearCache(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		unauthorized(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		Respond(w, r).Error(http.StatusMethodNotAllowed, map[string]interface{}{
			"error": "Use POST to clear the cache",
		})
		return
	}

	if name := r.URL.Query().Get("provider"); name != "" {
		p, err := providers.Get(name)
		if err != nil {
			Respond(w, r).Error(http.StatusNotFound, map[string]interface{}{"error": err.Error()})
			return
		}
		prefix := providerCachePrefix(p.CacheKeyPrefix())
		removed, err := store.DeletePrefix(prefix)
		if err == nil {
			var negatives int
			negatives, err = store.DeletePrefix(negativeKeyPrefix + prefix)
			removed += negatives
		}
		if err != nil {
			log.Errorf("%s Failed to clear %s entries: %v", logcolors.LogCacheClear, name, err)
			Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
				"error": fmt.Sprintf("Failed to clear cache: %v", err),
			})
			return
		}
		log.Infof("%s Cleared %d %s entries", logcolors.LogCacheClear, removed, name)
		notifier.PublishCacheCleared(name, removed, "")
		Respond(w, r).JSON(map[string]interface{}{
			"message":  "Provider cache cleared",
			"provider": name,
			"removed":  removed,
		})
		return
	}

	numKeys, _ := store.Stats()
	backupPath := ""
	response := map[string]interface{}{"message": "Cache cleared successfully"}
	if b, ok := store.(cache.Backuper); ok {
		path, err := b.Backup()
		if err != nil {
			log.Errorf("%s Backup before clear failed: %v", logcolors.LogCacheClear, err)
			notifier.PublishCacheBackupFailed(err)
			Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
				"error": fmt.Sprintf("Failed to back up cache: %v", err),
			})
			return
		}
		response["backup_path"] = path
		backupPath = path
	}

	if err := store.Clear(); err != nil {
		log.Errorf("%s Failed to clear cache: %v", logcolors.LogCacheClear, err)
		Respond(w, r).Error(http.StatusInternalServerError, map[string]interface{}{
			"error": fmt.Sprintf("Failed to clear cache: %v", err),
		})
		return
	}

	log.Infof("%s Cache cleared", logcolors.LogCacheClear)
	notifier.PublishCacheCleared("all", numKeys, backupPath)
	Respond(w, r).JSON(response)
}

func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	numKeys, _ := store.Stats()
	health := map[string]interface{}{
		"status":     "ok",
		"providers":  providers.List(),
		"cache":      cacheBackendName(store),
		"cache_keys": numKeys,
	}

	if breakers.AnyOpen() {
		health["status"] = "degraded"
	}
	if authorized(r) {
		health["circuit_breakers"] = breakers.Statuses()
	}

	Respond(w, r).JSON(health)
}

func getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		unauthorized(w, r)
		return
	}

	Respond(w, r).JSON(map[string]interface{}{
		"breakers": breakers.Statuses(),
		"config": map[string]interface{}{
			"threshold":    conf.Configuration.CircuitBreakerThreshold,
			"cooldown_sec": conf.Configuration.CircuitBreakerCooldownSecs,
		},
	})
}

// resetCircuitBreaker closes one breaker (?provider=) or all of them
func resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		unauthorized(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		Respond(w, r).Error(http.StatusMethodNotAllowed, map[string]interface{}{
			"error": "Use POST to reset circuit breakers",
		})
		return
	}

	name := r.URL.Query().Get("provider")
	if !breakers.Reset(name) {
		Respond(w, r).Error(http.StatusNotFound, map[string]interface{}{
			"error": fmt.Sprintf("no circuit breaker for %q", name),
		})
		return
	}

	message := "All circuit breakers reset to CLOSED state"
	if name != "" {
		message = fmt.Sprintf("Circuit breaker %s reset to CLOSED state", name)
	}
	Respond(w, r).JSON(map[string]interface{}{
		"message":  message,
		"breakers": breakers.Statuses(),
	})
}

func listProviders(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"providers": providers.List(),
		"default":   conf.Configuration.DefaultProvider,
	})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"help": "POST LRC text to /parse?format=standard|enhanced|lrc to parse it. " +
			"Use /getLyrics?s=<song>&a=<artist>&d=<seconds> to fetch and parse lyrics from a provider. " +
			"Example: /getLyrics?s=Shape%20of%20You&a=Ed%20Sheeran",
		"providers": providers.List(),
	})
}
