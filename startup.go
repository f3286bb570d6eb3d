package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"lrckit-api/cache"
	"lrckit-api/circuitbreaker"
	"lrckit-api/logcolors"
	"lrckit-api/middleware"
	"lrckit-api/services/notifier"
	"lrckit-api/services/providers"
	"lrckit-api/services/providers/local"
	"lrckit-api/stats"

	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// publicPaths never require an API key
var publicPaths = []string{"/", "/health", "/providers"}

// openStore opens Redis when REDIS_ADDR is set, otherwise the bbolt file
// cache with backups kept next to it
func openStore() (cache.Store, error) {
	compression := conf.FeatureFlags.CacheCompression

	if addr := conf.Configuration.RedisAddr; addr != "" {
		log.Infof("%s Using Redis at %s", logcolors.LogCacheInit, addr)
		return cache.NewRedisCache(addr, conf.Configuration.RedisPassword, conf.Configuration.RedisDB, compression)
	}

	dbPath := conf.Configuration.CacheDBPath
	backupPath := filepath.Join(filepath.Dir(dbPath), "backups")
	log.Infof("%s Using bbolt cache at %s", logcolors.LogCacheInit, dbPath)
	return cache.NewPersistentCache(dbPath, backupPath, compression)
}

// openStatsStore restores persisted counters into the global stats and
// starts periodic saving. It returns nil when persistence is unavailable.
func openStatsStore() *stats.Store {
	st, err := stats.NewStore(conf.Configuration.StatsDBPath, stats.Get())
	if err != nil {
		log.Warnf("%s Stats persistence disabled: %v", logcolors.LogStats, err)
		return nil
	}
	if err := st.Load(); err != nil {
		log.Warnf("%s %v", logcolors.LogStats, err)
	}

	interval := time.Duration(conf.Configuration.StatsSaveIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	st.StartAutoSave(interval)
	return st
}

func newBreakerGroup() *circuitbreaker.Group {
	cooldown := time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second
	return circuitbreaker.NewGroup(circuitbreaker.Config{
		Threshold:     conf.Configuration.CircuitBreakerThreshold,
		Cooldown:      cooldown,
		IsFailure:     isBreakerFailure,
		OnStateChange: breakerAlert(cooldown),
	})
}

// breakerAlert publishes trips and recoveries. Half-open probes are not
// reported.
func breakerAlert(cooldown time.Duration) func(name string, from, to circuitbreaker.State, failures int) {
	return func(name string, from, to circuitbreaker.State, failures int) {
		switch {
		case to == circuitbreaker.StateOpen && from == circuitbreaker.StateClosed:
			notifier.PublishCircuitBreakerOpen(name, failures, cooldown)
		case to == circuitbreaker.StateClosed:
			notifier.PublishCircuitBreakerRecovered(name)
		}
	}
}

// setupNotifiers builds a notifier for every configured channel
func setupNotifiers() []notifier.Notifier {
	nc := conf.Notifier
	var notifiers []notifier.Notifier

	if nc.SMTPHost != "" {
		notifiers = append(notifiers, &notifier.EmailNotifier{
			SMTPHost:     nc.SMTPHost,
			SMTPPort:     nc.SMTPPort,
			SMTPUsername: nc.SMTPUsername,
			SMTPPassword: nc.SMTPPassword,
			FromEmail:    nc.FromEmail,
			ToEmail:      nc.ToEmail,
		})
	}
	if nc.TelegramBotToken != "" {
		notifiers = append(notifiers, &notifier.TelegramNotifier{
			BotToken: nc.TelegramBotToken,
			ChatID:   nc.TelegramChatID,
		})
	}
	if nc.NtfyTopic != "" {
		notifiers = append(notifiers, &notifier.NtfyNotifier{
			Topic:  nc.NtfyTopic,
			Server: nc.NtfyServer,
		})
	}

	for _, n := range notifiers {
		log.Infof("%s %s notifier enabled", logcolors.LogNotifier, notifier.TypeName(n))
	}
	return notifiers
}

// startAlerts subscribes an alert handler to the global event bus when at
// least one notifier is configured
func startAlerts() {
	notifiers := setupNotifiers()
	if len(notifiers) == 0 {
		log.Infof("%s No notifiers configured, alerts disabled", logcolors.LogNotifier)
		return
	}

	notifier.NewAlertHandler(notifier.AlertConfig{
		Notifiers:        notifiers,
		CooldownDuration: time.Duration(conf.Notifier.AlertCooldownMinutes) * time.Minute,
	}).Start(notifier.GetEventBus())
}

// registerLocalProvider indexes LOCAL_LYRICS_DIR and keeps the index fresh
// until ctx is done. It is a no-op when the directory is not configured.
func registerLocalProvider(ctx context.Context) {
	dir := conf.Configuration.LocalLyricsDir
	if dir == "" {
		return
	}

	library, err := local.NewLibrary(dir)
	if err != nil {
		log.Warnf("%s Local lyrics disabled: %v", logcolors.LogLocalIndex, err)
		return
	}
	providers.Register(local.NewProvider(library))
	log.Infof("%s Indexed %d files in %s", logcolors.LogLocalIndex, library.Len(), dir)

	go func() {
		if err := library.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Warnf("%s Watch stopped: %v", logcolors.LogWatcher, err)
			notifier.PublishLocalWatchStopped(dir, err)
		}
	}()
}

func newRateLimiter() *middleware.IPRateLimiter {
	return middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond),
		conf.Configuration.RateLimitBurstLimit,
		rate.Limit(conf.Configuration.CachedRateLimitPerSecond),
		conf.Configuration.CachedRateLimitBurstLimit,
	)
}

func limitMiddleware(next http.Handler, limiter *middleware.IPRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check for API key to bypass rate limits
		if middleware.HasValidAPIKey(r, conf.Configuration.APIKey) {
			stats.Get().RecordRateLimit("bypass")
			w.Header().Set("X-RateLimit-Bypass", "true")
			ctx := context.WithValue(r.Context(), rateLimitTypeKey, "bypass")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ip := middleware.ClientIP(r)
		limiters := limiter.GetLimiter(ip)

		// Try normal tier first
		if limiters.Normal.Allow() {
			stats.Get().RecordRateLimit("normal")
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.GetNormalLimit()))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", limiters.GetNormalTokens()))
			ctx := context.WithValue(r.Context(), rateLimitTypeKey, "normal")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Normal tier exceeded, cached tier only serves from cache
		if limiters.Cached.Allow() {
			stats.Get().RecordRateLimit("cached")
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.GetCachedLimit()))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", limiters.GetCachedTokens()))
			log.Debugf("%s IP %s exceeded normal tier, using cached tier", logcolors.LogRateLimit, ip)
			ctx := context.WithValue(r.Context(), cacheOnlyModeKey, true)
			ctx = context.WithValue(ctx, rateLimitTypeKey, "cached")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		stats.Get().RecordRateLimit("exceeded")
		log.Warnf("%s IP %s exceeded both rate limit tiers", logcolors.LogRateLimit, ip)
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.GetCachedLimit()))
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Type", "exceeded")
		w.Header().Set("Retry-After", "1")
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
	})
}

// statsMiddleware records per-route counts, status codes and latency
func statsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := middleware.NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		s := stats.Get()
		s.RecordRequest(r.URL.Path)
		s.RecordStatusCode(rec.StatusCode)
		s.RecordResponseTime(time.Since(start))
	})
}

// buildHandler wraps the router in the middleware chain. Requests pass
// through stats, logging, CORS, rate limiting and API key checks in that
// order.
func buildHandler(router http.Handler, limiter *middleware.IPRateLimiter) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"https://music.youtube.com", "http://localhost:3000"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key"},
		ExposedHeaders:   []string{"X-Cache-Status", "X-Provider", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Type"},
		AllowCredentials: true,
	})

	apiKeyAuth := middleware.APIKeyMiddleware(conf.Configuration.APIKey, conf.Configuration.APIKeyRequired, publicPaths)

	handler := apiKeyAuth(router)
	handler = limitMiddleware(handler, limiter)
	handler = c.Handler(handler)
	handler = middleware.LoggingMiddleware(handler)
	return statsMiddleware(handler)
}

// runMaintenance sweeps idle limiters and expired negative entries until
// ctx is done
func runMaintenance(ctx context.Context, limiter *middleware.IPRateLimiter) {
	interval := time.Duration(conf.Configuration.CacheInvalidationIntervalInSeconds) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept := limiter.Sweep(interval)
			purged := purgeExpiredNegatives(store)
			log.Infof("%s Swept %d idle limiters, purged %d negative entries", logcolors.LogCache, swept, purged)
		}
	}
}
