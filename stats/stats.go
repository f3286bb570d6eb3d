// Package stats keeps process-wide counters for requests, cache behavior,
// parsing and upstream providers.
package stats

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Stats holds all server statistics with atomic counters
type Stats struct {
	StartTime time.Time

	// Requests by endpoint
	TotalRequests  atomic.Int64
	LyricsRequests atomic.Int64
	ParseRequests  atomic.Int64
	CacheRequests  atomic.Int64
	StatsRequests  atomic.Int64
	HealthRequests atomic.Int64
	OtherRequests  atomic.Int64

	// Cache performance
	CacheHits         atomic.Int64
	CacheMisses       atomic.Int64
	NegativeCacheHits atomic.Int64
	StaleCacheHits    atomic.Int64
	CoalescedRequests atomic.Int64

	// Parsing
	StandardParses atomic.Int64
	EnhancedParses atomic.Int64
	EmptyDocuments atomic.Int64
	LinesParsed    atomic.Int64
	BytesParsed    atomic.Int64

	// Rate limiting
	RateLimitNormal   atomic.Int64
	RateLimitCached   atomic.Int64
	RateLimitExceeded atomic.Int64
	RateLimitBypass   atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response times in microseconds
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	providers sync.Map // name -> *ProviderCounters
}

// ProviderCounters tracks the outcome of upstream lookups for one provider
type ProviderCounters struct {
	Requests atomic.Int64
	Found    atomic.Int64
	NotFound atomic.Int64
	Errors   atomic.Int64
}

var global = New()

// New returns an empty Stats started now
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(maxInt64)
	return s
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest records a request to path
func (s *Stats) RecordRequest(path string) {
	s.TotalRequests.Add(1)
	switch {
	case path == "/getLyrics" || strings.HasSuffix(path, "/getLyrics"):
		s.LyricsRequests.Add(1)
	case path == "/parse":
		s.ParseRequests.Add(1)
	case strings.HasPrefix(path, "/cache"):
		s.CacheRequests.Add(1)
	case path == "/stats":
		s.StatsRequests.Add(1)
	case path == "/health":
		s.HealthRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

func (s *Stats) RecordCacheHit()         { s.CacheHits.Add(1) }
func (s *Stats) RecordCacheMiss()        { s.CacheMisses.Add(1) }
func (s *Stats) RecordNegativeCacheHit() { s.NegativeCacheHits.Add(1) }
func (s *Stats) RecordStaleCacheHit()    { s.StaleCacheHits.Add(1) }
func (s *Stats) RecordCoalesced()        { s.CoalescedRequests.Add(1) }

// RecordParse records one parsed document
func (s *Stats) RecordParse(enhanced bool, inputBytes, lines int) {
	if enhanced {
		s.EnhancedParses.Add(1)
	} else {
		s.StandardParses.Add(1)
	}
	if lines == 0 {
		s.EmptyDocuments.Add(1)
	}
	s.LinesParsed.Add(int64(lines))
	s.BytesParsed.Add(int64(inputBytes))
}

// Provider returns the counters for name, creating them on first use
func (s *Stats) Provider(name string) *ProviderCounters {
	if c, ok := s.providers.Load(name); ok {
		return c.(*ProviderCounters)
	}
	c, _ := s.providers.LoadOrStore(name, &ProviderCounters{})
	return c.(*ProviderCounters)
}

// RecordRateLimit records rate limit tier usage
func (s *Stats) RecordRateLimit(tier string) {
	switch tier {
	case "normal":
		s.RateLimitNormal.Add(1)
	case "cached":
		s.RateLimitCached.Add(1)
	case "exceeded":
		s.RateLimitExceeded.Add(1)
	case "bypass":
		s.RateLimitBypass.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(d time.Duration) {
	us := d.Microseconds()
	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		cur := s.minResponseTime.Load()
		if us >= cur || s.minResponseTime.CompareAndSwap(cur, us) {
			break
		}
	}
	for {
		cur := s.maxResponseTime.Load()
		if us <= cur || s.maxResponseTime.CompareAndSwap(cur, us) {
			break
		}
	}
}

func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns hits (including negative hits) as a percentage of
// all cache lookups
func (s *Stats) CacheHitRate() float64 {
	hits := s.CacheHits.Load() + s.NegativeCacheHits.Load()
	total := hits + s.CacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

func (s *Stats) MinResponseTime() time.Duration {
	v := s.minResponseTime.Load()
	if v == maxInt64 {
		return 0
	}
	return time.Duration(v) * time.Microsecond
}

func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	providers := map[string]interface{}{}
	var names []string
	s.providers.Range(func(k, _ interface{}) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	for _, name := range names {
		c := s.Provider(name)
		providers[name] = map[string]int64{
			"requests":  c.Requests.Load(),
			"found":     c.Found.Load(),
			"not_found": c.NotFound.Load(),
			"errors":    c.Errors.Load(),
		}
	}

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":  s.TotalRequests.Load(),
			"lyrics": s.LyricsRequests.Load(),
			"parse":  s.ParseRequests.Load(),
			"cache":  s.CacheRequests.Load(),
			"stats":  s.StatsRequests.Load(),
			"health": s.HealthRequests.Load(),
			"other":  s.OtherRequests.Load(),
		},
		"cache": map[string]interface{}{
			"hits":          s.CacheHits.Load(),
			"misses":        s.CacheMisses.Load(),
			"negative_hits": s.NegativeCacheHits.Load(),
			"stale_hits":    s.StaleCacheHits.Load(),
			"coalesced":     s.CoalescedRequests.Load(),
			"hit_rate":      s.CacheHitRate(),
		},
		"parsing": map[string]interface{}{
			"standard":        s.StandardParses.Load(),
			"enhanced":        s.EnhancedParses.Load(),
			"empty_documents": s.EmptyDocuments.Load(),
			"lines":           s.LinesParsed.Load(),
			"bytes":           s.BytesParsed.Load(),
		},
		"providers": providers,
		"rate_limiting": map[string]interface{}{
			"normal_tier": s.RateLimitNormal.Load(),
			"cached_tier": s.RateLimitCached.Load(),
			"exceeded":    s.RateLimitExceeded.Load(),
			"bypass":      s.RateLimitBypass.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg": s.AvgResponseTime().String(),
			"min": s.MinResponseTime().String(),
			"max": s.MaxResponseTime().String(),
		},
	}
}
