package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"lrckit-api/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	statsBucketName = "stats"
	statsKey        = "server_stats"
)

// Store persists a Stats instance to its own bbolt file so counters
// accumulate across restarts
type Store struct {
	db       *bolt.DB
	stats    *Stats
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// PersistedStats is the on-disk form of Stats
type PersistedStats struct {
	Counters  map[string]int64            `json:"counters"`
	Providers map[string]map[string]int64 `json:"providers"`

	MinResponseTime int64     `json:"min_response_time"`
	MaxResponseTime int64     `json:"max_response_time"`
	LastSaved       time.Time `json:"last_saved"`
	FirstStarted    time.Time `json:"first_started"`
}

// counters names every cumulative counter for persistence
func (s *Stats) counters() map[string]*atomic.Int64 {
	return map[string]*atomic.Int64{
		"total_requests":      &s.TotalRequests,
		"lyrics_requests":     &s.LyricsRequests,
		"parse_requests":      &s.ParseRequests,
		"cache_requests":      &s.CacheRequests,
		"stats_requests":      &s.StatsRequests,
		"health_requests":     &s.HealthRequests,
		"other_requests":      &s.OtherRequests,
		"cache_hits":          &s.CacheHits,
		"cache_misses":        &s.CacheMisses,
		"negative_cache_hits": &s.NegativeCacheHits,
		"stale_cache_hits":    &s.StaleCacheHits,
		"coalesced_requests":  &s.CoalescedRequests,
		"standard_parses":     &s.StandardParses,
		"enhanced_parses":     &s.EnhancedParses,
		"empty_documents":     &s.EmptyDocuments,
		"lines_parsed":        &s.LinesParsed,
		"bytes_parsed":        &s.BytesParsed,
		"rate_limit_normal":   &s.RateLimitNormal,
		"rate_limit_cached":   &s.RateLimitCached,
		"rate_limit_exceeded": &s.RateLimitExceeded,
		"rate_limit_bypass":   &s.RateLimitBypass,
		"status_2xx":          &s.Status2xx,
		"status_4xx":          &s.Status4xx,
		"status_5xx":          &s.Status5xx,
		"total_response_time": &s.totalResponseTime,
		"response_count":      &s.responseCount,
	}
}

func (c *ProviderCounters) fields() map[string]*atomic.Int64 {
	return map[string]*atomic.Int64{
		"requests":  &c.Requests,
		"found":     &c.Found,
		"not_found": &c.NotFound,
		"errors":    &c.Errors,
	}
}

// NewStore opens (or creates) the stats database at dbPath for s
func NewStore(dbPath string, s *Stats) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats bucket: %w", err)
	}

	log.Infof("%s Stats store initialized at %s", logcolors.LogStats, dbPath)
	return &Store{db: db, stats: s, stopChan: make(chan struct{})}, nil
}

// Load applies persisted counters. Missing data leaves the stats untouched.
func (st *Store) Load() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	var persisted PersistedStats
	found := false
	err := st.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(statsBucketName)).Get([]byte(statsKey))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &persisted)
	})
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	if !found {
		return nil
	}

	s := st.stats
	for name, counter := range s.counters() {
		counter.Store(persisted.Counters[name])
	}
	for provider, values := range persisted.Providers {
		for name, counter := range s.Provider(provider).fields() {
			counter.Store(values[name])
		}
	}
	if persisted.MinResponseTime > 0 && persisted.MinResponseTime < maxInt64 {
		s.minResponseTime.Store(persisted.MinResponseTime)
	}
	if persisted.MaxResponseTime > 0 {
		s.maxResponseTime.Store(persisted.MaxResponseTime)
	}
	if !persisted.FirstStarted.IsZero() {
		s.StartTime = persisted.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (total requests: %d, first started: %s)",
		logcolors.LogStats, s.TotalRequests.Load(), s.StartTime.Format(time.RFC3339))
	return nil
}

// Save writes the current counters
func (st *Store) Save() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.stats
	persisted := PersistedStats{
		Counters:        make(map[string]int64),
		Providers:       make(map[string]map[string]int64),
		MinResponseTime: s.minResponseTime.Load(),
		MaxResponseTime: s.maxResponseTime.Load(),
		LastSaved:       time.Now(),
		FirstStarted:    s.StartTime,
	}
	for name, counter := range s.counters() {
		persisted.Counters[name] = counter.Load()
	}
	s.providers.Range(func(k, v interface{}) bool {
		values := make(map[string]int64)
		for name, counter := range v.(*ProviderCounters).fields() {
			values[name] = counter.Load()
		}
		persisted.Providers[k.(string)] = values
		return true
	})

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	err = st.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(statsBucketName)).Put([]byte(statsKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// StartAutoSave saves every interval until Close
func (st *Store) StartAutoSave(interval time.Duration) {
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := st.Save(); err != nil {
					log.Warnf("%s Failed to auto-save stats: %v", logcolors.LogStats, err)
				}
			case <-st.stopChan:
				return
			}
		}
	}()
	log.Infof("%s Started auto-save with interval %v", logcolors.LogStats, interval)
}

// Close stops auto-save, saves once more and closes the database
func (st *Store) Close() error {
	st.stopOnce.Do(func() { close(st.stopChan) })
	st.wg.Wait()

	if err := st.Save(); err != nil {
		log.Warnf("%s Failed to save stats on close: %v", logcolors.LogStats, err)
	} else {
		log.Infof("%s Stats saved on shutdown", logcolors.LogStats)
	}
	return st.db.Close()
}
