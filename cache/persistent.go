package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"lrckit-api/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "documents"

var errNotFound = errors.New("key not found")

// PersistentCache wraps BoltDB with an in-memory copy of every entry
type PersistentCache struct {
	db         *bolt.DB
	memCache   sync.Map
	dbPath     string
	backupPath string
	codec      codec
}

// CacheEntry is the on-disk record. Value is compressed when compression is on.
type CacheEntry struct {
	Value string `json:"value"`
}

// NewPersistentCache opens (or creates) the bolt file at dbPath and loads
// it into memory. Backups are written under backupPath.
func NewPersistentCache(dbPath string, backupPath string, compressionEnabled bool) (*PersistentCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	pc := &PersistentCache{
		db:         db,
		dbPath:     dbPath,
		backupPath: backupPath,
		codec:      codec{compress: compressionEnabled},
	}

	if err := pc.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload cache to memory: %v", logcolors.LogCacheInit, err)
	}

	log.Infof("%s Persistent cache initialized at %s (compression: %v)", logcolors.LogCacheInit, dbPath, compressionEnabled)
	return pc, nil
}

func (pc *PersistentCache) loadToMemory() error {
	count := 0
	err := pc.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var entry CacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("%s Skipping unreadable entry %s: %v", logcolors.LogCache, k, err)
				return nil
			}
			pc.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d entries from disk to memory", logcolors.LogCacheInit, count)
	return nil
}

// Get returns the decoded value for key, checking memory before disk
func (pc *PersistentCache) Get(key string) (string, bool) {
	entry, ok := pc.load(key)
	if !ok {
		return "", false
	}

	value, err := pc.codec.decode(entry.Value)
	if err != nil {
		log.Errorf("%s Error decoding value for key %s: %v", logcolors.LogCache, key, err)
		return "", false
	}
	return value, true
}

func (pc *PersistentCache) load(key string) (CacheEntry, bool) {
	if v, ok := pc.memCache.Load(key); ok {
		return v.(CacheEntry), true
	}

	var entry CacheEntry
	err := pc.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return errNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return CacheEntry{}, false
	}

	pc.memCache.Store(key, entry)
	return entry, true
}

// Set encodes value and writes it to memory and disk
func (pc *PersistentCache) Set(key, value string) error {
	encoded, err := pc.codec.encode(value)
	if err != nil {
		return err
	}
	entry := CacheEntry{Value: encoded}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	err = pc.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	pc.memCache.Store(key, entry)
	return nil
}

// Delete removes key from memory and disk
func (pc *PersistentCache) Delete(key string) error {
	pc.memCache.Delete(key)
	return pc.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}

// DeletePrefix removes every key starting with prefix
func (pc *PersistentCache) DeletePrefix(prefix string) (int, error) {
	removed := 0
	err := pc.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Seek(p) {
			key := string(k)
			if err := c.Delete(); err != nil {
				return err
			}
			pc.memCache.Delete(key)
			removed++
		}
		return nil
	})
	return removed, err
}

// Clear removes all entries
func (pc *PersistentCache) Clear() error {
	pc.memCache.Range(func(key, _ interface{}) bool {
		pc.memCache.Delete(key)
		return true
	})

	return pc.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Keys lists every cached key
func (pc *PersistentCache) Keys() ([]string, error) {
	var keys []string
	pc.memCache.Range(func(k, _ interface{}) bool {
		keys = append(keys, k.(string))
		return true
	})
	return keys, nil
}

// Stats returns the key count and the approximate stored size
func (pc *PersistentCache) Stats() (numKeys int, sizeInKB int) {
	size := 0
	pc.memCache.Range(func(k, v interface{}) bool {
		numKeys++
		size += len(k.(string)) + len(v.(CacheEntry).Value)
		return true
	})
	return numKeys, size / 1024
}

// Backup writes a consistent snapshot of the database into the backup
// directory and returns its path.
func (pc *PersistentCache) Backup() (string, error) {
	name := fmt.Sprintf("cache_backup_%s.db", time.Now().Format("2006-01-02_15-04-05.000"))
	path := filepath.Join(pc.backupPath, name)

	err := pc.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(path, 0600)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	log.Infof("%s Backup written to %s", logcolors.LogCache, path)
	return path, nil
}

// Close closes the database
func (pc *PersistentCache) Close() error {
	if pc.db != nil {
		return pc.db.Close()
	}
	return nil
}
