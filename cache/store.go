// Package cache stores parsed lyric documents keyed by normalized query.
// Two backends implement Store: PersistentCache (bbolt on local disk with an
// in-memory layer) and RedisCache (a shared redis instance).
package cache

import (
	"fmt"

	"lrckit-api/utils"
)

// Store is a string key/value cache. Expiry is handled by callers, which
// embed timestamps in the values they store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
	// DeletePrefix removes every key starting with prefix and returns the count
	DeletePrefix(prefix string) (int, error)
	Clear() error
	Keys() ([]string, error)
	Stats() (numKeys int, sizeInKB int)
	Close() error
}

// Backuper is implemented by stores that can snapshot themselves to disk
type Backuper interface {
	Backup() (string, error)
}

// codec applies the optional compression shared by both backends
type codec struct {
	compress bool
}

func (c codec) encode(value string) (string, error) {
	if !c.compress {
		return value, nil
	}
	out, err := utils.Compress([]byte(value))
	if err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}
	return out, nil
}

func (c codec) decode(stored string) (string, error) {
	if !c.compress {
		return stored, nil
	}
	out, err := utils.Decompress(stored)
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	return string(out), nil
}
