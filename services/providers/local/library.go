package local

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"lrckit-api/logcolors"
	"lrckit-api/utils"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const lrcExt = ".lrc"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Library indexes the .lrc files of one directory by "artist - title".
// Files named "title.lrc" are indexed by title alone.
type Library struct {
	dir string

	mu    sync.RWMutex
	index map[string]string
}

// NewLibrary indexes dir. The directory must exist.
func NewLibrary(dir string) (*Library, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat lyrics directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	l := &Library{dir: dir, index: map[string]string{}}
	if err := l.Reindex(); err != nil {
		return nil, err
	}
	return l, nil
}

// Dir returns the indexed directory
func (l *Library) Dir() string {
	return l.dir
}

// indexKey builds the lookup key; an empty artist keys by title alone
func indexKey(artist, title string) string {
	title = utils.NormalizeKey(title)
	if artist = utils.NormalizeKey(artist); artist == "" {
		return title
	}
	return artist + " - " + title
}

// keyForFile derives the index key from a file name
func keyForFile(name string) (string, bool) {
	base, ok := strings.CutSuffix(name, filepath.Ext(name))
	if !ok || !strings.EqualFold(filepath.Ext(name), lrcExt) {
		return "", false
	}
	if artist, title, found := strings.Cut(base, " - "); found {
		return indexKey(artist, title), true
	}
	return indexKey("", base), true
}

// Reindex rebuilds the index from the directory listing
func (l *Library) Reindex() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("failed to read lyrics directory: %w", err)
	}

	index := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := keyForFile(e.Name()); ok {
			index[key] = filepath.Join(l.dir, e.Name())
		}
	}

	l.mu.Lock()
	l.index = index
	l.mu.Unlock()

	log.Infof("%s Indexed %d lyric files in %s", logcolors.LogLocalIndex, len(index), l.dir)
	return nil
}

// Len returns the number of indexed files
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.index)
}

// Lookup finds the file for artist and title, falling back to a title-only file
func (l *Library) Lookup(artist, title string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if path, ok := l.index[indexKey(artist, title)]; ok {
		return path, true
	}
	path, ok := l.index[indexKey("", title)]
	return path, ok
}

// Watch re-indexes whenever a file is created, removed or renamed in the
// directory. It returns once the watcher is running; the watcher stops when
// ctx is cancelled.
func (l *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}

	log.Infof("%s Watching %s", logcolors.LogWatcher, l.dir)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				if _, ok := keyForFile(filepath.Base(event.Name)); !ok {
					continue
				}
				log.Debugf("%s %s %s", logcolors.LogWatcher, event.Op, event.Name)
				if err := l.Reindex(); err != nil {
					log.Errorf("%s Reindex failed: %v", logcolors.LogWatcher, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("%s Watcher error: %v", logcolors.LogWatcher, err)
			}
		}
	}()

	return nil
}

// ReadLyricsFile reads an .lrc file as UTF-8. A UTF-8 BOM is stripped;
// content that is not valid UTF-8 is decoded as GB18030.
func ReadLyricsFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return decodeLyrics(data)
}

func decodeLyrics(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(data[len(utf8BOM):]), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), simplifiedchinese.GB18030.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode as GB18030: %w", err)
	}
	return string(decoded), nil
}
