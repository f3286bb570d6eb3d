package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Provider defines the interface that all lyrics providers must implement
type Provider interface {
	// Name returns the provider's identifier (e.g., "lrclib", "kugou", "local")
	Name() string

	// FetchLyrics looks up and parses lyrics for a track.
	// album may be empty; durationMs of 0 disables duration filtering.
	// A lookup that finds nothing returns an error wrapping ErrNotFound.
	FetchLyrics(ctx context.Context, song, artist, album string, durationMs int) (*LyricsResult, error)

	// CacheKeyPrefix returns the prefix used for cache keys (e.g., "lrclib", "kugou")
	CacheKeyPrefix() string
}

// Registry holds all registered providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

var (
	globalRegistry *Registry
	registryOnce   sync.Once
)

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// GetRegistry returns the global provider registry
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Register adds a provider, replacing any provider with the same name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// List returns all registered provider names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if a provider is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Register registers p in the global registry
func Register(p Provider) {
	GetRegistry().Register(p)
}

// Get looks up name in the global registry
func Get(name string) (Provider, error) {
	return GetRegistry().Get(name)
}

// List lists the global registry
func List() []string {
	return GetRegistry().List()
}

// Has checks the global registry
func Has(name string) bool {
	return GetRegistry().Has(name)
}
