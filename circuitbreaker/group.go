package circuitbreaker

import (
	"sort"
	"sync"
)

// Group lazily creates one breaker per upstream name from a shared template
type Group struct {
	template Config
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewGroup(template Config) *Group {
	return &Group{template: template, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for name, creating it on first use
func (g *Group) Get(name string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	cb, ok := g.breakers[name]
	if !ok {
		cfg := g.template
		cfg.Name = name
		cb = New(cfg)
		g.breakers[name] = cb
	}
	return cb
}

// Statuses returns every breaker's status sorted by name
func (g *Group) Statuses() []Status {
	g.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(g.breakers))
	for _, cb := range g.breakers {
		breakers = append(breakers, cb)
	}
	g.mu.Unlock()

	out := make([]Status, len(breakers))
	for i, cb := range breakers {
		out[i] = cb.Status()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AnyOpen reports whether some breaker is currently open
func (g *Group) AnyOpen() bool {
	for _, s := range g.Statuses() {
		if s.State == StateOpen.String() {
			return true
		}
	}
	return false
}

// Reset closes the named breaker, or all breakers when name is empty.
// It returns false when name is unknown.
func (g *Group) Reset(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if name == "" {
		for _, cb := range g.breakers {
			cb.Reset()
		}
		return true
	}
	cb, ok := g.breakers[name]
	if ok {
		cb.Reset()
	}
	return ok
}
