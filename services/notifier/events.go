package notifier

import (
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Critical events
	EventCircuitBreakerOpen EventType = "circuit_breaker_open"

	// Warning events
	EventCacheBackupFailed EventType = "cache_backup_failed"
	EventLocalWatchStopped EventType = "local_watch_stopped"

	// Info events
	EventCircuitBreakerRecovered EventType = "circuit_breaker_recovered"
	EventServerStarted           EventType = "server_started"
	EventCacheCleared            EventType = "cache_cleared"
)

// Severity represents the severity level of an event
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Event represents a system event
type Event struct {
	Type      EventType
	Severity  Severity
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, severity Severity, message string) *Event {
	return &Event{
		Type:      eventType,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// WithData adds data to the event (chainable)
func (e *Event) WithData(key string, value interface{}) *Event {
	e.Data[key] = value
	return e
}

// EventHandler is a function that handles events
type EventHandler func(event *Event)

// EventBus fans events out to subscribers. Handlers run on their own
// goroutines so publishers never block on delivery.
type EventBus struct {
	handlers    map[EventType][]EventHandler
	allHandlers []EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]EventHandler)}
}

var (
	globalBus *EventBus
	busOnce   sync.Once
)

// GetEventBus returns the global event bus instance
func GetEventBus() *EventBus {
	busOnce.Do(func() {
		globalBus = NewEventBus()
	})
	return globalBus
}

// Subscribe adds a handler for a specific event type
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll adds a handler that receives all events
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Publish sends an event to all subscribed handlers
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, handler := range b.handlers[event.Type] {
		go handler(event)
	}
	for _, handler := range b.allHandlers {
		go handler(event)
	}
}

// Helper functions for publishing common events

// PublishCircuitBreakerOpen publishes a circuit breaker open event
func PublishCircuitBreakerOpen(name string, failures int, cooldown time.Duration) {
	GetEventBus().Publish(NewEvent(EventCircuitBreakerOpen, SeverityCritical,
		"Circuit breaker has opened due to consecutive failures").
		WithData("name", name).
		WithData("failures", failures).
		WithData("cooldown", cooldown.String()))
}

// PublishCircuitBreakerRecovered publishes a circuit breaker recovery event
func PublishCircuitBreakerRecovered(name string) {
	GetEventBus().Publish(NewEvent(EventCircuitBreakerRecovered, SeverityInfo,
		"Circuit breaker has recovered and is operational").
		WithData("name", name))
}

// PublishCacheBackupFailed publishes when cache backup fails
func PublishCacheBackupFailed(err error) {
	GetEventBus().Publish(NewEvent(EventCacheBackupFailed, SeverityWarning,
		"Cache backup operation failed").
		WithData("error", err.Error()))
}

// PublishCacheCleared publishes when the cache, or one provider's part of
// it, is cleared
func PublishCacheCleared(scope string, removed int, backupPath string) {
	GetEventBus().Publish(NewEvent(EventCacheCleared, SeverityInfo,
		"Cache has been cleared").
		WithData("scope", scope).
		WithData("removed", removed).
		WithData("backup_path", backupPath))
}

// PublishLocalWatchStopped publishes when the local library watcher exits
func PublishLocalWatchStopped(dir string, err error) {
	GetEventBus().Publish(NewEvent(EventLocalWatchStopped, SeverityWarning,
		"Local lyrics watcher stopped").
		WithData("dir", dir).
		WithData("error", err.Error()))
}

// PublishServerStarted publishes when server starts successfully
func PublishServerStarted(port string, providers []string) {
	GetEventBus().Publish(NewEvent(EventServerStarted, SeverityInfo,
		"Server started successfully").
		WithData("port", port).
		WithData("providers", providers))
}
