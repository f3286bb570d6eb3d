// Package circuitbreaker stops calls to a failing upstream for a cooldown
// period and lets a single probe through before closing again.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"lrckit-api/logcolors"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // requests allowed
	StateOpen                  // requests blocked
	StateHalfOpen              // one probe in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration
type Config struct {
	Name            string
	Threshold       int           // consecutive failures before opening
	Cooldown        time.Duration // time spent open before a probe
	HalfOpenTimeout time.Duration // time a probe may take before reopening

	// IsFailure decides whether an error counts against the breaker.
	// Nil counts every non-nil error.
	IsFailure func(error) bool

	// OnStateChange, when set, is called after every state transition
	OnStateChange func(name string, from, to State, failures int)
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	name            string
	state           State
	failures        int
	threshold       int
	cooldown        time.Duration
	halfOpenTimeout time.Duration
	openedAt        time.Time
	halfOpenStart   time.Time
	isFailure       func(error) bool
	onStateChange   func(name string, from, to State, failures int)
	now             func() time.Time
	mu              sync.Mutex
}

// New creates a closed circuit breaker, filling unset config with defaults
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	if cfg.HalfOpenTimeout <= 0 {
		cfg.HalfOpenTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		name:            cfg.Name,
		state:           StateClosed,
		threshold:       cfg.Threshold,
		cooldown:        cfg.Cooldown,
		halfOpenTimeout: cfg.HalfOpenTimeout,
		isFailure:       cfg.IsFailure,
		onStateChange:   cfg.OnStateChange,
		now:             time.Now,
	}
}

func (cb *CircuitBreaker) Name() string { return cb.name }

// Allow reports whether a request may proceed. An open breaker whose
// cooldown has passed moves to half-open and admits exactly one probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	from := cb.state
	allowed := cb.allowLocked()
	to, failures := cb.state, cb.failures
	cb.mu.Unlock()

	cb.notify(from, to, failures)
	return allowed
}

func (cb *CircuitBreaker) allowLocked() bool {
	now := cb.now()
	switch cb.state {
	case StateOpen:
		if now.Sub(cb.openedAt) < cb.cooldown {
			return false
		}
		cb.state = StateHalfOpen
		cb.halfOpenStart = now
		log.Infof("%s Cooldown passed, transitioning to HALF-OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		return true

	case StateHalfOpen:
		if now.Sub(cb.halfOpenStart) >= cb.halfOpenTimeout {
			cb.state = StateOpen
			cb.openedAt = now
			log.Warnf("%s Probe timed out, transitioning back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		}
		return false

	default:
		return true
	}
}

// RecordSuccess closes the breaker and clears the failure count
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	from := cb.state
	if from == StateHalfOpen {
		log.Infof("%s Probe succeeded, transitioning to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
	}
	cb.state = StateClosed
	cb.failures = 0
	cb.mu.Unlock()

	cb.notify(from, StateClosed, 0)
}

// RecordFailure counts a failure, opening the breaker at the threshold or
// when a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	from := cb.state
	cb.failures++
	switch {
	case cb.state == StateHalfOpen:
		cb.state = StateOpen
		cb.openedAt = cb.now()
		log.Warnf("%s Probe failed, transitioning back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
	case cb.state == StateClosed && cb.failures >= cb.threshold:
		cb.state = StateOpen
		cb.openedAt = cb.now()
		log.Warnf("%s Threshold reached (%d failures), transitioning to OPEN (cooldown: %v)",
			logcolors.CircuitBreakerPrefix(cb.name), cb.failures, cb.cooldown)
	}
	to, failures := cb.state, cb.failures
	cb.mu.Unlock()

	cb.notify(from, to, failures)
}

// notify runs the OnStateChange hook outside the lock
func (cb *CircuitBreaker) notify(from, to State, failures int) {
	if cb.onStateChange != nil && from != to {
		cb.onStateChange(cb.name, from, to, failures)
	}
}

// Execute runs fn when the breaker allows it and records the outcome.
// Errors rejected by Config.IsFailure are returned but recorded as success.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	if cb.isFailure(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Threshold returns the configured failure threshold
func (cb *CircuitBreaker) Threshold() int {
	return cb.threshold
}

// TimeUntilRetry returns the remaining cooldown when open, the remaining
// probe window when half-open, and 0 when closed.
func (cb *CircuitBreaker) TimeUntilRetry() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var remaining time.Duration
	switch cb.state {
	case StateOpen:
		remaining = cb.cooldown - cb.now().Sub(cb.openedAt)
	case StateHalfOpen:
		remaining = cb.halfOpenTimeout - cb.now().Sub(cb.halfOpenStart)
	}
	return max(0, remaining)
}

// Reset forces the breaker closed
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.openedAt = time.Time{}
	cb.halfOpenStart = time.Time{}
	cb.mu.Unlock()

	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
	cb.notify(from, StateClosed, 0)
}

// Status is a point-in-time view of a breaker, shaped for JSON
type Status struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	Failures       int    `json:"failures"`
	Threshold      int    `json:"threshold"`
	TimeUntilRetry string `json:"time_until_retry"`
}

func (cb *CircuitBreaker) Status() Status {
	return Status{
		Name:           cb.name,
		State:          cb.State().String(),
		Failures:       cb.Failures(),
		Threshold:      cb.threshold,
		TimeUntilRetry: cb.TimeUntilRetry().String(),
	}
}
