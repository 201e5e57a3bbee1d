// Package circuitbreaker guards calls to flaky collaborators, currently the
// notification broker. Delivery is fire-and-forget, so tripping the breaker
// sheds publish load instead of stalling lifecycle operations.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is shedding calls.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

type Settings struct {
	Name        string
	MaxRequests int // consecutive failures before the breaker opens
	Interval    time.Duration
	Timeout     time.Duration // how long the breaker stays open before probing
}

type CircuitBreaker struct {
	name      string
	threshold int
	timeout   time.Duration

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	return &CircuitBreaker{
		name:      settings.Name,
		threshold: settings.MaxRequests,
		timeout:   settings.Timeout,
		state:     StateClosed,
	}
}

// State returns the breaker's current state, accounting for timeout expiry.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) > cb.timeout {
		cb.state = StateHalfOpen
	}
	return cb.state
}

// Execute runs fn unless the breaker is open. A success in half-open closes
// the breaker; a failure reopens it immediately.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.currentState() == StateOpen {
		cb.mu.Unlock()
		return ErrOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
			cb.state = StateOpen
			cb.openedAt = time.Now()
		}
		return err
	}

	cb.state = StateClosed
	cb.failures = 0
	return nil
}
