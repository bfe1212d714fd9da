// Package circuitbreaker protects the rate-sensitive market-data upstream
// from being hammered while it is failing.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrOpen is returned by Allow while the circuit is open.
var ErrOpen = errors.New("circuit breaker open: upstream unhealthy")

// State represents the current state of the circuit breaker.
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, calls fail fast
	StateHalfOpen              // Probing whether the upstream has recovered
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker trips after a configured number of consecutive call failures and
// fails fast until a cooldown elapses, then probes the upstream in half-open
// state. Callers report outcomes via Success and Failure; a fast-failed call
// still yields an ordinary per-item failure upstream, so enrichment
// isolation semantics are unchanged.
type Breaker struct {
	mu sync.Mutex

	// Consecutive failures required to trip; <= 0 disables the breaker
	threshold int

	// Duration before a half-open probe is allowed
	cooldown time.Duration

	// Consecutive half-open successes required to close again
	successThreshold int

	state     State
	failures  int
	successes int
	lastTrip  time.Time

	// Injectable clock for tests
	now func() time.Time
}

// New creates a Breaker. A threshold of 0 or less yields a breaker that
// always allows calls.
func New(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold:        threshold,
		cooldown:         cooldown,
		successThreshold: 3,
		state:            StateClosed,
		now:              time.Now,
	}
}

// WithSuccessThreshold sets the number of half-open successes needed to close
// the circuit and returns the breaker.
func (b *Breaker) WithSuccessThreshold(n int) *Breaker {
	b.successThreshold = n
	return b
}

// WithClock replaces the breaker's clock, for tests.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Allow reports whether a call may proceed. While open it returns ErrOpen
// until the cooldown has elapsed, at which point the breaker moves to
// half-open and lets probes through.
func (b *Breaker) Allow() error {
	if b == nil || b.threshold <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.lastTrip) < b.cooldown {
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.successes = 0
		logrus.Info("Circuit breaker half-open: probing upstream recovery")
	}

	return nil
}

// Success records a successful call outcome.
func (b *Breaker) Success() {
	if b == nil || b.threshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = StateClosed
			b.successes = 0
			logrus.Info("Circuit breaker closed: upstream recovered")
		}
	}
}

// Failure records a failed call outcome, tripping the circuit when the
// consecutive-failure threshold is reached. A failure during half-open
// re-trips immediately.
func (b *Breaker) Failure() {
	if b == nil || b.threshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.trip("half-open probe failed")
		return
	}

	b.failures++
	if b.state == StateClosed && b.failures >= b.threshold {
		b.trip("consecutive failure threshold reached")
	}
}

// CurrentState returns the breaker's state.
func (b *Breaker) CurrentState() State {
	if b == nil || b.threshold <= 0 {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forcibly returns the breaker to closed state.
func (b *Breaker) Reset() {
	if b == nil || b.threshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	logrus.Info("Circuit breaker manually reset to closed state")
}

// trip must be called with the mutex held.
func (b *Breaker) trip(reason string) {
	b.state = StateOpen
	b.failures = 0
	b.lastTrip = b.now()
	logrus.Warnf("Circuit breaker tripped: %s", reason)
}
