package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Failing fast
	StateHalfOpen              // Testing with one request
)

type CircuitBreaker struct {
	mutex            sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	trialInFlight    bool
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time
}

func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}

	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     timeout,
		now:              time.Now,
	}
}

// Allow reports whether a request may proceed. After the reset timeout an
// open circuit lets exactly one trial request through until its outcome is
// recorded or released.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			cb.trialInFlight = true
			return true
		}

		return false
	case StateHalfOpen:
		if cb.trialInFlight {
			return false
		}
		cb.trialInFlight = true
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()
	cb.trialInFlight = false

	if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	cb.trialInFlight = false
	cb.state = StateClosed
}

// Release hands back an unfinished half-open trial request without an
// outcome. The circuit goes back to OPEN with its failure time kept, so the
// next trial is allowed immediately.
func (cb *CircuitBreaker) Release() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.trialInFlight = false
	if cb.state == StateHalfOpen {
		cb.state = StateOpen
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Failures returns the consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.failures
}

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

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
