package providerclient

import (
	"sync"
	"time"
)

// breakerState is one of the three states of spec.md §4.2's circuit
// breaker.
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// circuitBreaker is the single shared cell per Provider Client that
// spec.md §5 documents as shared mutable state (alongside the rate-
// limit clock). CLOSED counts consecutive failures; on reaching
// failureThreshold it opens for cooldown; after cooldown exactly one
// HALF_OPEN probe is allowed through.
type circuitBreaker struct {
	mu                sync.Mutex
	state             breakerState
	consecutiveFails  int
	failureThreshold  int
	cooldown          time.Duration
	openedAt          time.Time
	halfOpenInFlight  bool
}

func newCircuitBreaker(failureThreshold int, cooldown time.Duration) *circuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &circuitBreaker{
		state:            stateClosed,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
	}
}

// allow reports whether a call may proceed. When it returns false
// the caller must fail immediately with ProviderDown without
// touching the network.
func (b *circuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = stateHalfOpen
			b.halfOpenInFlight = true
			return true
		}
		return false
	case stateHalfOpen:
		// Exactly one probe call is permitted at a time.
		if b.halfOpenInFlight {
			return false
		}
		b.halfOpenInFlight = true
		return true
	default:
		return false
	}
}

// recordSuccess transitions HALF_OPEN->CLOSED and resets the
// failure counter. A success while CLOSED just resets the counter.
func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = stateClosed
	b.consecutiveFails = 0
	b.halfOpenInFlight = false
}

// recordFailure increments the consecutive-failure count (CLOSED)
// or re-opens the breaker and restarts cooldown (HALF_OPEN probe
// failed).
func (b *circuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateHalfOpen:
		b.state = stateOpen
		b.openedAt = time.Now()
		b.halfOpenInFlight = false
	case stateClosed:
		b.consecutiveFails++
		if b.consecutiveFails >= b.failureThreshold {
			b.state = stateOpen
			b.openedAt = time.Now()
		}
	}
}

// recordAbandoned is used for calls cancelled by the caller's
// deadline: per spec.md §5, cancellation DOES NOT affect the
// breaker (neither success nor failure).
func (b *circuitBreaker) recordAbandoned() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateHalfOpen {
		b.halfOpenInFlight = false
	}
}

func (b *circuitBreaker) snapshot() (state string, fails int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateClosed:
		state = "CLOSED"
	case stateOpen:
		state = "OPEN"
	case stateHalfOpen:
		state = "HALF_OPEN"
	}
	return state, b.consecutiveFails
}
