package infra

import (
	"errors"
	"sync"
	"time"

	"chicpos/internal/clock"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards outbound calls that may hang for a long time (SMTP relay):
//   - Closed:    calls pass through
//   - Open:      calls fail fast with ErrCircuitOpen
//   - Half-Open: calls are let through as probes until enough succeed

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	FailureThreshold int           // consecutive failures that open the circuit
	SuccessThreshold int           // probe successes that close it again
	OpenTimeout      time.Duration // time spent open before probing
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      2 * time.Minute,
	}
}

type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	clock     clock.Clock
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker starts closed. clk may be nil.
func NewCircuitBreaker(cfg BreakerConfig, clk clock.Clock) *CircuitBreaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if clk == nil {
		clk = clock.System()
	}
	return &CircuitBreaker{cfg: cfg, clock: clk, state: BreakerClosed}
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked()
}

func (cb *CircuitBreaker) currentLocked() BreakerState {
	if cb.state == BreakerOpen && cb.clock.Now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.state = BreakerHalfOpen
		cb.successes = 0
	}
	return cb.state
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.currentLocked() == BreakerOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		if cb.state == BreakerHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
			cb.state = BreakerOpen
			cb.openedAt = cb.clock.Now()
			cb.failures = 0
		}
		return err
	}

	switch cb.state {
	case BreakerClosed:
		cb.failures = 0
	case BreakerHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = BreakerClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
	return nil
}
