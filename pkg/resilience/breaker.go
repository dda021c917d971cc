// Package resilience guards calls to infrastructure that can fail or stall.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"cleannote/pkg/logger"
)

// State of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	LogCircuitTrip   = "circuit breaker tripped"
	LogCircuitReset  = "circuit breaker reset"
	LogCircuitProbe  = "circuit breaker letting a probe through"
	LogCircuitReject = "circuit breaker rejected call"
)

// ErrCircuitOpen is returned by Execute while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig tunes a CircuitBreaker.
type BreakerConfig struct {
	// Failures in a row that open the breaker.
	ErrorThreshold int
	// How long the breaker stays open before probing.
	Timeout time.Duration
	// Probes that must succeed in half-open state to close again.
	SuccessThreshold int
}

// DefaultBreakerConfig opens after 5 failures and probes after 10s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ErrorThreshold:   5,
		Timeout:          10 * time.Second,
		SuccessThreshold: 2,
	}
}

// CircuitBreaker stops calling a dependency after repeated failures.
type CircuitBreaker struct {
	name   string
	config BreakerConfig
	now    func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	changedAt time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	if config.ErrorThreshold <= 0 {
		config.ErrorThreshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		name:      name,
		config:    config,
		now:       time.Now,
		state:     StateClosed,
		changedAt: time.Now(),
	}
}

// Execute runs fn unless the breaker is open and records its outcome.
// Context cancellation by the caller does not count as a failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.Allow(ctx) {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}
	cb.Record(ctx, err)
	return err
}

// Allow reports whether a call may proceed, moving an expired open breaker
// to half-open.
func (cb *CircuitBreaker) Allow(ctx context.Context) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.changedAt) < cb.config.Timeout {
			cb.log(ctx).Debug(ctx, LogCircuitReject)
			return false
		}
		cb.setState(StateHalfOpen)
		cb.log(ctx).Info(ctx, LogCircuitProbe)
		return true
	default:
		return true
	}
}

// Record feeds the result of a call into the breaker.
func (cb *CircuitBreaker) Record(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.config.ErrorThreshold {
			if cb.state != StateOpen {
				cb.log(ctx).Warn(ctx, LogCircuitTrip, zap.Int("failures", cb.failures), zap.Error(err))
			}
			cb.setState(StateOpen)
		}
		return
	}

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.setState(StateClosed)
			cb.log(ctx).Info(ctx, LogCircuitReset)
		}
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) setState(s State) {
	cb.state = s
	cb.changedAt = cb.now()
	cb.successes = 0
	if s == StateClosed {
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) log(ctx context.Context) *logger.Logger {
	return logger.Log(ctx).With(zap.String("circuit_breaker", cb.name), zap.Stringer("state", cb.state))
}
