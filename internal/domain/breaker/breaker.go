// Package breaker implements a process-local circuit breaker guarding the
// model provider. State lives in memory only; each replica maintains its
// own view of upstream health.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the circuit position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrUpstreamUnavailable is returned without invoking the call when the
// circuit is open, and wraps timeouts so callers see one failure class.
var ErrUpstreamUnavailable = errors.New("upstream temporarily unavailable")

// Config tunes circuit behavior.
type Config struct {
	// FailureThreshold is the consecutive failure count that opens the
	// circuit.
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before allowing a
	// single probe call.
	RecoveryTimeout time.Duration
	// CallTimeout is the hard deadline applied to each guarded call. An
	// expired deadline counts as a failure.
	CallTimeout time.Duration
}

// CircuitBreaker tracks consecutive upstream failures and fails fast while
// open. While half open exactly one probe call is admitted; concurrent
// callers are rejected until the probe settles.
type CircuitBreaker struct {
	mu            sync.Mutex
	cfg           Config
	state         State
	failures      int
	lastFailure   time.Time
	probeInFlight bool
	logger        zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		cfg:    cfg,
		state:  StateClosed,
		logger: logger.With().Str("component", "circuit_breaker").Logger(),
	}
}

// State reports the current circuit position, applying the open to half
// open transition if the recovery timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.cfg.RecoveryTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// allow decides whether a call may proceed. It returns the state the call
// executes under, so the caller can report probe outcomes correctly.
func (cb *CircuitBreaker) allow() (State, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return StateClosed, nil
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.cfg.RecoveryTimeout {
			return StateOpen, ErrUpstreamUnavailable
		}
		cb.state = StateHalfOpen
		cb.probeInFlight = true
		cb.logger.Info().Msg("circuit half open, admitting probe")
		return StateHalfOpen, nil
	case StateHalfOpen:
		if cb.probeInFlight {
			return StateHalfOpen, ErrUpstreamUnavailable
		}
		cb.probeInFlight = true
		return StateHalfOpen, nil
	}
	return cb.state, nil
}

// record applies a call outcome to the circuit.
func (cb *CircuitBreaker) record(callState State, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if callState == StateHalfOpen {
		cb.probeInFlight = false
	}

	if err == nil {
		switch {
		case callState == StateHalfOpen:
			cb.logger.Info().Msg("circuit closed after successful probe")
			cb.state = StateClosed
			cb.failures = 0
		case cb.state == StateClosed:
			cb.failures = 0
		default:
			// Stale success from a call admitted before the circuit opened.
			// Only a half-open probe may close an open circuit.
		}
		return
	}

	cb.failures++
	cb.lastFailure = time.Now()
	if callState == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		if cb.state != StateOpen {
			cb.logger.Warn().
				Int("consecutive_failures", cb.failures).
				Msg("circuit opened")
		}
		cb.state = StateOpen
	}
}

// Do executes fn under the breaker with the configured call timeout. When
// the circuit is open it fails fast with ErrUpstreamUnavailable and fn is
// never invoked. A timed out call is recorded as a failure and surfaced as
// ErrUpstreamUnavailable.
func Do[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	callState, err := cb.allow()
	if err != nil {
		return zero, err
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if cb.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, cb.cfg.CallTimeout)
		defer cancel()
	}

	result, err := fn(callCtx)
	if err != nil {
		cb.record(callState, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, "call timed out")
		}
		return zero, err
	}

	cb.record(callState, nil)
	return result, nil
}
