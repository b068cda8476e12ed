/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package circuitbreaker implements a circuit breaker that isolates callers
// from a failing backing store. The breaker tracks consecutive failures and
// short-circuits calls during an outage, letting a single probe call through
// after a cool-down period to detect recovery.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vizionik25/CodeRevAI-sub001/log"
)

// ErrCircuitOpen is returned by Execute when the breaker is open and the call was not attempted.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

// Circuit breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
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
	default:
		return "unknown"
	}
}

// MarshalText encodes the state as its human-readable name.
// Implements encoding.TextMarshaler interface, which is used by encoding/json.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes the state from its human-readable name.
// Implements encoding.TextUnmarshaler interface, which is used by encoding/json.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "closed":
		*s = StateClosed
	case "open":
		*s = StateOpen
	case "half-open":
		*s = StateHalfOpen
	default:
		return fmt.Errorf("unknown circuit breaker state %q", text)
	}
	return nil
}

// Status is a read-only snapshot of the breaker for health reporting.
// It is a side channel only and must not be used for control decisions.
type Status struct {
	State           State     `json:"state"`
	Failures        int       `json:"failures"`
	LastFailureTime time.Time `json:"lastFailureTime"`
	Open            bool      `json:"open"`
}

// Operation is a call guarded by the breaker.
type Operation func(ctx context.Context) error

// Breaker is a circuit breaker with CLOSED -> OPEN -> HALF_OPEN lifecycle.
// State is entirely in-process and re-initialized on process start,
// each instance makes its own trip and recovery decisions.
// All methods are safe for concurrent use.
type Breaker struct {
	failureThreshold int
	coolDownPeriod   time.Duration

	logger  log.FieldLogger
	metrics MetricsCollector
	timeNow func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	lastFailureAt time.Time
	openedAt      time.Time
	probeInFlight bool
}

// Opts represents an options for the Breaker.
type Opts struct {
	Logger           log.FieldLogger
	MetricsCollector MetricsCollector
}

// New creates a new Breaker with the given configuration.
func New(cfg *Config) *Breaker {
	return NewWithOpts(cfg, Opts{})
}

// NewWithOpts creates a new Breaker with the given configuration and options.
func NewWithOpts(cfg *Config, opts Opts) *Breaker {
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetricsCollector
	}
	return &Breaker{
		failureThreshold: cfg.FailureThreshold,
		coolDownPeriod:   cfg.CoolDownPeriod,
		logger:           opts.Logger,
		metrics:          opts.MetricsCollector,
		timeNow:          time.Now,
	}
}

// Execute runs op only if the breaker is not open; otherwise it fails
// immediately with ErrCircuitOpen without touching the guarded dependency.
// The op's error (nil or not) feeds the breaker's state machine.
func (b *Breaker) Execute(ctx context.Context, op Operation) error {
	isProbe, err := b.beforeCall()
	if err != nil {
		return err
	}
	opErr := op(ctx)
	b.afterCall(opErr, isProbe)
	return opErr
}

// Status returns a snapshot of the breaker state for health reporting.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		State:           b.state,
		Failures:        b.failures,
		LastFailureTime: b.lastFailureAt,
		Open:            b.state == StateOpen,
	}
}

// beforeCall reports whether the admitted call is the half-open probe.
// Only the probe's outcome may close or reopen the breaker; a stale call
// admitted earlier (while CLOSED) may complete during the probe and must not
// be mistaken for it.
func (b *Breaker) beforeCall() (isProbe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, nil
	case StateOpen:
		if b.timeNow().Sub(b.openedAt) < b.coolDownPeriod {
			b.metrics.IncShortCircuits()
			return false, ErrCircuitOpen
		}
		// Cool-down elapsed, let exactly one probe through.
		b.setState(StateHalfOpen)
		b.probeInFlight = true
		return true, nil
	default: // StateHalfOpen
		if b.probeInFlight {
			b.metrics.IncShortCircuits()
			return false, ErrCircuitOpen
		}
		b.probeInFlight = true
		return true, nil
	}
}

func (b *Breaker) afterCall(err error, isProbe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if isProbe && b.state == StateHalfOpen {
			b.probeInFlight = false
			b.setState(StateClosed)
			b.logger.Info("circuit breaker closed after successful probe")
		}
		return
	}

	now := b.timeNow()
	b.failures++
	b.lastFailureAt = now

	if isProbe {
		if b.state == StateHalfOpen {
			b.probeInFlight = false
			b.openedAt = now
			b.setState(StateOpen)
			b.logger.Warn("circuit breaker probe failed, reopening",
				log.Duration("cool_down_period", b.coolDownPeriod), log.Error(err))
		}
		return
	}

	if b.state == StateClosed && b.failures >= b.failureThreshold {
		b.openedAt = now
		b.setState(StateOpen)
		b.metrics.IncTrips()
		b.logger.Warn("circuit breaker tripped",
			log.Int("failures", b.failures), log.Duration("cool_down_period", b.coolDownPeriod), log.Error(err))
	}
}

// setState must be called with b.mu held.
func (b *Breaker) setState(s State) {
	b.state = s
	b.metrics.SetState(s)
}
