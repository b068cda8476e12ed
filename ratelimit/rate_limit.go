/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/vizionik25/CodeRevAI-sub001/circuitbreaker"
	"github.com/vizionik25/CodeRevAI-sub001/log"
)

// Transient store errors. Both count toward the circuit breaker trip.
var (
	// ErrStoreTimeout is returned (wrapped) when a store call exceeds its request timeout.
	ErrStoreTimeout = errors.New("counter store timeout")

	// ErrStoreUnavailable is returned (wrapped) when a store call fails for any other transient reason.
	ErrStoreUnavailable = errors.New("counter store unavailable")
)

// Rate describes the frequency of requests: at most Count events per Duration.
type Rate struct {
	Count    int
	Duration time.Duration
}

// WindowStore abstracts the shared sorted structure backing the limiter.
// RecordAndCount must atomically, as a unit: purge entries older than
// now-window, insert a new entry scored at now, count the remaining entries
// and refresh the structure's expiry to bound stale-key memory in the store.
type WindowStore interface {
	RecordAndCount(ctx context.Context, key string, now time.Time, window time.Duration) (count int64, err error)
}

// Decision is the outcome of a rate limit check. Remaining and ResetTime are
// intended for the standard X-RateLimit-* response headers.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time

	// CircuitOpen reports that the decision was made without consulting the
	// store because the circuit breaker rejected the call.
	CircuitOpen bool
}

// CheckOpts represents options for a single rate limit check.
type CheckOpts struct {
	// FailClosed makes the check deny the request when the store is
	// unreachable or the breaker is open. The default is to allow.
	FailClosed bool
}

// Limiter implements the sliding-window algorithm over a breaker-guarded window store.
// A Limiter is a process-wide object safe for concurrent use.
type Limiter struct {
	store     WindowStore
	breaker   *circuitbreaker.Breaker
	keyPrefix string
	logger    log.FieldLogger
	timeNow   func() time.Time
}

// Opts represents an options for the Limiter.
type Opts struct {
	// KeyPrefix is prepended to every identifier to namespace the limiter's keys in the store.
	KeyPrefix string

	Logger log.FieldLogger
}

// New creates a new Limiter on top of the given store and circuit breaker.
func New(store WindowStore, breaker *circuitbreaker.Breaker) *Limiter {
	return NewWithOpts(store, breaker, Opts{})
}

// NewWithOpts creates a new Limiter with the given options.
func NewWithOpts(store WindowStore, breaker *circuitbreaker.Breaker, opts Opts) *Limiter {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	return &Limiter{
		store:     store,
		breaker:   breaker,
		keyPrefix: opts.KeyPrefix,
		logger:    opts.Logger,
		timeNow:   time.Now,
	}
}

// Check records the event for identifier and reports whether it fits into
// limit events per window. A count exactly equal to the limit is allowed.
// Store failures are absorbed into a fail-open decision.
func (l *Limiter) Check(ctx context.Context, identifier string, limit int, window time.Duration) Decision {
	return l.CheckWithOpts(ctx, identifier, limit, window, CheckOpts{})
}

// CheckWithOpts is a version of Check with a caller-selected failure policy.
func (l *Limiter) CheckWithOpts(
	ctx context.Context, identifier string, limit int, window time.Duration, opts CheckOpts,
) Decision {
	now := l.timeNow()

	var count int64
	err := l.breaker.Execute(ctx, func(ctx context.Context) error {
		var storeErr error
		count, storeErr = l.store.RecordAndCount(ctx, l.keyPrefix+identifier, now, window)
		return storeErr
	})
	if err != nil {
		return l.decideOnFailure(identifier, limit, window, now, opts, err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetTime: now.Add(window),
	}
}

func (l *Limiter) decideOnFailure(
	identifier string, limit int, window time.Duration, now time.Time, opts CheckOpts, err error,
) Decision {
	circuitOpen := errors.Is(err, circuitbreaker.ErrCircuitOpen)
	l.logger.Warn("rate limit check failed, applying failure policy",
		log.String("identifier", identifier),
		log.Bool("fail_closed", opts.FailClosed),
		log.Bool("circuit_open", circuitOpen),
		log.Error(err))

	if opts.FailClosed {
		return Decision{Allowed: false, Remaining: 0, ResetTime: now.Add(window), CircuitOpen: circuitOpen}
	}
	return Decision{Allowed: true, Remaining: limit, ResetTime: now.Add(window), CircuitOpen: circuitOpen}
}
