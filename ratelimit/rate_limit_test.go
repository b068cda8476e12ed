/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vizionik25/CodeRevAI-sub001/circuitbreaker"
)

var errStoreDown = errors.New("store is down")

// fakeWindowStore keeps the sorted window structure in memory, mirroring the
// purge-insert-count contract of the real store.
type fakeWindowStore struct {
	mu      sync.Mutex
	entries map[string][]int64
	calls   int
	err     error
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{entries: map[string][]int64{}}
}

func (s *fakeWindowStore) RecordAndCount(
	_ context.Context, key string, now time.Time, window time.Duration,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	windowStartMs := now.UnixMilli() - window.Milliseconds()
	var kept []int64
	for _, scoreMs := range s.entries[key] {
		if scoreMs >= windowStartMs {
			kept = append(kept, scoreMs)
		}
	}
	kept = append(kept, now.UnixMilli())
	s.entries[key] = kept
	return int64(len(kept)), nil
}

type RateLimiterTestSuite struct {
	suite.Suite

	store   *fakeWindowStore
	breaker *circuitbreaker.Breaker
	limiter *Limiter
	now     time.Time
}

func TestRateLimiter(t *testing.T) {
	suite.Run(t, new(RateLimiterTestSuite))
}

func (ts *RateLimiterTestSuite) SetupTest() {
	ts.store = newFakeWindowStore()
	ts.breaker = circuitbreaker.New(&circuitbreaker.Config{
		FailureThreshold: 5, CoolDownPeriod: 30 * time.Second,
	})
	ts.limiter = New(ts.store, ts.breaker)
	ts.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts.limiter.timeNow = func() time.Time { return ts.now }
}

func (ts *RateLimiterTestSuite) TestAllowsUpToLimitThenDenies() {
	const limit = 10
	window := time.Minute
	ctx := context.Background()

	for i := 1; i <= limit; i++ {
		ts.now = ts.now.Add(time.Second)
		d := ts.limiter.Check(ctx, "review:user-1", limit, window)
		ts.True(d.Allowed, "call %d must be allowed", i)
		ts.Equal(limit-i, d.Remaining)
		ts.Equal(ts.now.Add(window), d.ResetTime)
		ts.False(d.CircuitOpen)
	}

	ts.now = ts.now.Add(time.Second)
	d := ts.limiter.Check(ctx, "review:user-1", limit, window)
	ts.False(d.Allowed)
	ts.Equal(0, d.Remaining)
}

func (ts *RateLimiterTestSuite) TestBoundaryCountEqualToLimitIsAllowed() {
	ctx := context.Background()
	d := ts.limiter.Check(ctx, "k", 1, time.Minute)
	ts.True(d.Allowed)
	ts.Equal(0, d.Remaining)

	d = ts.limiter.Check(ctx, "k", 1, time.Minute)
	ts.False(d.Allowed)
}

func (ts *RateLimiterTestSuite) TestWindowPurgeResetsCount() {
	const limit = 3
	window := time.Minute
	ctx := context.Background()

	for i := 0; i < limit+1; i++ {
		ts.limiter.Check(ctx, "k", limit, window)
	}
	ts.False(ts.limiter.Check(ctx, "k", limit, window).Allowed)

	// Once the window elapses for all prior entries, only new entries count.
	ts.now = ts.now.Add(window + time.Second)
	d := ts.limiter.Check(ctx, "k", limit, window)
	ts.True(d.Allowed)
	ts.Equal(limit-1, d.Remaining)
}

func (ts *RateLimiterTestSuite) TestEntryAgedExactlyOneWindowStillCounts() {
	const limit = 5
	window := time.Minute
	ctx := context.Background()

	ts.limiter.Check(ctx, "k", limit, window)

	// The purge drops only entries strictly older than the window start, so
	// an entry recorded exactly one window ago is still counted.
	ts.now = ts.now.Add(window)
	d := ts.limiter.Check(ctx, "k", limit, window)
	ts.Equal(limit-2, d.Remaining)

	// One more millisecond and the first entry is outside the window.
	ts.now = ts.now.Add(time.Millisecond)
	d = ts.limiter.Check(ctx, "k", limit, window)
	ts.Equal(limit-2, d.Remaining)
}

func (ts *RateLimiterTestSuite) TestDeniedCallsStillConsumeSlot() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ts.limiter.Check(ctx, "k", 2, time.Minute)
	}
	// All five calls recorded an entry even though three were denied.
	ts.Len(ts.store.entries[DefaultKeyPrefix+"k"], 5)
}

func (ts *RateLimiterTestSuite) TestFailOpenOnStoreError() {
	ts.store.err = errStoreDown
	d := ts.limiter.Check(context.Background(), "k", 10, time.Minute)
	ts.True(d.Allowed)
	ts.Equal(10, d.Remaining)
	ts.False(d.CircuitOpen)
}

func (ts *RateLimiterTestSuite) TestFailClosedOnStoreError() {
	ts.store.err = errStoreDown
	d := ts.limiter.CheckWithOpts(context.Background(), "k", 10, time.Minute, CheckOpts{FailClosed: true})
	ts.False(d.Allowed)
	ts.Equal(0, d.Remaining)
	ts.False(d.CircuitOpen)
}

func (ts *RateLimiterTestSuite) TestCircuitOpenShortCircuitsStore() {
	ts.store.err = errStoreDown
	ctx := context.Background()

	// Five consecutive store failures trip the breaker.
	for i := 0; i < 5; i++ {
		ts.limiter.Check(ctx, "k", 10, time.Minute)
	}
	ts.Equal(5, ts.store.calls)

	// The 6th call must not attempt the store and must flag the open circuit.
	d := ts.limiter.Check(ctx, "k", 10, time.Minute)
	ts.True(d.Allowed)
	ts.Equal(10, d.Remaining)
	ts.True(d.CircuitOpen)
	ts.Equal(5, ts.store.calls)

	dClosed := ts.limiter.CheckWithOpts(ctx, "k", 10, time.Minute, CheckOpts{FailClosed: true})
	ts.False(dClosed.Allowed)
	ts.True(dClosed.CircuitOpen)
	ts.Equal(5, ts.store.calls)
}

func (ts *RateLimiterTestSuite) TestKeyPrefixNamespacesIdentifiers() {
	limiter := NewWithOpts(ts.store, ts.breaker, Opts{KeyPrefix: "throttle:"})
	limiter.timeNow = func() time.Time { return ts.now }
	limiter.Check(context.Background(), "k", 1, time.Minute)
	ts.Len(ts.store.entries["throttle:k"], 1)
}
