/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retryqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vizionik25/CodeRevAI-sub001/log/logtest"
)

var errSinkDown = errors.New("sink is down")

type persistedRecord struct {
	owner   string
	payload interface{}
}

// fakeSink fails the first failuresBeforeSuccess calls, and always fails for owners in failOwners.
type fakeSink struct {
	mu                    sync.Mutex
	failuresBeforeSuccess int
	failOwners            map[string]bool
	calls                 int
	persisted             []persistedRecord
}

func (s *fakeSink) Persist(_ context.Context, owner string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOwners[owner] {
		return errSinkDown
	}
	if s.failuresBeforeSuccess > 0 {
		s.failuresBeforeSuccess--
		return errSinkDown
	}
	s.persisted = append(s.persisted, persistedRecord{owner: owner, payload: payload})
	return nil
}

func (s *fakeSink) persistedPayloads(owner string) []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payloads []interface{}
	for _, rec := range s.persisted {
		if rec.owner == owner {
			payloads = append(payloads, rec.payload)
		}
	}
	return payloads
}

func newTestQueue(sink Sink, cfg *Config) (*Queue, *time.Time) {
	q := New(sink, cfg)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	q.timeNow = func() time.Time { return now }
	return q, &now
}

func TestEnqueueAndSizes(t *testing.T) {
	q, _ := newTestQueue(&fakeSink{}, NewDefaultConfig())
	q.Enqueue("u1", "a")
	q.Enqueue("u1", "b")
	q.Enqueue("u2", "c")

	require.Equal(t, 3, q.Size())
	require.Equal(t, 2, q.OwnerSize("u1"))
	require.Equal(t, 1, q.OwnerSize("u2"))
	require.Equal(t, 0, q.OwnerSize("unknown"))
}

func TestEnqueueBeyondCapacityEvictsOldest(t *testing.T) {
	sink := &fakeSink{}
	cfg := NewDefaultConfig()
	cfg.MaxItemsPerOwner = 3
	q, _ := newTestQueue(sink, cfg)

	for i := 1; i <= 4; i++ {
		q.Enqueue("u1", fmt.Sprintf("p%d", i))
	}
	require.Equal(t, 3, q.OwnerSize("u1"))

	q.drainOnce(context.Background())
	require.Equal(t, 0, q.Size())
	require.Equal(t, []interface{}{"p2", "p3", "p4"}, sink.persistedPayloads("u1"))
}

func TestDrainDeliversInInsertionOrder(t *testing.T) {
	sink := &fakeSink{}
	q, _ := newTestQueue(sink, NewDefaultConfig())
	q.Enqueue("u1", "first")
	q.Enqueue("u1", "second")
	q.Enqueue("u1", "third")

	q.drainOnce(context.Background())
	require.Equal(t, []interface{}{"first", "second", "third"}, sink.persistedPayloads("u1"))
	require.Equal(t, 0, q.Size())
}

func TestDrainBacksOffAfterFailure(t *testing.T) {
	sink := &fakeSink{failOwners: map[string]bool{"u1": true}}
	q, now := newTestQueue(sink, NewDefaultConfig())
	q.Enqueue("u1", "p")

	q.drainOnce(context.Background())
	require.Equal(t, 1, sink.calls)
	require.Equal(t, 1, q.Size())

	// Not eligible again until the backoff delay passes.
	q.drainOnce(context.Background())
	require.Equal(t, 1, sink.calls)

	*now = now.Add(time.Hour)
	q.drainOnce(context.Background())
	require.Equal(t, 2, sink.calls)
}

func TestDropAfterMaxAttempts(t *testing.T) {
	sink := &fakeSink{failOwners: map[string]bool{"u1": true}}
	cfg := NewDefaultConfig()
	cfg.MaxAttempts = 2
	logRecorder := logtest.NewRecorder()
	q := NewWithOpts(sink, cfg, Opts{Logger: logRecorder})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	q.timeNow = func() time.Time { return now }

	q.Enqueue("u1", "p")
	q.drainOnce(context.Background())
	require.Equal(t, 1, q.Size())

	now = now.Add(time.Hour)
	q.drainOnce(context.Background())
	require.Equal(t, 0, q.Size())
	require.Equal(t, 2, sink.calls)

	_, found := logRecorder.FindEntry("dropping retry item after max redelivery attempts")
	require.True(t, found)
}

func TestStalledOwnerDoesNotBlockOthers(t *testing.T) {
	sink := &fakeSink{failOwners: map[string]bool{"stalled": true}}
	q, _ := newTestQueue(sink, NewDefaultConfig())
	q.Enqueue("stalled", "x")
	q.Enqueue("healthy", "y")

	q.drainOnce(context.Background())
	require.Equal(t, []interface{}{"y"}, sink.persistedPayloads("healthy"))
	require.Equal(t, 1, q.OwnerSize("stalled"))
	require.Equal(t, 0, q.OwnerSize("healthy"))
}

func TestRedeliveryAfterTransientFailures(t *testing.T) {
	sink := &fakeSink{failuresBeforeSuccess: 2}
	q, now := newTestQueue(sink, NewDefaultConfig())
	for i := 1; i <= 3; i++ {
		q.Enqueue("u1", fmt.Sprintf("p%d", i))
	}

	// Backoff delays are bounded by MaxRetryDelay, so advancing well past it
	// between drain cycles makes the head item eligible every time.
	for i := 0; i < 10 && q.Size() > 0; i++ {
		q.drainOnce(context.Background())
		*now = now.Add(time.Hour)
	}

	require.Equal(t, 0, q.Size())
	require.Equal(t, []interface{}{"p1", "p2", "p3"}, sink.persistedPayloads("u1"))
	require.Equal(t, 5, sink.calls) // 2 failed attempts + 3 successful deliveries
}

func TestConcurrentEnqueue(t *testing.T) {
	q, _ := newTestQueue(&fakeSink{}, NewDefaultConfig())
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Enqueue(fmt.Sprintf("owner-%d", i), i)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 10, q.Size())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	sink := &fakeSink{}
	cfg := NewDefaultConfig()
	cfg.DrainInterval = 10 * time.Millisecond
	q := New(sink, cfg)
	q.Enqueue("u1", "p")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return q.Size() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain loop did not stop after context cancellation")
	}
}
