/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retryqueue

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/xid"
	"go.uber.org/atomic"

	"github.com/vizionik25/CodeRevAI-sub001/log"
)

// Sink is the redelivery target for queued writes. Persist should be
// idempotent or tolerant to duplicate delivery of the same payload.
type Sink interface {
	Persist(ctx context.Context, owner string, payload interface{}) error
}

// SinkFunc is an adapter to allow the use of ordinary functions as Sink.
type SinkFunc func(ctx context.Context, owner string, payload interface{}) error

// Persist implements Sink.
func (f SinkFunc) Persist(ctx context.Context, owner string, payload interface{}) error {
	return f(ctx, owner, payload)
}

type item struct {
	id            string
	payload       interface{}
	attempts      int
	nextAttemptAt time.Time
	backOff       backoff.BackOff
	enqueuedAt    time.Time
}

// Queue is a process-wide retry queue multiplexing many owners' sub-queues.
// Enqueue and Size are safe to call concurrently from request handlers while
// the drain loop is mutating the same structures.
type Queue struct {
	sink Sink

	maxItemsPerOwner int
	drainInterval    time.Duration
	maxAttempts      int
	newBackOff       func() backoff.BackOff

	logger  log.FieldLogger
	metrics MetricsCollector
	timeNow func() time.Time

	mu    sync.Mutex
	items map[string][]*item
	total atomic.Int64
}

// Opts represents an options for the Queue.
type Opts struct {
	Logger           log.FieldLogger
	MetricsCollector MetricsCollector
}

// New creates a new Queue draining into the given sink.
func New(sink Sink, cfg *Config) *Queue {
	return NewWithOpts(sink, cfg, Opts{})
}

// NewWithOpts creates a new Queue with the given options.
func NewWithOpts(sink Sink, cfg *Config, opts Opts) *Queue {
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetricsCollector
	}
	baseDelay, maxDelay := cfg.BaseRetryDelay, cfg.MaxRetryDelay
	return &Queue{
		sink:             sink,
		maxItemsPerOwner: cfg.MaxItemsPerOwner,
		drainInterval:    cfg.DrainInterval,
		maxAttempts:      cfg.MaxAttempts,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = baseDelay
			bo.Multiplier = 2
			bo.MaxInterval = maxDelay
			bo.MaxElapsedTime = 0
			bo.Reset()
			return bo
		},
		logger:  opts.Logger,
		metrics: opts.MetricsCollector,
		timeNow: time.Now,
		items:   make(map[string][]*item),
	}
}

// Enqueue appends a new item to the owner's sub-queue. It never blocks and
// never fails: if the sub-queue is at capacity, the oldest item is evicted
// in favor of the new one.
func (q *Queue) Enqueue(owner string, payload interface{}) {
	now := q.timeNow()
	it := &item{
		id:            xid.New().String(),
		payload:       payload,
		nextAttemptAt: now,
		backOff:       q.newBackOff(),
		enqueuedAt:    now,
	}

	q.mu.Lock()
	if len(q.items[owner]) >= q.maxItemsPerOwner {
		evicted := q.items[owner][0]
		q.items[owner] = q.items[owner][1:]
		q.total.Dec()
		q.metrics.IncEvictions()
		q.logger.Warn("retry queue is full for owner, evicting oldest item",
			log.String("owner", owner), log.String("item_id", evicted.id), log.Int("attempts", evicted.attempts))
	}
	q.items[owner] = append(q.items[owner], it)
	q.total.Inc()
	q.metrics.SetItemsAmount(int(q.total.Load()))
	q.mu.Unlock()
}

// Size returns the total number of queued items across all owners.
func (q *Queue) Size() int {
	return int(q.total.Load())
}

// OwnerSize returns the number of queued items for the given owner.
func (q *Queue) OwnerSize(owner string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items[owner])
}

// Run periodically drains the queue until ctx is canceled.
// It is intended to be started once as an independent background task,
// decoupled from any individual request's lifetime.
func (q *Queue) Run(ctx context.Context) {
	q.logger.Info("retry queue drain loop started", log.Duration("drain_interval", q.drainInterval))
	ticker := time.NewTicker(q.drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("retry queue drain loop stopped", log.Int("pending_items", q.Size()))
			return
		case <-ticker.C:
			q.drainOnce(ctx)
		}
	}
}

// drainOnce scans all owners' sub-queues and redelivers eligible items.
func (q *Queue) drainOnce(ctx context.Context) {
	now := q.timeNow()
	for _, owner := range q.ownersSnapshot() {
		q.drainOwner(ctx, owner, now)
		if ctx.Err() != nil {
			return
		}
	}
}

func (q *Queue) ownersSnapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	owners := make([]string, 0, len(q.items))
	for owner := range q.items {
		owners = append(owners, owner)
	}
	return owners
}

// drainOwner redelivers the owner's items in insertion order. The first
// failure stops this owner's scan for the cycle so a stalled sink is not
// hammered, other owners keep draining.
func (q *Queue) drainOwner(ctx context.Context, owner string, now time.Time) {
	for {
		q.mu.Lock()
		items := q.items[owner]
		if len(items) == 0 {
			q.mu.Unlock()
			return
		}
		head := items[0]
		if now.Before(head.nextAttemptAt) {
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		// The sink call is made without holding the lock so concurrent
		// enqueues are not blocked by a slow redelivery.
		if err := q.sink.Persist(ctx, owner, head.payload); err != nil {
			q.handleRedeliveryFailure(owner, head, err)
			return
		}
		q.remove(owner, head)
		q.metrics.IncPersisted()
		q.logger.Debug("retry item persisted",
			log.String("owner", owner), log.String("item_id", head.id), log.Int("attempts", head.attempts))
	}
}

func (q *Queue) handleRedeliveryFailure(owner string, it *item, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// The item may have been evicted by a concurrent enqueue while the sink call was in flight.
	if !q.containsLocked(owner, it) {
		return
	}

	it.attempts++
	delay := it.backOff.NextBackOff()
	if it.attempts >= q.maxAttempts || delay == backoff.Stop {
		q.removeLocked(owner, it)
		q.metrics.IncDrops()
		q.logger.Error("dropping retry item after max redelivery attempts",
			log.String("owner", owner), log.String("item_id", it.id), log.Int("attempts", it.attempts), log.Error(err))
		return
	}
	it.nextAttemptAt = q.timeNow().Add(delay)
	q.logger.Warn("retry item redelivery failed, backing off",
		log.String("owner", owner), log.String("item_id", it.id),
		log.Int("attempts", it.attempts), log.Duration("next_attempt_in", delay), log.Error(err))
}

func (q *Queue) remove(owner string, it *item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(owner, it)
}

func (q *Queue) containsLocked(owner string, it *item) bool {
	for _, queued := range q.items[owner] {
		if queued == it {
			return true
		}
	}
	return false
}

func (q *Queue) removeLocked(owner string, it *item) {
	items := q.items[owner]
	for i, queued := range items {
		if queued != it {
			continue
		}
		q.items[owner] = append(items[:i:i], items[i+1:]...)
		if len(q.items[owner]) == 0 {
			delete(q.items, owner)
		}
		q.total.Dec()
		q.metrics.SetItemsAmount(int(q.total.Load()))
		return
	}
}
