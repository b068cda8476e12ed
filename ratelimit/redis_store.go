/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
)

// RedisWindowStore implements WindowStore on top of a Redis sorted set.
// Entries are scored by event time in milliseconds; members are unique so
// concurrent events within the same millisecond are counted separately.
type RedisWindowStore struct {
	client         redis.UniversalClient
	requestTimeout time.Duration
}

// NewRedisWindowStore creates a new RedisWindowStore.
// requestTimeout bounds every pipeline call so a hung store cannot stall
// the circuit breaker's failure detection; a timeout counts as a failure.
func NewRedisWindowStore(client redis.UniversalClient, requestTimeout time.Duration) *RedisWindowStore {
	if requestTimeout <= 0 {
		requestTimeout = DefaultStoreRequestTimeout
	}
	return &RedisWindowStore{client: client, requestTimeout: requestTimeout}
}

// windowPipelineResult holds typed per-command results of the window pipeline.
// Results are decoded positionally, in the order the commands were queued.
type windowPipelineResult struct {
	purged *redis.IntCmd
	added  *redis.IntCmd
	count  *redis.IntCmd
	expire *redis.BoolCmd
}

// RecordAndCount implements WindowStore. The four commands are executed as a
// single MULTI/EXEC transaction: remove-expired, add, count, set-expiry.
func (s *RedisWindowStore) RecordAndCount(
	ctx context.Context, key string, now time.Time, window time.Duration,
) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	nowMs := now.UnixMilli()
	windowStartMs := nowMs - window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + xid.New().String()

	var res windowPipelineResult
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// Exclusive max: an entry aged exactly one window is still inside it.
		res.purged = pipe.ZRemRangeByScore(ctx, key, "0", "("+strconv.FormatInt(windowStartMs, 10))
		res.added = pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: member})
		res.count = pipe.ZCard(ctx, key)
		res.expire = pipe.Expire(ctx, key, expiryFor(window))
		return nil
	})
	if err != nil {
		return 0, classifyStoreErr(err)
	}
	return res.count.Val(), nil
}

// expiryFor rounds the window up to whole seconds, the granularity of key expiry in the store.
func expiryFor(window time.Duration) time.Duration {
	expiry := window.Truncate(time.Second)
	if expiry < window {
		expiry += time.Second
	}
	return expiry
}

func classifyStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrStoreTimeout, err)
	}
	return fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
}
