/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package registry wires the resilience core together: it owns the process-wide
// singleton instances of the counter store client, circuit breaker, rate
// limiter and retry queue, constructing each lazily on first use. Handlers
// receive a *Registry instead of reaching for ambient globals, which keeps the
// core testable without process-wide side effects.
package registry

import (
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/vizionik25/CodeRevAI-sub001/circuitbreaker"
	"github.com/vizionik25/CodeRevAI-sub001/log"
	"github.com/vizionik25/CodeRevAI-sub001/ratelimit"
	"github.com/vizionik25/CodeRevAI-sub001/redisclient"
	"github.com/vizionik25/CodeRevAI-sub001/retryqueue"
)

// Registry holds lazily initialized process-wide components.
// All getters are safe for concurrent use and always return the same instance.
type Registry struct {
	cfg    *Config
	sink   retryqueue.Sink
	logger log.FieldLogger

	redisOnce   sync.Once
	redisClient *redis.Client

	breakerOnce sync.Once
	breaker     *circuitbreaker.Breaker

	limiterOnce sync.Once
	limiter     *ratelimit.Limiter

	queueOnce sync.Once
	queue     *retryqueue.Queue
}

// New creates a new Registry. sink is the redelivery target for the retry
// queue; components are not constructed until first requested.
func New(cfg *Config, sink retryqueue.Sink, logger log.FieldLogger) *Registry {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Registry{cfg: cfg, sink: sink, logger: logger}
}

// RedisClient returns the shared counter store client.
func (r *Registry) RedisClient() *redis.Client {
	r.redisOnce.Do(func() {
		r.redisClient = redisclient.New(r.cfg.Redis)
	})
	return r.redisClient
}

// CircuitBreaker returns the breaker guarding all counter store calls.
func (r *Registry) CircuitBreaker() *circuitbreaker.Breaker {
	r.breakerOnce.Do(func() {
		r.breaker = circuitbreaker.NewWithOpts(r.cfg.CircuitBreaker, circuitbreaker.Opts{Logger: r.logger})
	})
	return r.breaker
}

// RateLimiter returns the sliding-window rate limiter.
func (r *Registry) RateLimiter() *ratelimit.Limiter {
	r.limiterOnce.Do(func() {
		store := ratelimit.NewRedisWindowStore(r.RedisClient(), r.cfg.RateLimit.StoreRequestTimeout)
		r.limiter = ratelimit.NewWithOpts(store, r.CircuitBreaker(), ratelimit.Opts{
			KeyPrefix: r.cfg.RateLimit.StoreKeyPrefix,
			Logger:    r.logger,
		})
	})
	return r.limiter
}

// RetryQueue returns the write-behind retry queue.
// Its drain loop is not started here; run it with retryqueue.Queue.Run.
func (r *Registry) RetryQueue() *retryqueue.Queue {
	r.queueOnce.Do(func() {
		r.queue = retryqueue.NewWithOpts(r.sink, r.cfg.RetryQueue, retryqueue.Opts{Logger: r.logger})
	})
	return r.queue
}

// FireAndForget runs fn as a detached background task whose failure must not
// block or fail the primary operation. Errors and panics are only logged.
func FireAndForget(logger log.FieldLogger, taskName string, fn func() error) {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	go func() {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("background task panicked",
					log.String("task", taskName), log.String("panic", fmt.Sprintf("%v", p)))
			}
		}()
		if err := fn(); err != nil {
			logger.Error("background task failed", log.String("task", taskName), log.Error(err))
		}
	}()
}
