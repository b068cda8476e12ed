/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package registry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vizionik25/CodeRevAI-sub001/config"
	"github.com/vizionik25/CodeRevAI-sub001/log/logtest"
	"github.com/vizionik25/CodeRevAI-sub001/retryqueue"
)

func noopSink() retryqueue.Sink {
	return retryqueue.SinkFunc(func(ctx context.Context, owner string, payload interface{}) error {
		return nil
	})
}

func TestRegistryReturnsSameInstances(t *testing.T) {
	r := New(NewDefaultConfig(), noopSink(), nil)

	require.Same(t, r.CircuitBreaker(), r.CircuitBreaker())
	require.Same(t, r.RateLimiter(), r.RateLimiter())
	require.Same(t, r.RetryQueue(), r.RetryQueue())
	require.Same(t, r.RedisClient(), r.RedisClient())
}

func TestLoadConfigFromReader(t *testing.T) {
	cfgData := bytes.NewBufferString(`
log:
  level: warn
redis:
  address: "redis.internal:6380"
  database: 2
rateLimit:
  storeKeyPrefix: "throttle:"
  storeRequestTimeout: 500ms
circuitBreaker:
  failureThreshold: 3
  coolDownPeriod: 10s
retryQueue:
  maxItemsPerOwner: 5
  drainInterval: 1s
  maxAttempts: 4
  baseRetryDelay: 200ms
  maxRetryDelay: 30s
`)
	cfg, err := LoadConfigFromReader(cfgData, config.DataTypeYAML, "coderevai")
	require.NoError(t, err)

	require.Equal(t, "redis.internal:6380", cfg.Redis.Address)
	require.Equal(t, 2, cfg.Redis.Database)
	require.Equal(t, "throttle:", cfg.RateLimit.StoreKeyPrefix)
	require.Equal(t, 500*time.Millisecond, cfg.RateLimit.StoreRequestTimeout)
	require.Equal(t, 3, cfg.CircuitBreaker.FailureThreshold)
	require.Equal(t, 10*time.Second, cfg.CircuitBreaker.CoolDownPeriod)
	require.Equal(t, 5, cfg.RetryQueue.MaxItemsPerOwner)
	require.Equal(t, 4, cfg.RetryQueue.MaxAttempts)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFromReader(bytes.NewBufferString("{}"), config.DataTypeYAML, "coderevai")
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:6379", cfg.Redis.Address)
	require.Equal(t, 5, cfg.CircuitBreaker.FailureThreshold)
	require.Equal(t, 30*time.Second, cfg.CircuitBreaker.CoolDownPeriod)
	require.Equal(t, 20, cfg.RetryQueue.MaxItemsPerOwner)
}

func TestFireAndForgetLogsFailure(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	FireAndForget(logRecorder, "update-last-used", func() error {
		return errors.New("metadata update failed")
	})

	require.Eventually(t, func() bool {
		_, found := logRecorder.FindEntry("background task failed")
		return found
	}, time.Second, 5*time.Millisecond)
}

func TestFireAndForgetRecoversPanic(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	FireAndForget(logRecorder, "update-last-used", func() error {
		panic("boom")
	})

	require.Eventually(t, func() bool {
		_, found := logRecorder.FindEntry("background task panicked")
		return found
	}, time.Second, 5*time.Millisecond)
}
