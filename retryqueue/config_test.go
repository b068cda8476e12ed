/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retryqueue

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vizionik25/CodeRevAI-sub001/config"
)

func loadConfig(t *testing.T, yamlData string) (*Config, error) {
	t.Helper()
	cfg := NewConfig()
	err := config.NewDefaultLoader("test").LoadFromReader(bytes.NewBufferString(yamlData), config.DataTypeYAML, cfg)
	return cfg, err
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(t, "{}")
	require.NoError(t, err)
	require.Equal(t, DefaultMaxItemsPerOwner, cfg.MaxItemsPerOwner)
	require.Equal(t, DefaultDrainInterval, cfg.DrainInterval)
	require.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	require.Equal(t, DefaultBaseRetryDelay, cfg.BaseRetryDelay)
	require.Equal(t, DefaultMaxRetryDelay, cfg.MaxRetryDelay)
}

func TestConfigSet(t *testing.T) {
	cfg, err := loadConfig(t, `
retryQueue:
  maxItemsPerOwner: 7
  drainInterval: 2s
  maxAttempts: 3
  baseRetryDelay: 100ms
  maxRetryDelay: 10s
`)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.MaxItemsPerOwner)
	require.Equal(t, 2*time.Second, cfg.DrainInterval)
	require.Equal(t, 3, cfg.MaxAttempts)
	require.Equal(t, 100*time.Millisecond, cfg.BaseRetryDelay)
	require.Equal(t, 10*time.Second, cfg.MaxRetryDelay)
}

func TestConfigRejectsDelayCeilingBelowBase(t *testing.T) {
	_, err := loadConfig(t, "retryQueue:\n  baseRetryDelay: 10s\n  maxRetryDelay: 1s\n")
	require.ErrorContains(t, err, "base retry delay")
}
