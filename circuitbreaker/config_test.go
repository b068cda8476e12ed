/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package circuitbreaker

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
	require.Equal(t, DefaultFailureThreshold, cfg.FailureThreshold)
	require.Equal(t, DefaultCoolDownPeriod, cfg.CoolDownPeriod)
}

func TestConfigSet(t *testing.T) {
	cfg, err := loadConfig(t, "circuitBreaker:\n  failureThreshold: 3\n  coolDownPeriod: 15s\n")
	require.NoError(t, err)
	require.Equal(t, 3, cfg.FailureThreshold)
	require.Equal(t, 15*time.Second, cfg.CoolDownPeriod)
}

func TestConfigRejectsNonPositiveValues(t *testing.T) {
	_, err := loadConfig(t, "circuitBreaker:\n  failureThreshold: 0\n")
	require.ErrorContains(t, err, "must be positive")

	_, err = loadConfig(t, "circuitBreaker:\n  coolDownPeriod: -5s\n")
	require.ErrorContains(t, err, "must be positive")
}
