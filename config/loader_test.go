/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testServiceConfig struct {
	Name    string
	Timeout time.Duration
	MaxSize BytesCount
}

func (c *testServiceConfig) KeyPrefix() string {
	return "service"
}

func (c *testServiceConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("name", "default-service")
	dp.SetDefault("timeout", 10*time.Second)
}

func (c *testServiceConfig) Set(dp DataProvider) error {
	var err error
	if c.Name, err = dp.GetString("name"); err != nil {
		return err
	}
	if c.Timeout, err = dp.GetDuration("timeout"); err != nil {
		return err
	}
	if c.MaxSize, err = dp.GetBytesCount("maxSize"); err != nil {
		return err
	}
	return nil
}

func TestLoaderLoadFromReader(t *testing.T) {
	cfgData := bytes.NewBufferString(`
service:
  name: counter-store
  timeout: 2s
  maxSize: 4MB
`)
	cfg := &testServiceConfig{}
	err := NewDefaultLoader("test").LoadFromReader(cfgData, DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Equal(t, "counter-store", cfg.Name)
	require.Equal(t, 2*time.Second, cfg.Timeout)
	require.Equal(t, BytesCount(4*1024*1024), cfg.MaxSize)
}

func TestLoaderAppliesDefaults(t *testing.T) {
	cfg := &testServiceConfig{}
	err := NewDefaultLoader("test").LoadFromReader(bytes.NewBufferString("{}"), DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Equal(t, "default-service", cfg.Name)
	require.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestGetStringFromSetRejectsUnknownValue(t *testing.T) {
	dp := NewViperAdapter()
	dp.Set("mode", "sideways")
	_, err := dp.GetStringFromSet("mode", []string{"up", "down"}, true)
	require.ErrorContains(t, err, "unknown value")
}
