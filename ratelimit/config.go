/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"fmt"
	"time"

	"github.com/vizionik25/CodeRevAI-sub001/config"
)

const cfgDefaultKeyPrefix = "rateLimit"

const (
	cfgKeyStoreKeyPrefix      = "storeKeyPrefix"
	cfgKeyStoreRequestTimeout = "storeRequestTimeout"
)

// Default values.
const (
	// DefaultKeyPrefix namespaces the limiter's keys in the shared store.
	DefaultKeyPrefix = "rate_limit:"

	// DefaultStoreRequestTimeout bounds a single store pipeline call.
	DefaultStoreRequestTimeout = 2 * time.Second
)

// Config represents a set of configuration parameters for the rate limiter.
type Config struct {
	// StoreKeyPrefix is prepended to every identifier to namespace the limiter's keys in the store.
	StoreKeyPrefix string `mapstructure:"storeKeyPrefix" yaml:"storeKeyPrefix" json:"storeKeyPrefix"`

	// StoreRequestTimeout bounds a single store pipeline call.
	StoreRequestTimeout time.Duration `mapstructure:"storeRequestTimeout" yaml:"storeRequestTimeout" json:"storeRequestTimeout"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:           cfgDefaultKeyPrefix,
		StoreKeyPrefix:      DefaultKeyPrefix,
		StoreRequestTimeout: DefaultStoreRequestTimeout,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyStoreKeyPrefix, DefaultKeyPrefix)
	dp.SetDefault(cfgKeyStoreRequestTimeout, DefaultStoreRequestTimeout)
}

// Set sets configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.StoreKeyPrefix, err = dp.GetString(cfgKeyStoreKeyPrefix); err != nil {
		return err
	}

	if c.StoreRequestTimeout, err = dp.GetDuration(cfgKeyStoreRequestTimeout); err != nil {
		return err
	}
	if c.StoreRequestTimeout <= 0 {
		return config.WrapKeyErr(cfgKeyStoreRequestTimeout, fmt.Errorf("must be positive, got %s", c.StoreRequestTimeout))
	}

	return nil
}
