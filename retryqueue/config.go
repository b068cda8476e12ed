/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retryqueue

import (
	"fmt"
	"time"

	"github.com/vizionik25/CodeRevAI-sub001/config"
)

const cfgDefaultKeyPrefix = "retryQueue"

const (
	cfgKeyMaxItemsPerOwner = "maxItemsPerOwner"
	cfgKeyDrainInterval    = "drainInterval"
	cfgKeyMaxAttempts      = "maxAttempts"
	cfgKeyBaseRetryDelay   = "baseRetryDelay"
	cfgKeyMaxRetryDelay    = "maxRetryDelay"
)

// Default values.
const (
	DefaultMaxItemsPerOwner = 20
	DefaultDrainInterval    = 5 * time.Second
	DefaultMaxAttempts      = 10
	DefaultBaseRetryDelay   = time.Second
	DefaultMaxRetryDelay    = 5 * time.Minute
)

// Config represents a set of configuration parameters for the retry queue.
type Config struct {
	// MaxItemsPerOwner bounds an owner's sub-queue; the oldest item is evicted when it is full.
	MaxItemsPerOwner int `mapstructure:"maxItemsPerOwner" yaml:"maxItemsPerOwner" json:"maxItemsPerOwner"`

	// DrainInterval is the period of the background drain loop.
	DrainInterval time.Duration `mapstructure:"drainInterval" yaml:"drainInterval" json:"drainInterval"`

	// MaxAttempts is the number of redelivery attempts after which an item is dropped.
	MaxAttempts int `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`

	// BaseRetryDelay is the initial backoff delay; it doubles on every failed attempt.
	BaseRetryDelay time.Duration `mapstructure:"baseRetryDelay" yaml:"baseRetryDelay" json:"baseRetryDelay"`

	// MaxRetryDelay is the backoff ceiling.
	MaxRetryDelay time.Duration `mapstructure:"maxRetryDelay" yaml:"maxRetryDelay" json:"maxRetryDelay"`

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
		keyPrefix:        cfgDefaultKeyPrefix,
		MaxItemsPerOwner: DefaultMaxItemsPerOwner,
		DrainInterval:    DefaultDrainInterval,
		MaxAttempts:      DefaultMaxAttempts,
		BaseRetryDelay:   DefaultBaseRetryDelay,
		MaxRetryDelay:    DefaultMaxRetryDelay,
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
	dp.SetDefault(cfgKeyMaxItemsPerOwner, DefaultMaxItemsPerOwner)
	dp.SetDefault(cfgKeyDrainInterval, DefaultDrainInterval)
	dp.SetDefault(cfgKeyMaxAttempts, DefaultMaxAttempts)
	dp.SetDefault(cfgKeyBaseRetryDelay, DefaultBaseRetryDelay)
	dp.SetDefault(cfgKeyMaxRetryDelay, DefaultMaxRetryDelay)
}

// Set sets configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.MaxItemsPerOwner, err = dp.GetInt(cfgKeyMaxItemsPerOwner); err != nil {
		return err
	}
	if c.MaxItemsPerOwner <= 0 {
		return config.WrapKeyErr(cfgKeyMaxItemsPerOwner, fmt.Errorf("must be positive, got %d", c.MaxItemsPerOwner))
	}

	if c.DrainInterval, err = dp.GetDuration(cfgKeyDrainInterval); err != nil {
		return err
	}
	if c.DrainInterval <= 0 {
		return config.WrapKeyErr(cfgKeyDrainInterval, fmt.Errorf("must be positive, got %s", c.DrainInterval))
	}

	if c.MaxAttempts, err = dp.GetInt(cfgKeyMaxAttempts); err != nil {
		return err
	}
	if c.MaxAttempts <= 0 {
		return config.WrapKeyErr(cfgKeyMaxAttempts, fmt.Errorf("must be positive, got %d", c.MaxAttempts))
	}

	if c.BaseRetryDelay, err = dp.GetDuration(cfgKeyBaseRetryDelay); err != nil {
		return err
	}
	if c.BaseRetryDelay <= 0 {
		return config.WrapKeyErr(cfgKeyBaseRetryDelay, fmt.Errorf("must be positive, got %s", c.BaseRetryDelay))
	}

	if c.MaxRetryDelay, err = dp.GetDuration(cfgKeyMaxRetryDelay); err != nil {
		return err
	}
	if c.MaxRetryDelay < c.BaseRetryDelay {
		return config.WrapKeyErr(cfgKeyMaxRetryDelay,
			fmt.Errorf("must be >= %s (base retry delay), got %s", c.BaseRetryDelay, c.MaxRetryDelay))
	}

	return nil
}
