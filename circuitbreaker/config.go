/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package circuitbreaker

import (
	"fmt"
	"time"

	"github.com/vizionik25/CodeRevAI-sub001/config"
)

const cfgDefaultKeyPrefix = "circuitBreaker"

const (
	cfgKeyFailureThreshold = "failureThreshold"
	cfgKeyCoolDownPeriod   = "coolDownPeriod"
)

// Default values.
const (
	DefaultFailureThreshold = 5
	DefaultCoolDownPeriod   = 30 * time.Second
)

// Config represents a set of configuration parameters for the circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures after which the breaker trips open.
	FailureThreshold int `mapstructure:"failureThreshold" yaml:"failureThreshold" json:"failureThreshold"`

	// CoolDownPeriod is how long the breaker stays open before a probe call is allowed through.
	CoolDownPeriod time.Duration `mapstructure:"coolDownPeriod" yaml:"coolDownPeriod" json:"coolDownPeriod"`

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
		FailureThreshold: DefaultFailureThreshold,
		CoolDownPeriod:   DefaultCoolDownPeriod,
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
	dp.SetDefault(cfgKeyFailureThreshold, DefaultFailureThreshold)
	dp.SetDefault(cfgKeyCoolDownPeriod, DefaultCoolDownPeriod)
}

// Set sets configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.FailureThreshold, err = dp.GetInt(cfgKeyFailureThreshold); err != nil {
		return err
	}
	if c.FailureThreshold <= 0 {
		return config.WrapKeyErr(cfgKeyFailureThreshold, fmt.Errorf("must be positive, got %d", c.FailureThreshold))
	}

	if c.CoolDownPeriod, err = dp.GetDuration(cfgKeyCoolDownPeriod); err != nil {
		return err
	}
	if c.CoolDownPeriod <= 0 {
		return config.WrapKeyErr(cfgKeyCoolDownPeriod, fmt.Errorf("must be positive, got %s", c.CoolDownPeriod))
	}

	return nil
}
