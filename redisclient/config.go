/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package redisclient

import (
	"fmt"
	"time"

	"github.com/vizionik25/CodeRevAI-sub001/config"
)

const cfgDefaultKeyPrefix = "redis"

const (
	cfgKeyAddress      = "address"
	cfgKeyPassword     = "password"
	cfgKeyDatabase     = "database"
	cfgKeyDialTimeout  = "timeouts.dial"
	cfgKeyReadTimeout  = "timeouts.read"
	cfgKeyWriteTimeout = "timeouts.write"
)

// Default values.
const (
	DefaultAddress      = "127.0.0.1:6379"
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// TimeoutsConfig is a configuration for the client's network timeouts.
type TimeoutsConfig struct {
	Dial  config.TimeDuration `mapstructure:"dial" yaml:"dial" json:"dial"`
	Read  config.TimeDuration `mapstructure:"read" yaml:"read" json:"read"`
	Write config.TimeDuration `mapstructure:"write" yaml:"write" json:"write"`
}

// Config represents a set of configuration parameters for the shared counter store client.
type Config struct {
	Address  string         `mapstructure:"address" yaml:"address" json:"address"`
	Password string         `mapstructure:"password" yaml:"password" json:"password"`
	Database int            `mapstructure:"database" yaml:"database" json:"database"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`

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
		keyPrefix: cfgDefaultKeyPrefix,
		Address:   DefaultAddress,
		Timeouts: TimeoutsConfig{
			Dial:  config.TimeDuration(DefaultDialTimeout),
			Read:  config.TimeDuration(DefaultReadTimeout),
			Write: config.TimeDuration(DefaultWriteTimeout),
		},
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
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyDialTimeout, DefaultDialTimeout)
	dp.SetDefault(cfgKeyReadTimeout, DefaultReadTimeout)
	dp.SetDefault(cfgKeyWriteTimeout, DefaultWriteTimeout)
}

// Set sets configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.Address == "" {
		return config.WrapKeyErr(cfgKeyAddress, fmt.Errorf("cannot be empty"))
	}
	if c.Password, err = dp.GetString(cfgKeyPassword); err != nil {
		return err
	}
	if c.Database, err = dp.GetInt(cfgKeyDatabase); err != nil {
		return err
	}
	var dur time.Duration
	if dur, err = dp.GetDuration(cfgKeyDialTimeout); err != nil {
		return err
	}
	c.Timeouts.Dial = config.TimeDuration(dur)
	if dur, err = dp.GetDuration(cfgKeyReadTimeout); err != nil {
		return err
	}
	c.Timeouts.Read = config.TimeDuration(dur)
	if dur, err = dp.GetDuration(cfgKeyWriteTimeout); err != nil {
		return err
	}
	c.Timeouts.Write = config.TimeDuration(dur)

	return nil
}
