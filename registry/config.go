/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package registry

import (
	"io"

	"github.com/vizionik25/CodeRevAI-sub001/circuitbreaker"
	"github.com/vizionik25/CodeRevAI-sub001/config"
	"github.com/vizionik25/CodeRevAI-sub001/log"
	"github.com/vizionik25/CodeRevAI-sub001/ratelimit"
	"github.com/vizionik25/CodeRevAI-sub001/redisclient"
	"github.com/vizionik25/CodeRevAI-sub001/retryqueue"
)

// Config aggregates configuration of all components owned by the Registry.
type Config struct {
	Log            *log.Config            `mapstructure:"log" yaml:"log" json:"log"`
	Redis          *redisclient.Config    `mapstructure:"redis" yaml:"redis" json:"redis"`
	RateLimit      *ratelimit.Config      `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`
	CircuitBreaker *circuitbreaker.Config `mapstructure:"circuitBreaker" yaml:"circuitBreaker" json:"circuitBreaker"`
	RetryQueue     *retryqueue.Config     `mapstructure:"retryQueue" yaml:"retryQueue" json:"retryQueue"`
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{
		Log:            log.NewConfig(),
		Redis:          redisclient.NewConfig(),
		RateLimit:      ratelimit.NewConfig(),
		CircuitBreaker: circuitbreaker.NewConfig(),
		RetryQueue:     retryqueue.NewConfig(),
	}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Log:            log.NewDefaultConfig(),
		Redis:          redisclient.NewDefaultConfig(),
		RateLimit:      ratelimit.NewDefaultConfig(),
		CircuitBreaker: circuitbreaker.NewDefaultConfig(),
		RetryQueue:     retryqueue.NewDefaultConfig(),
	}
}

// LoadConfigFromReader loads the aggregate configuration from the reader,
// allowing overrides from environment variables with the given prefix.
func LoadConfigFromReader(reader io.Reader, dataType config.DataType, envVarsPrefix string) (*Config, error) {
	cfg := NewConfig()
	loader := config.NewDefaultLoader(envVarsPrefix)
	err := loader.LoadFromReader(reader, dataType,
		cfg.Log, cfg.Redis, cfg.RateLimit, cfg.CircuitBreaker, cfg.RetryQueue)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromFile loads the aggregate configuration from the file,
// allowing overrides from environment variables with the given prefix.
func LoadConfigFromFile(path string, dataType config.DataType, envVarsPrefix string) (*Config, error) {
	cfg := NewConfig()
	loader := config.NewDefaultLoader(envVarsPrefix)
	err := loader.LoadFromFile(path, dataType,
		cfg.Log, cfg.Redis, cfg.RateLimit, cfg.CircuitBreaker, cfg.RetryQueue)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
