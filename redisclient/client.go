/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package redisclient constructs a client for the shared counter store.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a new Redis client based on the passed configuration.
func New(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  time.Duration(cfg.Timeouts.Dial),
		ReadTimeout:  time.Duration(cfg.Timeouts.Read),
		WriteTimeout: time.Duration(cfg.Timeouts.Write),
	})
}

// CheckConnection pings the store and returns an error if it is unreachable.
func CheckConnection(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
