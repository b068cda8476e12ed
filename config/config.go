/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import "fmt"

// Config is a common interface for configuration objects that may be used by Loader.
// Every component configuration in this module is key-prefixed: its parameters
// live under a dedicated section of the shared configuration source.
type Config interface {
	KeyPrefixProvider
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// WrapKeyErrIfNeeded wraps error adding information about a key where this error occurs.
// If error is nil, it does nothing.
func WrapKeyErrIfNeeded(key string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKeyErr(key, err)
}

// WrapKeyErr wraps error adding information about a key where this error occurs.
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}
