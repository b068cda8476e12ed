/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"io"
)

// Loader reads a configuration source once and populates any number of
// key-prefixed component configurations from it. For each configuration the
// provider defaults are registered first, so a key absent from the source
// falls back to the component's default rather than the type's zero value.
type Loader struct {
	DataProvider DataProvider
}

// NewDefaultLoader creates a new configurations loader with an ability to read values from the environment variables.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a new configurations' loader.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{dp}
}

// LoadFromFile loads configuration values from file and sets them in configuration objects.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfgs ...Config) error {
	if err := l.DataProvider.SetFromFile(path, dataType); err != nil {
		return err
	}
	return l.load(cfgs)
}

// LoadFromReader loads configuration values from reader and sets them in configuration objects.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfgs ...Config) error {
	if err := l.DataProvider.SetFromReader(reader, dataType); err != nil {
		return err
	}
	return l.load(cfgs)
}

// load populates each configuration from its own key-prefixed view of the
// shared provider. Sections are disjoint, so each configuration's defaults
// and values are applied independently of the others.
func (l *Loader) load(cfgs []Config) error {
	for _, cfg := range cfgs {
		dp := NewKeyPrefixedDataProvider(l.DataProvider, cfg.KeyPrefix())
		cfg.SetProviderDefaults(dp)
		if err := cfg.Set(dp); err != nil {
			return err
		}
	}
	return nil
}
