/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package session

import (
	"fmt"
	"time"

	"github.com/acronis/go-quotagate/config"
)

const cfgDefaultKeyPrefix = "session"

const (
	cfgKeyTTL             = "ttl"
	cfgKeyMaxEntries      = "maxEntries"
	cfgKeyCleanupInterval = "cleanupInterval"
)

// Default values.
const (
	DefaultTTL             = 24 * time.Hour
	DefaultMaxEntries      = 10000
	DefaultCleanupInterval = 5 * time.Minute
)

// Config represents a set of configuration parameters for the session store.
type Config struct {
	// TTL is a lifetime of the issued session token.
	TTL config.TimeDuration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`

	// MaxEntries is a maximum number of live sessions.
	// When it's reached, issuing a new token evicts the least recently used one.
	MaxEntries int `mapstructure:"maxEntries" yaml:"maxEntries" json:"maxEntries"`

	// CleanupInterval is an interval of removing expired sessions.
	CleanupInterval config.TimeDuration `mapstructure:"cleanupInterval" yaml:"cleanupInterval" json:"cleanupInterval"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.TTL = config.TimeDuration(DefaultTTL)
	cfg.MaxEntries = DefaultMaxEntries
	cfg.CleanupInterval = config.TimeDuration(DefaultCleanupInterval)
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the session store in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyTTL, DefaultTTL)
	dp.SetDefault(cfgKeyMaxEntries, DefaultMaxEntries)
	dp.SetDefault(cfgKeyCleanupInterval, DefaultCleanupInterval)
}

// Set sets the session store configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	ttl, err := dp.GetDuration(cfgKeyTTL)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return dp.WrapKeyErr(cfgKeyTTL, fmt.Errorf("should be positive"))
	}
	c.TTL = config.TimeDuration(ttl)

	if c.MaxEntries, err = dp.GetInt(cfgKeyMaxEntries); err != nil {
		return err
	}
	if c.MaxEntries <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxEntries, fmt.Errorf("should be positive"))
	}

	interval, err := dp.GetDuration(cfgKeyCleanupInterval)
	if err != nil {
		return err
	}
	if interval <= 0 {
		return dp.WrapKeyErr(cfgKeyCleanupInterval, fmt.Errorf("should be positive"))
	}
	c.CleanupInterval = config.TimeDuration(interval)

	return nil
}
