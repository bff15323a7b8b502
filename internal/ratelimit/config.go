/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"fmt"
	"time"

	"github.com/acronis/go-quotagate/config"
)

const cfgDefaultKeyPrefix = "globalLimit"

const (
	cfgKeyEnabled        = "enabled"
	cfgKeyAlg            = "alg"
	cfgKeyRate           = "rate"
	cfgKeyBurst          = "burst"
	cfgKeyBacklogLimit   = "backlog.limit"
	cfgKeyBacklogTimeout = "backlog.timeout"
)

// Alg is a rate limiting algorithm.
type Alg string

// Supported rate limiting algorithms.
const (
	AlgLeakyBucket   Alg = "leaky_bucket"
	AlgSlidingWindow Alg = "sliding_window"
)

// Config represents a set of configuration parameters for the process-wide guard.
type Config struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Alg     Alg           `mapstructure:"alg" yaml:"alg" json:"alg"`
	Rate    Rate          `mapstructure:"rate" yaml:"rate" json:"rate"`
	Burst   int           `mapstructure:"burst" yaml:"burst" json:"burst"`
	Backlog BacklogConfig `mapstructure:"backlog" yaml:"backlog" json:"backlog"`

	keyPrefix string
}

// BacklogConfig is a configuration of the backlog where requests over the rate wait for a free slot.
type BacklogConfig struct {
	Limit   int                 `mapstructure:"limit" yaml:"limit" json:"limit"`
	Timeout config.TimeDuration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
// Non-empty keyPrefix overrides the default "globalLimit" one.
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
// The guard is disabled by default.
func NewDefaultConfig() *Config {
	return &Config{
		Alg:     AlgLeakyBucket,
		Backlog: BacklogConfig{Timeout: config.TimeDuration(DefaultBacklogTimeout)},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the guard in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEnabled, false)
	dp.SetDefault(cfgKeyAlg, string(AlgLeakyBucket))
	dp.SetDefault(cfgKeyBurst, 0)
	dp.SetDefault(cfgKeyBacklogLimit, 0)
	dp.SetDefault(cfgKeyBacklogTimeout, DefaultBacklogTimeout)
}

// Set sets the guard configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}

	var alg string
	if alg, err = dp.GetStringFromSet(cfgKeyAlg, []string{string(AlgLeakyBucket), string(AlgSlidingWindow)}, false); err != nil {
		return err
	}
	c.Alg = Alg(alg)

	var rate string
	if rate, err = dp.GetString(cfgKeyRate); err != nil {
		return err
	}
	c.Rate = Rate{}
	if rate != "" {
		if c.Rate, err = ParseRate(rate); err != nil {
			return dp.WrapKeyErr(cfgKeyRate, err)
		}
	}
	if c.Enabled && c.Rate.Count == 0 {
		return dp.WrapKeyErr(cfgKeyRate, fmt.Errorf("is required when the global limit is enabled"))
	}

	if c.Burst, err = dp.GetInt(cfgKeyBurst); err != nil {
		return err
	}
	if c.Burst < 0 {
		return dp.WrapKeyErr(cfgKeyBurst, fmt.Errorf("should not be negative"))
	}

	if c.Backlog.Limit, err = dp.GetInt(cfgKeyBacklogLimit); err != nil {
		return err
	}
	if c.Backlog.Limit < 0 {
		return dp.WrapKeyErr(cfgKeyBacklogLimit, fmt.Errorf("should not be negative"))
	}
	var timeout time.Duration
	if timeout, err = dp.GetDuration(cfgKeyBacklogTimeout); err != nil {
		return err
	}
	if timeout < 0 {
		return dp.WrapKeyErr(cfgKeyBacklogTimeout, fmt.Errorf("should not be negative"))
	}
	c.Backlog.Timeout = config.TimeDuration(timeout)

	return nil
}

// NewLimiter creates a limiter for the configured algorithm.
func NewLimiter(cfg *Config) (Limiter, error) {
	switch cfg.Alg {
	case AlgSlidingWindow:
		return NewSlidingWindowLimiter(cfg.Rate)
	case AlgLeakyBucket, "":
		return NewLeakyBucketLimiter(cfg.Rate, cfg.Burst)
	}
	return nil, fmt.Errorf("unknown rate limiting algorithm %q", cfg.Alg)
}

// NewRequestProcessorFromConfig creates a RequestProcessor with the limiter and the backlog described by cfg.
func NewRequestProcessorFromConfig(cfg *Config) (*RequestProcessor, error) {
	limiter, err := NewLimiter(cfg)
	if err != nil {
		return nil, err
	}
	return NewRequestProcessor(limiter, BacklogParams{Limit: cfg.Backlog.Limit, Timeout: time.Duration(cfg.Backlog.Timeout)})
}
