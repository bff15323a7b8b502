/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"fmt"
	"time"

	"github.com/acronis/go-quotagate/config"
)

const cfgDefaultKeyPrefix = "admission"

const (
	cfgKeyWindow             = "window"
	cfgKeyAnonymousCeiling   = "anonymousCeiling"
	cfgKeyCountRejected      = "countRejected"
	cfgKeyIdentities         = "identities"
	cfgKeyIncludedIdentities = "includedIdentities"
	cfgKeyExcludedIdentities = "excludedIdentities"
	cfgKeySweepEnabled       = "sweep.enabled"
	cfgKeySweepInterval      = "sweep.interval"
)

// Config represents a set of configuration parameters for the admission control.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	// Window is a duration of the quota window.
	Window config.TimeDuration `mapstructure:"window" yaml:"window" json:"window"`

	// AnonymousCeiling is a number of requests per window for the anonymous and all unknown identities.
	AnonymousCeiling int `mapstructure:"anonymousCeiling" yaml:"anonymousCeiling" json:"anonymousCeiling"`

	// CountRejected determines whether rejected attempts are counted against the quota.
	CountRejected bool `mapstructure:"countRejected" yaml:"countRejected" json:"countRejected"`

	// Identities is a priority table. The list form is used (instead of a map)
	// because configuration keys are case-insensitive while identities are not.
	Identities []IdentityConfig `mapstructure:"identities" yaml:"identities" json:"identities"`

	// IncludedIdentities is a list of identity glob patterns the admission is applied to.
	// If empty, the admission is applied to all identities except the excluded ones.
	IncludedIdentities []string `mapstructure:"includedIdentities" yaml:"includedIdentities" json:"includedIdentities"`

	// ExcludedIdentities is a list of identity glob patterns that bypass the admission.
	ExcludedIdentities []string `mapstructure:"excludedIdentities" yaml:"excludedIdentities" json:"excludedIdentities"`

	Sweep SweepConfig `mapstructure:"sweep" yaml:"sweep" json:"sweep"`

	keyPrefix string
}

// IdentityConfig is a configuration of a single identity's priority.
type IdentityConfig struct {
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	Ceiling int    `mapstructure:"ceiling" yaml:"ceiling" json:"ceiling"`
}

// SweepConfig is a configuration for periodic sweeping of expired quota states.
type SweepConfig struct {
	Enabled  bool                `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Interval config.TimeDuration `mapstructure:"interval" yaml:"interval" json:"interval"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
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
	cfg.Window = config.TimeDuration(DefaultWindow)
	cfg.AnonymousCeiling = DefaultAnonymousCeiling
	cfg.CountRejected = true
	cfg.Sweep = SweepConfig{Enabled: true, Interval: config.TimeDuration(DefaultWindow)}
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the admission control in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyWindow, DefaultWindow)
	dp.SetDefault(cfgKeyAnonymousCeiling, DefaultAnonymousCeiling)
	dp.SetDefault(cfgKeyCountRejected, true)
	dp.SetDefault(cfgKeySweepEnabled, true)
	dp.SetDefault(cfgKeySweepInterval, DefaultWindow)
}

// Set sets the admission configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	var dur time.Duration

	if dur, err = dp.GetDuration(cfgKeyWindow); err != nil {
		return err
	}
	if dur <= 0 {
		return dp.WrapKeyErr(cfgKeyWindow, fmt.Errorf("should be positive"))
	}
	c.Window = config.TimeDuration(dur)

	if c.AnonymousCeiling, err = dp.GetInt(cfgKeyAnonymousCeiling); err != nil {
		return err
	}
	if c.AnonymousCeiling <= 0 {
		return dp.WrapKeyErr(cfgKeyAnonymousCeiling, fmt.Errorf("should be positive"))
	}

	if c.CountRejected, err = dp.GetBool(cfgKeyCountRejected); err != nil {
		return err
	}

	c.Identities = nil
	if err = dp.UnmarshalKey(cfgKeyIdentities, &c.Identities); err != nil {
		return err
	}
	if err = validateIdentities(c.Identities); err != nil {
		return dp.WrapKeyErr(cfgKeyIdentities, err)
	}

	if c.IncludedIdentities, err = dp.GetStringSlice(cfgKeyIncludedIdentities); err != nil {
		return err
	}
	if c.ExcludedIdentities, err = dp.GetStringSlice(cfgKeyExcludedIdentities); err != nil {
		return err
	}
	if len(c.IncludedIdentities) != 0 && len(c.ExcludedIdentities) != 0 {
		return dp.WrapKeyErr(cfgKeyIncludedIdentities,
			fmt.Errorf("cannot be used together with %q", cfgKeyExcludedIdentities))
	}

	return c.setSweepConfig(dp)
}

func (c *Config) setSweepConfig(dp config.DataProvider) error {
	var err error
	if c.Sweep.Enabled, err = dp.GetBool(cfgKeySweepEnabled); err != nil {
		return err
	}
	var dur time.Duration
	if dur, err = dp.GetDuration(cfgKeySweepInterval); err != nil {
		return err
	}
	if c.Sweep.Enabled && dur <= 0 {
		return dp.WrapKeyErr(cfgKeySweepInterval, fmt.Errorf("should be positive when sweeping is enabled"))
	}
	c.Sweep.Interval = config.TimeDuration(dur)
	return nil
}

// Ceilings returns the priority table as an identity->ceiling map.
func (c *Config) Ceilings() map[string]int {
	res := make(map[string]int, len(c.Identities))
	for _, identity := range c.Identities {
		res[identity.Name] = identity.Ceiling
	}
	return res
}

// ConsumePolicy returns the consume policy that corresponds to the configuration.
func (c *Config) ConsumePolicy() ConsumePolicy {
	if c.CountRejected {
		return ConsumeAlways
	}
	return ConsumeOnAdmit
}

func validateIdentities(identities []IdentityConfig) error {
	seen := make(map[string]struct{}, len(identities))
	for i, identity := range identities {
		if err := validateIdentityCeiling(identity.Name, identity.Ceiling); err != nil {
			return fmt.Errorf("#%d: %w", i, err)
		}
		if _, ok := seen[identity.Name]; ok {
			return fmt.Errorf("#%d: duplicated identity %q", i, identity.Name)
		}
		seen[identity.Name] = struct{}{}
	}
	return nil
}
