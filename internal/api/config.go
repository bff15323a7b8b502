/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package api

import (
	"github.com/acronis/go-quotagate/config"
)

const cfgDefaultAdminKeyPrefix = "admin"

const cfgKeyAdminToken = "token"

// AdminConfig represents a set of configuration parameters for the administrative endpoints.
type AdminConfig struct {
	// Token is a bearer token required by the /admin endpoints. They are disabled if it's empty.
	Token string `mapstructure:"token" yaml:"token" json:"token"`
}

var _ config.Config = (*AdminConfig)(nil)
var _ config.KeyPrefixProvider = (*AdminConfig)(nil)

// NewAdminConfig creates a new instance of the AdminConfig.
func NewAdminConfig() *AdminConfig {
	return &AdminConfig{}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *AdminConfig) KeyPrefix() string {
	return cfgDefaultAdminKeyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *AdminConfig) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyAdminToken, "")
}

// Set sets the configuration values from config.DataProvider.
func (c *AdminConfig) Set(dp config.DataProvider) (err error) {
	c.Token, err = dp.GetString(cfgKeyAdminToken)
	return err
}
