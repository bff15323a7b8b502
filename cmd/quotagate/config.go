/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"io"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/config"
	"github.com/acronis/go-quotagate/httpserver"
	"github.com/acronis/go-quotagate/internal/api"
	"github.com/acronis/go-quotagate/internal/ratelimit"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/profserver"
	"github.com/acronis/go-quotagate/session"
)

// Environment variables override the configuration file, e.g. QUOTAGATE_ADMISSION_WINDOW=30s.
const envVarsPrefix = "quotagate"

// AppConfig is a configuration of the whole application.
type AppConfig struct {
	Log         *log.Config
	Server      *httpserver.Config
	ProfServer  *profserver.Config
	Admission   *admission.Config
	GlobalLimit *ratelimit.Config
	Session     *session.Config
	Admin       *api.AdminConfig
}

var _ config.Config = (*AppConfig)(nil)

// NewAppConfig creates a new instance of the AppConfig.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:         log.NewConfig(),
		Server:      httpserver.NewConfig(),
		ProfServer:  profserver.NewConfig(),
		Admission:   admission.NewConfig(),
		GlobalLimit: ratelimit.NewConfig(""),
		Session:     session.NewConfig(),
		Admin:       api.NewAdminConfig(),
	}
}

// SetProviderDefaults sets default configuration values for all parts of the application.
func (c *AppConfig) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

// Set sets the configuration values of all parts of the application.
func (c *AppConfig) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}

// loadAppConfig loads the configuration from the YAML file (if path is not empty) and environment variables.
func loadAppConfig(path string) (*AppConfig, error) {
	cfg := NewAppConfig()
	loader := config.NewDefaultLoader(envVarsPrefix)
	if path == "" {
		return cfg, loader.Load(cfg)
	}
	return cfg, loader.LoadFromFile(path, config.DataTypeYAML, cfg)
}

func loadAppConfigFromReader(r io.Reader) (*AppConfig, error) {
	cfg := NewAppConfig()
	return cfg, config.NewDefaultLoader(envVarsPrefix).LoadFromReader(r, config.DataTypeYAML, cfg)
}
