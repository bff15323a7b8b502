/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads quotagate configuration from YAML/JSON files and environment variables.
// Each component owns a Config object that knows its defaults, key prefix and validation rules.
package config

import "reflect"

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// dataProviderFor returns a data provider scoped by the key prefix of cfg (if any).
func dataProviderFor(cfg interface{}, dp DataProvider) DataProvider {
	if kp, ok := cfg.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
	}
	return dp
}

// CallSetProviderDefaultsForFields finds all initialized (non-nil) exported fields of obj
// that implement Config interface and calls SetProviderDefaults() for each of them.
func CallSetProviderDefaultsForFields(obj interface{}, dp DataProvider) {
	forEachConfigField(obj, func(c Config) bool {
		c.SetProviderDefaults(dataProviderFor(c, dp))
		return true
	})
}

// CallSetForFields finds all initialized (non-nil) exported fields of obj
// that implement Config interface and calls Set() for each of them.
// It stops on the first error.
func CallSetForFields(obj interface{}, dp DataProvider) error {
	var err error
	forEachConfigField(obj, func(c Config) bool {
		err = c.Set(dataProviderFor(c, dp))
		return err == nil
	})
	return err
}

func forEachConfigField(obj interface{}, fn func(c Config) bool) {
	el := reflect.ValueOf(obj).Elem()
	for i := 0; i < el.NumField(); i++ {
		if !el.Type().Field(i).IsExported() {
			continue
		}
		field := el.Field(i)
		if field.Kind() == reflect.Ptr && field.IsNil() {
			continue
		}
		c, ok := field.Interface().(Config)
		if !ok {
			continue
		}
		if !fn(c) {
			return
		}
	}
}
