/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testServerConfig struct {
	Address string
}

func (c *testServerConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("server.address", ":8080")
}

func (c *testServerConfig) Set(dp DataProvider) (err error) {
	c.Address, err = dp.GetString("server.address")
	return err
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("defaults are used", func(t *testing.T) {
		cfg := &testServerConfig{}
		require.NoError(t, NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, cfg))
		require.Equal(t, ":8080", cfg.Address)
	})

	t.Run("values override defaults", func(t *testing.T) {
		cfg := &testServerConfig{}
		data := bytes.NewBufferString(`{"server":{"address":":9090"}}`)
		require.NoError(t, NewLoader(NewViperAdapter()).LoadFromReader(data, DataTypeJSON, cfg))
		require.Equal(t, ":9090", cfg.Address)
	})

	t.Run("several configs with key prefix", func(t *testing.T) {
		srvCfg := &testServerConfig{}
		tierCfg := &testTierConfig{keyPrefix: "gate.tier"}
		data := bytes.NewBufferString(testGateConfigJSON)
		require.NoError(t, NewLoader(NewViperAdapter()).LoadFromReader(data, DataTypeJSON, srvCfg, tierCfg))
		require.Equal(t, ":8080", srvCfg.Address)
		require.Equal(t, "gold", tierCfg.Name)
		require.Equal(t, 5, tierCfg.Ceiling)
	})

	t.Run("malformed data", func(t *testing.T) {
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"server":`), DataTypeJSON, &testServerConfig{})
		require.Error(t, err)
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testGateConfigYAML), 0o600))

	tierCfg := &testTierConfig{keyPrefix: "gate.tier"}
	require.NoError(t, NewLoader(NewViperAdapter()).LoadFromFile(path, DataTypeYAML, tierCfg))
	require.Equal(t, "gold", tierCfg.Name)

	err := NewLoader(NewViperAdapter()).LoadFromFile(filepath.Join(t.TempDir(), "missing.yml"), DataTypeYAML, tierCfg)
	require.Error(t, err)
}

func TestNewDefaultLoader_EnvVars(t *testing.T) {
	t.Setenv("QUOTAGATETEST_SERVER_ADDRESS", ":7070")

	cfg := &testServerConfig{}
	require.NoError(t, NewDefaultLoader("quotagatetest").LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, cfg))
	require.Equal(t, ":7070", cfg.Address)
}

func TestLoader_Load(t *testing.T) {
	cfg := &testServerConfig{}
	require.NoError(t, NewLoader(NewViperAdapter()).Load(cfg))
	require.Equal(t, ":8080", cfg.Address)

	t.Setenv("QUOTAGATETEST_SERVER_ADDRESS", ":6060")
	cfg = &testServerConfig{}
	require.NoError(t, NewDefaultLoader("quotagatetest").Load(cfg))
	require.Equal(t, ":6060", cfg.Address)
}
