/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package profserver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/config"
)

func TestConfig(t *testing.T) {
	load := func(data string) (*Config, error) {
		cfg := NewConfig()
		return cfg, config.NewLoader(config.NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(data), config.DataTypeYAML, cfg)
	}

	cfg, err := load(`{}`)
	require.NoError(t, err)
	require.False(t, cfg.Enabled)
	require.Equal(t, defaultAddress, cfg.Address)

	cfg, err = load(`profserver: {enabled: true, address: "0.0.0.0:6060"}`)
	require.NoError(t, err)
	require.True(t, cfg.Enabled)
	require.Equal(t, "0.0.0.0:6060", cfg.Address)

	cfg = NewConfig(WithKeyPrefix("debug.prof"))
	err = config.NewLoader(config.NewViperAdapter()).LoadFromReader(
		bytes.NewBufferString(`debug: {prof: {enabled: true}}`), config.DataTypeYAML, cfg)
	require.NoError(t, err)
	require.True(t, cfg.Enabled)
	require.Equal(t, defaultAddress, cfg.Address)

	_, err = load(`profserver: {enabled: true, address: ""}`)
	require.ErrorContains(t, err, "profserver.address: cannot be empty")
}
