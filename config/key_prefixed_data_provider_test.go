/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPrefixedDataProvider(t *testing.T) {
	va := NewViperAdapter()
	var dp DataProvider = NewKeyPrefixedDataProvider(va, "gate")
	require.NoError(t, dp.SetFromReader(bytes.NewBufferString(testGateConfigYAML), DataTypeYAML))

	name, err := dp.GetString("name")
	require.NoError(t, err)
	require.Equal(t, "edge", name)

	dp.SetDefault("anonymousCeiling", 1)
	ceiling, err := va.GetInt("gate.anonymousCeiling")
	require.NoError(t, err)
	require.Equal(t, 1, ceiling)

	var tier struct {
		Name    string `mapstructure:"name"`
		Ceiling int    `mapstructure:"ceiling"`
	}
	require.NoError(t, dp.UnmarshalKey("tier", &tier))
	require.Equal(t, "gold", tier.Name)
	require.Equal(t, 5, tier.Ceiling)
}

func TestKeyPrefixedDataProvider_Nested(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(testGateConfigYAML), DataTypeYAML))
	dp := NewKeyPrefixedDataProvider(NewKeyPrefixedDataProvider(va, "gate"), "tier")

	ceiling, err := dp.GetInt("ceiling")
	require.NoError(t, err)
	require.Equal(t, 5, ceiling)

	err = dp.WrapKeyErr("ceiling", errors.New("should be positive"))
	require.EqualError(t, err, "gate.tier.ceiling: should be positive")
}
