/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package api

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/config"
)

func TestAdminConfig(t *testing.T) {
	cfg := NewAdminConfig()
	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), config.DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Empty(t, cfg.Token)

	cfg = NewAdminConfig()
	err = config.NewLoader(config.NewViperAdapter()).LoadFromReader(
		bytes.NewBufferString(`admin: {token: "s3cr3t"}`), config.DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", cfg.Token)
}
