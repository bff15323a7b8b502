/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package session

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/config"
)

func TestConfig(t *testing.T) {
	load := func(data string) (*Config, error) {
		cfg := NewConfig()
		return cfg, config.NewLoader(config.NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(data), config.DataTypeYAML, cfg)
	}

	t.Run("defaults", func(t *testing.T) {
		cfg, err := load(`{}`)
		require.NoError(t, err)
		want := NewDefaultConfig()
		require.Equal(t, want.TTL, cfg.TTL)
		require.Equal(t, want.MaxEntries, cfg.MaxEntries)
		require.Equal(t, want.CleanupInterval, cfg.CleanupInterval)
	})

	t.Run("custom", func(t *testing.T) {
		cfg, err := load(`session: {ttl: 1h, maxEntries: 50, cleanupInterval: 30s}`)
		require.NoError(t, err)
		require.Equal(t, time.Hour, cfg.TTL.Duration())
		require.Equal(t, 50, cfg.MaxEntries)
		require.Equal(t, 30*time.Second, cfg.CleanupInterval.Duration())
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			data    string
			wantErr string
		}{
			{`session: {ttl: 0s}`, "session.ttl: should be positive"},
			{`session: {maxEntries: -1}`, "session.maxEntries: should be positive"},
			{`session: {cleanupInterval: -1s}`, "session.cleanupInterval: should be positive"},
		}
		for _, tt := range tests {
			_, err := load(tt.data)
			require.EqualError(t, err, tt.wantErr)
		}
	})
}
