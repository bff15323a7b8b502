/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/admission"
)

func TestNewBypassFunc(t *testing.T) {
	t.Run("no patterns", func(t *testing.T) {
		bypass, err := NewBypassFunc(nil, nil)
		require.NoError(t, err)
		require.Nil(t, bypass)
	})

	t.Run("both included and excluded", func(t *testing.T) {
		_, err := NewBypassFunc([]string{"a"}, []string{"b"})
		require.Error(t, err)
	})

	t.Run("excluded", func(t *testing.T) {
		bypass, err := NewBypassFunc(nil, []string{"svc-*", "Ali"})
		require.NoError(t, err)
		require.True(t, bypass("svc-backup"))
		require.True(t, bypass("Ali"))
		require.False(t, bypass("Reza"))
		require.False(t, bypass(admission.AnonymousIdentity))
	})

	t.Run("included", func(t *testing.T) {
		bypass, err := NewBypassFunc([]string{"*"}, nil)
		require.NoError(t, err)
		require.False(t, bypass("Morteza"))

		bypass, err = NewBypassFunc([]string{"Mor*"}, nil)
		require.NoError(t, err)
		require.False(t, bypass("Morteza"))
		require.True(t, bypass("Reza"))
	})
}
