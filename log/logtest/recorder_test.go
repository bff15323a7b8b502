/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/log"
)

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()
	logger := recorder.With(log.String("identity", "alice"))

	logger.Info("request admitted", log.Int("remaining", 4))
	logger.Warnf("request rejected, retry in %ds", 50)
	recorder.Debug("expired quota states swept")

	entries := recorder.Entries()
	require.Len(t, entries, 3)

	entry, found := recorder.FindEntry("request admitted")
	require.True(t, found)
	require.Equal(t, log.LevelInfo, entry.Level)
	identity, found := entry.FindField("identity")
	require.True(t, found)
	require.Equal(t, "alice", string(identity.Bytes))
	remaining, found := entry.FindField("remaining")
	require.True(t, found)
	require.Equal(t, int64(4), remaining.Int)

	entry, found = recorder.FindEntry("request rejected, retry in 50s")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)

	_, found = recorder.FindEntry("unknown")
	require.False(t, found)

	debugEntries := recorder.FindAllEntriesByFilter(func(e RecordedEntry) bool { return e.Level == log.LevelDebug })
	require.Len(t, debugEntries, 1)

	recorder.Reset()
	require.Empty(t, recorder.Entries())
}
