/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/log/logtest"
	"github.com/acronis/go-quotagate/restapi"
	"github.com/acronis/go-quotagate/testutil"
)

func TestRecoveryHandler_ServeHTTP(t *testing.T) {
	const errDomain = "Quotagate"

	panicking := func(v interface{}) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) { panic(v) })
	}

	t.Run("recovery w/o logger", func(t *testing.T) {
		resp := httptest.NewRecorder()
		handler := Recovery(errDomain)(panicking("test"))
		require.NotPanics(t, func() { handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil)) })
		testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, errDomain, restapi.ErrCodeInternal)
	})

	t.Run("recovery with logger", func(t *testing.T) {
		const stackSize = 10
		logger := logtest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(NewContextWithLogger(req.Context(), logger))
		resp := httptest.NewRecorder()
		handler := RecoveryWithOpts(errDomain, RecoveryOpts{StackSize: stackSize})(panicking("test"))

		require.NotPanics(t, func() { handler.ServeHTTP(resp, req) })
		testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, errDomain, restapi.ErrCodeInternal)

		entry, found := logger.FindEntry("Panic: test")
		require.True(t, found)
		require.Equal(t, log.LevelError, entry.Level)
		field, found := entry.FindField("stack")
		require.True(t, found)
		require.Len(t, field.Bytes, stackSize)
	})

	t.Run("http.ErrAbortHandler is propagated", func(t *testing.T) {
		logger := logtest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(NewContextWithLogger(req.Context(), logger))
		handler := Recovery(errDomain)(panicking(http.ErrAbortHandler))

		require.Panics(t, func() { handler.ServeHTTP(httptest.NewRecorder(), req) })
		entry, found := logger.FindEntry("request has been aborted")
		require.True(t, found)
		require.Equal(t, log.LevelWarn, entry.Level)
	})
}
