/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/log/logtest"
	"github.com/acronis/go-quotagate/restapi"
	"github.com/acronis/go-quotagate/testutil"
)

func TestIdentityHandler_ServeHTTP(t *testing.T) {
	const errDomain = "Quotagate"

	resolveFromHeader := IdentityResolverFunc(func(r *http.Request) (string, error) {
		if r.Header.Get("X-Broken") != "" {
			return "", errors.New("storage is unavailable")
		}
		return r.Header.Get("X-User"), nil
	})

	var gotIdentity string
	next := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotIdentity = GetIdentityFromContext(r.Context())
	})

	t.Run("known identity", func(t *testing.T) {
		logger := logtest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", "Morteza")
		// The final log entry gets the identity through LoggingParams.
		LoggingWithOpts(logger, LoggingOpts{})(Identity(resolveFromHeader, errDomain)(next)).ServeHTTP(httptest.NewRecorder(), req)
		require.Equal(t, "Morteza", gotIdentity)
		entries := logger.Entries()
		require.Len(t, entries, 1)
		requireLogFieldString(t, entries[0], IdentityLogFieldKey, "Morteza")
	})

	t.Run("anonymous", func(t *testing.T) {
		Identity(resolveFromHeader, errDomain)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, admission.AnonymousIdentity, gotIdentity)
	})

	t.Run("resolving error", func(t *testing.T) {
		gotIdentity = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Broken", "1")
		resp := httptest.NewRecorder()
		Identity(resolveFromHeader, errDomain)(next).ServeHTTP(resp, req)
		testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, errDomain, restapi.ErrCodeInternal)
		require.Empty(t, gotIdentity)
	})
}
