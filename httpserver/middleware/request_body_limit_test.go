/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/testutil"
)

func TestRequestBodyLimitHandler_ServeHTTP(t *testing.T) {
	const errDomain = "Quotagate"
	const maxSize = 8

	var readErr error
	var called int
	next := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		called++
		_, readErr = io.ReadAll(r.Body)
	})
	handler := RequestBodyLimit(maxSize, errDomain)(next)

	t.Run("small body", func(t *testing.T) {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/", strings.NewReader("1234")))
		require.Equal(t, http.StatusOK, resp.Code)
		require.NoError(t, readErr)
	})

	t.Run("large Content-Length", func(t *testing.T) {
		called = 0
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/", strings.NewReader("123456789")))
		require.Equal(t, 0, called)
		testutil.RequireErrorInRecorder(t, resp, http.StatusRequestEntityTooLarge, errDomain, "requestEntityTooLarge")
	})

	t.Run("large body without Content-Length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader("123456789"))
		req.ContentLength = -1
		handler.ServeHTTP(httptest.NewRecorder(), req)
		var maxBytesErr *http.MaxBytesError
		require.ErrorAs(t, readErr, &maxBytesErr)
	})
}
