/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/acronis/go-quotagate/restapi"
)

type requestBodyLimitHandler struct {
	next         http.Handler
	maxSizeBytes uint64
	errorDomain  string
}

// RequestBodyLimit is a middleware that sets the maximum allowed size for a request body.
// Requests with a larger Content-Length are rejected with 413 at once,
// reading more than maxSizeBytes from the body fails.
func RequestBodyLimit(maxSizeBytes uint64, errDomain string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &requestBodyLimitHandler{next, maxSizeBytes, errDomain}
	}
}

func (h *requestBodyLimitHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.ContentLength > int64(h.maxSizeBytes) { //nolint:gosec // maxSizeBytes is a reasonable value
		restapi.RespondMalformedRequestOrInternalError(rw, h.errorDomain,
			restapi.NewTooLargeMalformedRequestError(h.maxSizeBytes), GetLoggerFromContext(r.Context()))
		return
	}
	r.Body = http.MaxBytesReader(rw, r.Body, int64(h.maxSizeBytes)) //nolint:gosec
	h.next.ServeHTTP(rw, r)
}
