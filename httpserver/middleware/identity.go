/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/restapi"
)

// IdentityLogFieldKey is the name of the logged field that contains the caller's identity.
const IdentityLogFieldKey = "identity"

// IdentityResolver resolves the identity of the caller who sent the request.
// An empty identity means the anonymous caller.
type IdentityResolver interface {
	ResolveIdentity(r *http.Request) (string, error)
}

// IdentityResolverFunc is an adapter to allow the use of ordinary functions as IdentityResolver.
type IdentityResolverFunc func(r *http.Request) (string, error)

// ResolveIdentity calls f(r).
func (f IdentityResolverFunc) ResolveIdentity(r *http.Request) (string, error) {
	return f(r)
}

type identityHandler struct {
	next      http.Handler
	resolver  IdentityResolver
	errDomain string
}

// Identity is a middleware that resolves the caller's identity and puts it into the request context
// (see GetIdentityFromContext). The identity is also added to the "response completed" log entry.
func Identity(resolver IdentityResolver, errDomain string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &identityHandler{next: next, resolver: resolver, errDomain: errDomain}
	}
}

func (h *identityHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	identity, err := h.resolver.ResolveIdentity(r)
	if err != nil {
		logger := GetLoggerFromContext(r.Context())
		if logger != nil {
			logger.Error("failed to resolve identity", log.Error(err))
		}
		restapi.RespondInternalError(rw, h.errDomain, logger)
		return
	}
	if identity == "" {
		identity = admission.AnonymousIdentity
	}

	ctx := NewContextWithIdentity(r.Context(), identity)
	extendLoggingFields(ctx, log.String(IdentityLogFieldKey, identity))
	if logger := GetLoggerFromContext(ctx); logger != nil {
		ctx = NewContextWithLogger(ctx, logger.With(log.String(IdentityLogFieldKey, identity)))
	}
	h.next.ServeHTTP(rw, r.WithContext(ctx))
}
