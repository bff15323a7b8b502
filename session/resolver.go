/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package session

import (
	"net/http"
	"strings"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/httpserver/middleware"
)

// HeaderSessionToken is a request header carrying the session token.
const HeaderSessionToken = "X-Session-Token"

// CookieName is a name of the cookie carrying the session token.
const CookieName = "session"

// TokenFromRequest extracts the session token from the request.
// The header takes precedence over the cookie.
func TokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(HeaderSessionToken)); token != "" {
		return token
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Resolver resolves the request's identity by its session token.
// Requests without a token or with unknown or expired one are anonymous.
type Resolver struct {
	store *Store
}

var _ middleware.IdentityResolver = (*Resolver)(nil)

// NewResolver creates a new Resolver.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveIdentity implements middleware.IdentityResolver.
func (res *Resolver) ResolveIdentity(r *http.Request) (string, error) {
	if identity, ok := res.store.Resolve(TokenFromRequest(r)); ok {
		return identity, nil
	}
	return admission.AnonymousIdentity, nil
}
