/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/httpserver/middleware"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/restapi"
)

type adminHandler struct {
	controller QuotaController
	registry   *admission.Registry
	errDomain  string
}

type identitiesResponse struct {
	AnonymousCeiling int            `json:"anonymousCeiling"`
	Identities       map[string]int `json:"identities"`
}

type ceilingRequest struct {
	Ceiling int `json:"ceiling"`
}

type ceilingResponse struct {
	Identity string `json:"identity"`
	Ceiling  int    `json:"ceiling"`
}

// requireBearerToken is a middleware that rejects requests without the valid "Authorization: Bearer <token>" header.
func requireBearerToken(token, errDomain string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			reqToken, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(reqToken)), []byte(token)) != 1 {
				rw.Header().Set("WWW-Authenticate", "Bearer")
				apiErr := restapi.NewError(errDomain, restapi.ErrCodeUnauthorized, restapi.ErrMessageUnauthorized)
				restapi.RespondError(rw, http.StatusUnauthorized, apiErr, middleware.GetLoggerFromContext(r.Context()))
				return
			}
			next.ServeHTTP(rw, r)
		})
	}
}

func (h *adminHandler) listIdentities(rw http.ResponseWriter, r *http.Request) {
	restapi.RespondJSON(rw, identitiesResponse{
		AnonymousCeiling: h.registry.AnonymousCeiling(),
		Identities:       h.registry.Identities(),
	}, middleware.GetLoggerFromContext(r.Context()))
}

func (h *adminHandler) setCeiling(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	identity, ok := h.identityFromURL(rw, r)
	if !ok {
		return
	}

	var reqData ceilingRequest
	if err := restapi.DecodeRequestJSON(r, &reqData); err != nil {
		restapi.RespondMalformedRequestOrInternalError(rw, h.errDomain, err, logger)
		return
	}
	if err := h.registry.SetCeiling(identity, reqData.Ceiling); err != nil {
		restapi.RespondMalformedRequestOrInternalError(rw, h.errDomain,
			&restapi.MalformedRequestError{HTTPStatusCode: http.StatusBadRequest, Message: err.Error()}, logger)
		return
	}
	if logger != nil {
		logger.Info("identity ceiling changed",
			log.String("target_identity", identity), log.Int("ceiling", reqData.Ceiling))
	}
	restapi.RespondJSON(rw, ceilingResponse{Identity: identity, Ceiling: reqData.Ceiling}, logger)
}

func (h *adminHandler) removeIdentity(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	identity, ok := h.identityFromURL(rw, r)
	if !ok {
		return
	}
	if !h.registry.RemoveIdentity(identity) {
		restapi.RespondError(rw, http.StatusNotFound,
			restapi.NewError(h.errDomain, restapi.ErrCodeNotFound, "Identity is not found."), logger)
		return
	}
	if logger != nil {
		logger.Info("identity removed", log.String("target_identity", identity))
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (h *adminHandler) resetQuota(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	identity := chi.URLParam(r, "identity")
	if h.controller.Reset(identity) && logger != nil {
		logger.Info("identity quota reset", log.String("target_identity", identity))
	}
	rw.WriteHeader(http.StatusNoContent)
}

// identityFromURL returns the identity from the URL. The anonymous tier is configured only at startup.
func (h *adminHandler) identityFromURL(rw http.ResponseWriter, r *http.Request) (string, bool) {
	identity := chi.URLParam(r, "identity")
	if identity == admission.AnonymousIdentity {
		restapi.RespondMalformedRequestOrInternalError(rw, h.errDomain, &restapi.MalformedRequestError{
			HTTPStatusCode: http.StatusBadRequest,
			Message:        "Anonymous tier cannot be changed at runtime.",
		}, middleware.GetLoggerFromContext(r.Context()))
		return "", false
	}
	return identity, true
}
