/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package api

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/httpserver/middleware"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/restapi"
	"github.com/acronis/go-quotagate/session"
)

const usageMessage = "First, log in with /login?user=<name>. " +
	"Then send requests to /limited?x=<message> passing the issued token in the X-Session-Token header or the session cookie. " +
	"The current quota is available at /quota."

type handler struct {
	controller QuotaController
	registry   *admission.Registry
	sessions   *session.Store
	errDomain  string
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Identity         string  `json:"identity"`
	Message          string  `json:"message"`
	Token            string  `json:"token,omitempty"`
	ExpiresInSeconds float64 `json:"expiresInSeconds,omitempty"`
}

type limitedResponse struct {
	Identity  string `json:"identity"`
	Message   string `json:"message"`
	Remaining *int   `json:"remaining,omitempty"`
}

type quotaResponse struct {
	Identity       string     `json:"identity"`
	Limit          int        `json:"limit"`
	Used           int        `json:"used"`
	Remaining      int        `json:"remaining"`
	WindowStart    *time.Time `json:"windowStart,omitempty"`
	ResetInSeconds float64    `json:"resetInSeconds"`
}

func (h *handler) usage(rw http.ResponseWriter, r *http.Request) {
	restapi.RespondJSON(rw, messageResponse{usageMessage}, middleware.GetLoggerFromContext(r.Context()))
}

// login issues a session token for the known identity.
// Unknown and absent users are logged in anonymously, the presented session (if any) is revoked then.
func (h *handler) login(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	user := r.URL.Query().Get("user")

	if _, known := h.registry.Lookup(user); !known || user == admission.AnonymousIdentity {
		if token := session.TokenFromRequest(r); token != "" && h.sessions.Revoke(token) && logger != nil {
			logger.Info("session revoked on anonymous login")
		}
		clearSessionCookie(rw)
		restapi.RespondJSON(rw, loginResponse{
			Identity: admission.AnonymousIdentity,
			Message:  "Logged in anonymously.",
		}, logger)
		return
	}

	token, err := h.sessions.Issue(user)
	if err != nil {
		if logger != nil {
			logger.Error("failed to issue session", log.Error(err))
		}
		restapi.RespondInternalError(rw, h.errDomain, logger)
		return
	}
	if logger != nil {
		logger.Info("session issued", log.String("session_identity", user))
	}

	rw.Header().Set(session.HeaderSessionToken, token)
	http.SetCookie(rw, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	restapi.RespondJSON(rw, loginResponse{
		Identity:         user,
		Message:          fmt.Sprintf("Logged in as %s.", html.EscapeString(user)),
		Token:            token,
		ExpiresInSeconds: h.sessions.TTL().Seconds(),
	}, logger)
}

func (h *handler) logout(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	if token := session.TokenFromRequest(r); token != "" && h.sessions.Revoke(token) && logger != nil {
		logger.Info("session revoked")
	}
	clearSessionCookie(rw)
	restapi.RespondJSON(rw, messageResponse{"Logged out."}, logger)
}

// limited is guarded by the Admission middleware, so it's reached only by admitted requests.
func (h *handler) limited(rw http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	resp := limitedResponse{
		Identity: identity,
		Message:  html.EscapeString(r.URL.Query().Get("x")),
	}
	if decision, ok := middleware.GetAdmissionDecisionFromContext(r.Context()); ok && decision.Limit > 0 {
		remaining := decision.Remaining
		resp.Remaining = &remaining
	}
	restapi.RespondJSON(rw, resp, middleware.GetLoggerFromContext(r.Context()))
}

func (h *handler) quota(rw http.ResponseWriter, r *http.Request) {
	snapshot := h.controller.PeekNow(middleware.GetIdentityFromContext(r.Context()))
	resp := quotaResponse{
		Identity:       snapshot.Identity,
		Limit:          snapshot.Limit,
		Used:           snapshot.Used,
		Remaining:      snapshot.Remaining,
		ResetInSeconds: snapshot.ResetIn.Seconds(),
	}
	if !snapshot.WindowStart.IsZero() {
		windowStart := snapshot.WindowStart.UTC()
		resp.WindowStart = &windowStart
	}
	restapi.RespondJSON(rw, resp, middleware.GetLoggerFromContext(r.Context()))
}

func clearSessionCookie(rw http.ResponseWriter) {
	http.SetCookie(rw, &http.Cookie{Name: session.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}
