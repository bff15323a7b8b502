/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package api

import (
	"fmt"

	"github.com/go-chi/chi/v5"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/httpserver/middleware"
	"github.com/acronis/go-quotagate/internal/interceptor"
	"github.com/acronis/go-quotagate/session"
)

// ServiceNameInURL is a service name in the API URLs (/api/quotagate/v1/...).
const ServiceNameInURL = "quotagate"

// ErrorDomain is a domain of errors returned by the API.
const ErrorDomain = "Quotagate"

// QuotaController admits requests and gives access to the quota states.
// *admission.Controller implements it.
type QuotaController interface {
	interceptor.Admitter
	PeekNow(identity string) admission.Snapshot
	Reset(identity string) bool
}

// Opts represents options for the API routes.
type Opts struct {
	Controller QuotaController
	Registry   *admission.Registry
	Sessions   *session.Store

	// Admission contains identity patterns and reject/error callbacks for the admission-guarded endpoints.
	Admission middleware.AdmissionOpts

	// AdminToken is a bearer token for the /admin endpoints. They are not served if it's empty.
	AdminToken string

	// ErrorDomain is used in error responses. ErrorDomain constant is used if empty.
	ErrorDomain string
}

// NewRoutesV1 returns a function that configures v1 API routes.
func NewRoutesV1(opts Opts) (func(router chi.Router), error) { //nolint:gocritic // hugeParam
	if opts.Controller == nil {
		return nil, fmt.Errorf("quota controller is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if opts.ErrorDomain == "" {
		opts.ErrorDomain = ErrorDomain
	}

	admissionMw, err := middleware.AdmissionWithOpts(opts.Controller, opts.ErrorDomain, opts.Admission)
	if err != nil {
		return nil, fmt.Errorf("create admission middleware: %w", err)
	}

	h := &handler{
		controller: opts.Controller,
		registry:   opts.Registry,
		sessions:   opts.Sessions,
		errDomain:  opts.ErrorDomain,
	}
	identityMw := middleware.Identity(session.NewResolver(opts.Sessions), opts.ErrorDomain)

	return func(router chi.Router) {
		router.Group(func(router chi.Router) {
			router.Use(identityMw)
			router.Get("/", h.usage)
			router.Get("/login", h.login)
			router.Post("/logout", h.logout)
			router.Get("/quota", h.quota)
			router.With(admissionMw).Get("/limited", h.limited)
		})

		if opts.AdminToken != "" {
			admin := &adminHandler{
				controller: opts.Controller,
				registry:   opts.Registry,
				errDomain:  opts.ErrorDomain,
			}
			router.Route("/admin", func(router chi.Router) {
				router.Use(requireBearerToken(opts.AdminToken, opts.ErrorDomain))
				router.Get("/identities", admin.listIdentities)
				router.Put("/identities/{identity}", admin.setCeiling)
				router.Delete("/identities/{identity}", admin.removeIdentity)
				router.Post("/identities/{identity}/reset", admin.resetQuota)
			})
		}
	}, nil
}
