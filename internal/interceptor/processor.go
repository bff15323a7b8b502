/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"context"
	"fmt"

	"github.com/acronis/go-quotagate/admission"
)

// Admitter makes the admission decision for the identity.
// *admission.Controller implements it.
type Admitter interface {
	Admit(identity string) admission.Decision
}

// RequestHandler abstracts a request guarded by the Processor.
type RequestHandler interface {
	// GetContext returns the request context.
	GetContext() context.Context

	// GetIdentity returns the identity of the caller.
	// Empty identity is treated as AnonymousIdentity.
	GetIdentity() (identity string, err error)

	// Execute processes the admitted request.
	Execute(identity string, decision admission.Decision) error

	// OnReject handles the request that exceeded the identity's quota.
	OnReject(identity string, decision admission.Decision) error

	// OnError handles errors that occur before the admission decision is made.
	OnError(identity string, err error) error
}

// ProcessorOpts represents options for the Processor.
type ProcessorOpts struct {
	// Bypass reports whether the (already normalized) identity is executed without the admission check.
	Bypass BypassFunc
}

// Processor checks each request against the identity's quota before executing it.
type Processor struct {
	admitter Admitter
	bypass   BypassFunc
}

// NewProcessor creates a new Processor.
func NewProcessor(admitter Admitter) *Processor {
	return NewProcessorWithOpts(admitter, ProcessorOpts{})
}

// NewProcessorWithOpts creates a new Processor with options.
func NewProcessorWithOpts(admitter Admitter, opts ProcessorOpts) *Processor {
	return &Processor{admitter: admitter, bypass: opts.Bypass}
}

// ProcessRequest resolves the caller's identity, asks for the admission decision
// and either executes or rejects the request.
// A request whose context is already done is not checked, so it does not consume quota.
func (p *Processor) ProcessRequest(rh RequestHandler) error {
	identity, err := rh.GetIdentity()
	if err != nil {
		return rh.OnError(identity, fmt.Errorf("get identity: %w", err))
	}
	if identity == "" {
		identity = admission.AnonymousIdentity
	}
	if p.bypass != nil && p.bypass(identity) {
		return rh.Execute(identity, admission.Decision{Allow: true})
	}
	if err = rh.GetContext().Err(); err != nil {
		return rh.OnError(identity, err)
	}

	decision := p.admitter.Admit(identity)
	if !decision.Allow {
		return rh.OnReject(identity, decision)
	}
	return rh.Execute(identity, decision)
}
