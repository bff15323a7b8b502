/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/internal/interceptor"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/restapi"
)

// Response headers set by the Admission middleware.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

// AdmissionOnRejectFunc is a function that is called for rejecting HTTP request when the identity's quota is exceeded.
type AdmissionOnRejectFunc func(
	rw http.ResponseWriter, r *http.Request, identity string, decision admission.Decision, errDomain string, logger log.FieldLogger)

// AdmissionOnErrorFunc is a function that is called when the request cannot be checked.
type AdmissionOnErrorFunc func(
	rw http.ResponseWriter, r *http.Request, identity string, err error, errDomain string, logger log.FieldLogger)

// AdmissionOpts represents an options for the Admission middleware.
type AdmissionOpts struct {
	// IncludedIdentities is a list of identity glob patterns the admission is applied to.
	IncludedIdentities []string
	// ExcludedIdentities is a list of identity glob patterns that bypass the admission.
	ExcludedIdentities []string

	OnReject AdmissionOnRejectFunc
	OnError  AdmissionOnErrorFunc
}

type admissionHandler struct {
	next      http.Handler
	processor *interceptor.Processor
	errDomain string
	onReject  AdmissionOnRejectFunc
	onError   AdmissionOnErrorFunc
}

// Admission is a middleware that checks the request of the identity (see Identity middleware) against its quota.
// The admitted request is passed to the next handler, the rejected one gets 429 with Retry-After header.
func Admission(admitter interceptor.Admitter, errDomain string) func(next http.Handler) http.Handler {
	return MustAdmissionWithOpts(admitter, errDomain, AdmissionOpts{})
}

// AdmissionWithOpts is a more configurable version of Admission middleware.
func AdmissionWithOpts(
	admitter interceptor.Admitter, errDomain string, opts AdmissionOpts,
) (func(next http.Handler) http.Handler, error) {
	bypass, err := interceptor.NewBypassFunc(opts.IncludedIdentities, opts.ExcludedIdentities)
	if err != nil {
		return nil, err
	}
	if opts.OnReject == nil {
		opts.OnReject = DefaultAdmissionOnReject
	}
	if opts.OnError == nil {
		opts.OnError = DefaultAdmissionOnError
	}
	processor := interceptor.NewProcessorWithOpts(admitter, interceptor.ProcessorOpts{Bypass: bypass})
	return func(next http.Handler) http.Handler {
		return &admissionHandler{
			next:      next,
			processor: processor,
			errDomain: errDomain,
			onReject:  opts.OnReject,
			onError:   opts.OnError,
		}
	}, nil
}

// MustAdmissionWithOpts is a version of AdmissionWithOpts that panics if an error occurs.
func MustAdmissionWithOpts(
	admitter interceptor.Admitter, errDomain string, opts AdmissionOpts,
) func(next http.Handler) http.Handler {
	mw, err := AdmissionWithOpts(admitter, errDomain, opts)
	if err != nil {
		panic(err)
	}
	return mw
}

func (h *admissionHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	// Error is always nil, it's handled in the admissionRequestHandler methods.
	_ = h.processor.ProcessRequest(&admissionRequestHandler{rw: rw, r: r, parent: h})
}

// admissionRequestHandler implements interceptor.RequestHandler for HTTP requests.
type admissionRequestHandler struct {
	rw     http.ResponseWriter
	r      *http.Request
	parent *admissionHandler
}

func (h *admissionRequestHandler) GetContext() context.Context {
	return h.r.Context()
}

func (h *admissionRequestHandler) GetIdentity() (string, error) {
	return GetIdentityFromContext(h.r.Context()), nil
}

func (h *admissionRequestHandler) Execute(identity string, decision admission.Decision) error {
	ctx := h.r.Context()
	if decision.Limit > 0 {
		setRateLimitHeaders(h.rw, decision)
		extendLoggingFields(ctx, log.Int("quota_remaining", decision.Remaining))
	} else {
		extendLoggingFields(ctx, log.Bool("quota_bypassed", true))
	}
	h.parent.next.ServeHTTP(h.rw, h.r.WithContext(NewContextWithAdmissionDecision(ctx, decision)))
	return nil
}

func (h *admissionRequestHandler) OnReject(identity string, decision admission.Decision) error {
	ctx := h.r.Context()
	extendLoggingFields(ctx, log.Bool("quota_exceeded", true))
	h.parent.onReject(h.rw, h.r, identity, decision, h.parent.errDomain, GetLoggerFromContext(ctx))
	return nil
}

func (h *admissionRequestHandler) OnError(identity string, err error) error {
	h.parent.onError(h.rw, h.r, identity, err, h.parent.errDomain, GetLoggerFromContext(h.r.Context()))
	return nil
}

func setRateLimitHeaders(rw http.ResponseWriter, decision admission.Decision) {
	rw.Header().Set(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
	rw.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
}

// DefaultAdmissionOnReject responds with 429, Retry-After header (in whole seconds, rounded up)
// and tooManyRequests error which context carries the precise retry delay.
func DefaultAdmissionOnReject(
	rw http.ResponseWriter, _ *http.Request, identity string, decision admission.Decision, errDomain string, logger log.FieldLogger,
) {
	setRateLimitHeaders(rw, decision)
	rw.Header().Set(HeaderRetryAfter, strconv.Itoa(decision.RetryAfterCeilSeconds()))
	apiErr := restapi.NewError(errDomain, restapi.ErrCodeTooManyRequests, restapi.ErrMessageTooManyRequests).
		AddContext("identity", identity).
		AddContext("limit", decision.Limit).
		AddContext("retryAfterSeconds", decision.RetryAfterSeconds())
	restapi.RespondError(rw, http.StatusTooManyRequests, apiErr, logger)
}

// DefaultAdmissionOnError responds with 503 if the request context is already done
// (such request is not checked and doesn't consume quota), and with 500 otherwise.
func DefaultAdmissionOnError(
	rw http.ResponseWriter, _ *http.Request, _ string, err error, errDomain string, logger log.FieldLogger,
) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if logger != nil {
			logger.Warn("request context is done before admission check", log.Error(err))
		}
		restapi.RespondError(rw, http.StatusServiceUnavailable,
			restapi.NewError(errDomain, restapi.ErrCodeServiceUnavailable, "Request is canceled."), logger)
		return
	}
	if logger != nil {
		logger.Error("admission check failed", log.Error(err))
	}
	restapi.RespondInternalError(rw, errDomain, logger)
}
