/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/acronis/go-quotagate/internal/ratelimit"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/restapi"
)

// GlobalRateLimitParams contains data that relates to the global rate limiting procedure
// and could be used for rejecting or handling an occurred error.
type GlobalRateLimitParams struct {
	ErrDomain           string
	RequestBacklogged   bool
	EstimatedRetryAfter time.Duration
}

// GlobalRateLimitOnRejectFunc is a function that is called for rejecting HTTP request when the global rate is exceeded.
type GlobalRateLimitOnRejectFunc func(rw http.ResponseWriter, r *http.Request, params GlobalRateLimitParams, logger log.FieldLogger)

// GlobalRateLimitOnErrorFunc is a function that is called when an error occurs during the global rate limiting.
type GlobalRateLimitOnErrorFunc func(
	rw http.ResponseWriter, r *http.Request, params GlobalRateLimitParams, err error, logger log.FieldLogger)

// GlobalRateLimitOpts represents an options for the GlobalRateLimit middleware.
type GlobalRateLimitOpts struct {
	OnReject GlobalRateLimitOnRejectFunc
	OnError  GlobalRateLimitOnErrorFunc
}

type globalRateLimitHandler struct {
	next      http.Handler
	processor *ratelimit.RequestProcessor
	errDomain string
	onReject  GlobalRateLimitOnRejectFunc
	onError   GlobalRateLimitOnErrorFunc
}

// GlobalRateLimit is a middleware that limits the rate of all HTTP requests served by the process,
// regardless of the caller. It protects the process as a whole and is placed in front of the admission.
func GlobalRateLimit(processor *ratelimit.RequestProcessor, errDomain string) func(next http.Handler) http.Handler {
	return GlobalRateLimitWithOpts(processor, errDomain, GlobalRateLimitOpts{})
}

// GlobalRateLimitWithOpts is a more configurable version of GlobalRateLimit middleware.
func GlobalRateLimitWithOpts(
	processor *ratelimit.RequestProcessor, errDomain string, opts GlobalRateLimitOpts,
) func(next http.Handler) http.Handler {
	if opts.OnReject == nil {
		opts.OnReject = DefaultGlobalRateLimitOnReject
	}
	if opts.OnError == nil {
		opts.OnError = DefaultGlobalRateLimitOnError
	}
	return func(next http.Handler) http.Handler {
		return &globalRateLimitHandler{
			next: next, processor: processor, errDomain: errDomain, onReject: opts.OnReject, onError: opts.OnError,
		}
	}
}

func (h *globalRateLimitHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	// Error is always nil, it's handled in the globalRateLimitRequestHandler methods.
	_ = h.processor.ProcessRequest(&globalRateLimitRequestHandler{rw: rw, r: r, parent: h})
}

// globalRateLimitRequestHandler implements ratelimit.RequestHandler for HTTP requests.
type globalRateLimitRequestHandler struct {
	rw     http.ResponseWriter
	r      *http.Request
	parent *globalRateLimitHandler
}

func (h *globalRateLimitRequestHandler) GetContext() context.Context {
	return h.r.Context()
}

func (h *globalRateLimitRequestHandler) Execute() error {
	h.parent.next.ServeHTTP(h.rw, h.r)
	return nil
}

func (h *globalRateLimitRequestHandler) OnReject(params ratelimit.Params) error {
	h.parent.onReject(h.rw, h.r, h.convertParams(params), GetLoggerFromContext(h.r.Context()))
	return nil
}

func (h *globalRateLimitRequestHandler) OnError(params ratelimit.Params, err error) error {
	h.parent.onError(h.rw, h.r, h.convertParams(params), err, GetLoggerFromContext(h.r.Context()))
	return nil
}

func (h *globalRateLimitRequestHandler) convertParams(params ratelimit.Params) GlobalRateLimitParams {
	return GlobalRateLimitParams{
		ErrDomain:           h.parent.errDomain,
		RequestBacklogged:   params.RequestBacklogged,
		EstimatedRetryAfter: params.EstimatedRetryAfter,
	}
}

// DefaultGlobalRateLimitOnReject responds with 503 and Retry-After header.
func DefaultGlobalRateLimitOnReject(rw http.ResponseWriter, _ *http.Request, params GlobalRateLimitParams, logger log.FieldLogger) {
	if logger != nil {
		logger = logger.With(log.Bool("backlogged", params.RequestBacklogged))
	}
	rw.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(params.EstimatedRetryAfter.Seconds()))))
	apiErr := restapi.NewError(params.ErrDomain, restapi.ErrCodeServiceUnavailable, "Service is overloaded.")
	restapi.RespondError(rw, http.StatusServiceUnavailable, apiErr, logger)
}

// DefaultGlobalRateLimitOnError responds with 503 if the request context is done while waiting in the backlog,
// and with 500 otherwise.
func DefaultGlobalRateLimitOnError(
	rw http.ResponseWriter, _ *http.Request, params GlobalRateLimitParams, err error, logger log.FieldLogger,
) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if logger != nil {
			logger.Warn("request context is done while waiting in the backlog", log.Error(err))
		}
		restapi.RespondError(rw, http.StatusServiceUnavailable,
			restapi.NewError(params.ErrDomain, restapi.ErrCodeServiceUnavailable, "Service is overloaded."), logger)
		return
	}
	if logger != nil {
		logger.Error("global rate limiting failed", log.Error(err))
	}
	restapi.RespondInternalError(rw, params.ErrDomain, logger)
}
