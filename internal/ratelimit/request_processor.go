/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// DefaultBacklogTimeout determines the default time a request may wait in the backlog.
const DefaultBacklogTimeout = time.Second * 5

// Params contains data about the rate limiting procedure passed to the handler's callbacks.
type Params struct {
	RequestBacklogged   bool
	EstimatedRetryAfter time.Duration
}

// RequestHandler abstracts a request (of any transport) guarded by the RequestProcessor.
type RequestHandler interface {
	// GetContext returns the request context.
	GetContext() context.Context

	// Execute processes the actual request.
	Execute() error

	// OnReject handles request rejection when the rate is exceeded.
	OnReject(params Params) error

	// OnError handles errors that occur during rate limiting.
	OnError(params Params, err error) error
}

// BacklogParams defines parameters for the backlog processing.
// Zero Limit disables backlogging.
type BacklogParams struct {
	Limit   int
	Timeout time.Duration
}

// RequestProcessor lets requests through the limiter.
// A request over the rate takes a backlog slot (if any is free) and retries
// until it fits, the backlog timeout expires or its context is done.
type RequestProcessor struct {
	limiter        Limiter
	backlogSlots   chan struct{}
	backlogTimeout time.Duration
}

// NewRequestProcessor creates a new request processor.
func NewRequestProcessor(limiter Limiter, backlogParams BacklogParams) (*RequestProcessor, error) {
	if backlogParams.Limit < 0 {
		return nil, fmt.Errorf("backlog limit should not be negative, got %d", backlogParams.Limit)
	}
	if backlogParams.Timeout < 0 {
		return nil, fmt.Errorf("backlog timeout should not be negative, got %s", backlogParams.Timeout)
	}
	p := &RequestProcessor{limiter: limiter, backlogTimeout: backlogParams.Timeout}
	if p.backlogTimeout == 0 {
		p.backlogTimeout = DefaultBacklogTimeout
	}
	if backlogParams.Limit > 0 {
		p.backlogSlots = make(chan struct{}, backlogParams.Limit)
	}
	return p, nil
}

// ProcessRequest executes the request if it fits into the rate, or rejects it otherwise.
func (p *RequestProcessor) ProcessRequest(rh RequestHandler) error {
	allow, retryAfter, err := p.limiter.Allow(rh.GetContext())
	if err != nil {
		return rh.OnError(Params{}, fmt.Errorf("rate limit: %w", err))
	}
	if allow {
		return rh.Execute()
	}
	if p.backlogSlots == nil {
		return rh.OnReject(Params{EstimatedRetryAfter: retryAfter})
	}

	select {
	case p.backlogSlots <- struct{}{}:
	default:
		return rh.OnReject(Params{EstimatedRetryAfter: retryAfter})
	}
	return p.waitInBacklog(rh, retryAfter)
}

func (p *RequestProcessor) waitInBacklog(rh RequestHandler, retryAfter time.Duration) error {
	ctx := rh.GetContext()

	backlogged := true
	freeSlot := func() {
		if backlogged {
			<-p.backlogSlots
			backlogged = false
		}
	}
	defer freeSlot()

	timeoutTimer := time.NewTimer(p.backlogTimeout)
	defer timeoutTimer.Stop()
	retryTimer := time.NewTimer(retryAfter)
	defer retryTimer.Stop()

	for {
		select {
		case <-retryTimer.C:
		case <-timeoutTimer.C:
			return rh.OnReject(Params{RequestBacklogged: true, EstimatedRetryAfter: retryAfter})
		case <-ctx.Done():
			return rh.OnError(Params{RequestBacklogged: true, EstimatedRetryAfter: retryAfter}, ctx.Err())
		}

		allow, nextRetryAfter, err := p.limiter.Allow(ctx)
		if err != nil {
			return rh.OnError(Params{RequestBacklogged: true, EstimatedRetryAfter: retryAfter},
				fmt.Errorf("rate limit: %w", err))
		}
		if allow {
			// The slot is not needed while the request is being executed.
			freeSlot()
			return rh.Execute()
		}
		retryAfter = nextRetryAfter
		retryTimer.Reset(retryAfter)
	}
}
