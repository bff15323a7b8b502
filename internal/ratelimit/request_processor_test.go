/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// scriptedLimiter allows requests according to the allowed counter.
type scriptedLimiter struct {
	allowed    atomic.Int32
	retryAfter time.Duration
	err        error
}

func (l *scriptedLimiter) Allow(context.Context) (bool, time.Duration, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	for {
		n := l.allowed.Load()
		if n <= 0 {
			return false, l.retryAfter, nil
		}
		if l.allowed.CompareAndSwap(n, n-1) {
			return true, 0, nil
		}
	}
}

type mockRequestHandler struct {
	ctx context.Context

	executed     atomic.Bool
	rejected     atomic.Bool
	mu           sync.Mutex
	rejectParams Params
	err          error
}

func newMockRequestHandler(ctx context.Context) *mockRequestHandler {
	return &mockRequestHandler{ctx: ctx}
}

func (h *mockRequestHandler) GetContext() context.Context { return h.ctx }

func (h *mockRequestHandler) Execute() error {
	h.executed.Store(true)
	return nil
}

func (h *mockRequestHandler) OnReject(params Params) error {
	h.rejected.Store(true)
	h.mu.Lock()
	h.rejectParams = params
	h.mu.Unlock()
	return nil
}

func (h *mockRequestHandler) OnError(_ Params, err error) error {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	return err
}

func TestNewRequestProcessor_Errors(t *testing.T) {
	_, err := NewRequestProcessor(&scriptedLimiter{}, BacklogParams{Limit: -1})
	require.EqualError(t, err, "backlog limit should not be negative, got -1")
	_, err = NewRequestProcessor(&scriptedLimiter{}, BacklogParams{Timeout: -time.Second})
	require.EqualError(t, err, "backlog timeout should not be negative, got -1s")
}

func TestRequestProcessor_NoBacklog(t *testing.T) {
	limiter := &scriptedLimiter{retryAfter: 3 * time.Second}
	limiter.allowed.Store(1)
	p, err := NewRequestProcessor(limiter, BacklogParams{})
	require.NoError(t, err)

	first := newMockRequestHandler(context.Background())
	require.NoError(t, p.ProcessRequest(first))
	require.True(t, first.executed.Load())

	second := newMockRequestHandler(context.Background())
	require.NoError(t, p.ProcessRequest(second))
	require.False(t, second.executed.Load())
	require.True(t, second.rejected.Load())
	require.Equal(t, Params{EstimatedRetryAfter: 3 * time.Second}, second.rejectParams)
}

func TestRequestProcessor_LimiterError(t *testing.T) {
	p, err := NewRequestProcessor(&scriptedLimiter{err: errors.New("store is down")}, BacklogParams{})
	require.NoError(t, err)

	h := newMockRequestHandler(context.Background())
	require.EqualError(t, p.ProcessRequest(h), "rate limit: store is down")
	require.False(t, h.executed.Load())
}

func TestRequestProcessor_Backlog(t *testing.T) {
	t.Run("backlogged request is executed when the rate allows", func(t *testing.T) {
		limiter := &scriptedLimiter{retryAfter: 10 * time.Millisecond}
		p, err := NewRequestProcessor(limiter, BacklogParams{Limit: 1, Timeout: 5 * time.Second})
		require.NoError(t, err)

		h := newMockRequestHandler(context.Background())
		done := make(chan error, 1)
		go func() { done <- p.ProcessRequest(h) }()

		time.Sleep(30 * time.Millisecond)
		limiter.allowed.Store(1)
		require.NoError(t, <-done)
		require.True(t, h.executed.Load())
		require.Empty(t, p.backlogSlots)
	})

	t.Run("backlog timeout", func(t *testing.T) {
		limiter := &scriptedLimiter{retryAfter: 5 * time.Millisecond}
		p, err := NewRequestProcessor(limiter, BacklogParams{Limit: 1, Timeout: 30 * time.Millisecond})
		require.NoError(t, err)

		h := newMockRequestHandler(context.Background())
		require.NoError(t, p.ProcessRequest(h))
		require.True(t, h.rejected.Load())
		require.True(t, h.rejectParams.RequestBacklogged)
		require.Empty(t, p.backlogSlots)
	})

	t.Run("full backlog rejects immediately", func(t *testing.T) {
		limiter := &scriptedLimiter{retryAfter: time.Hour}
		p, err := NewRequestProcessor(limiter, BacklogParams{Limit: 1, Timeout: time.Hour})
		require.NoError(t, err)
		p.backlogSlots <- struct{}{}

		h := newMockRequestHandler(context.Background())
		require.NoError(t, p.ProcessRequest(h))
		require.True(t, h.rejected.Load())
		require.False(t, h.rejectParams.RequestBacklogged)
	})

	t.Run("canceled context", func(t *testing.T) {
		limiter := &scriptedLimiter{retryAfter: time.Hour}
		p, err := NewRequestProcessor(limiter, BacklogParams{Limit: 1, Timeout: time.Hour})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		h := newMockRequestHandler(ctx)
		require.ErrorIs(t, p.ProcessRequest(h), context.DeadlineExceeded)
		require.False(t, h.executed.Load())
		require.Empty(t, p.backlogSlots)
	})
}
