/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/RussellLuo/slidingwindow"
)

// SlidingWindowLimiter implements the sliding window rate limiting algorithm.
type SlidingWindowLimiter struct {
	limiter *slidingwindow.Limiter
	maxRate Rate
	now     func() time.Time
}

// NewSlidingWindowLimiter creates a new sliding window limiter.
func NewSlidingWindowLimiter(maxRate Rate) (*SlidingWindowLimiter, error) {
	if maxRate.Count <= 0 || maxRate.Duration <= 0 {
		return nil, fmt.Errorf("rate should be positive, got %q", maxRate)
	}
	lim, _ := slidingwindow.NewLimiter(maxRate.Duration, int64(maxRate.Count),
		func() (slidingwindow.Window, slidingwindow.StopFunc) {
			return slidingwindow.NewLocalWindow()
		})
	return &SlidingWindowLimiter{limiter: lim, maxRate: maxRate, now: time.Now}, nil
}

// Allow checks if one more request fits into the rate.
// The retry estimate is the time left until the current window boundary.
func (l *SlidingWindowLimiter) Allow(_ context.Context) (allow bool, retryAfter time.Duration, err error) {
	if l.limiter.Allow() {
		return true, 0, nil
	}
	now := l.now()
	return false, now.Truncate(l.maxRate.Duration).Add(l.maxRate.Duration).Sub(now), nil
}
