/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"math"
	"time"
)

// Decision is an outcome of the admission check.
type Decision struct {
	// Allow is true if the request may proceed.
	Allow bool

	// Limit is the ceiling that was applied to the identity.
	Limit int

	// Remaining is the number of requests that may still be admitted in the current window.
	// It's always 0 for rejected requests.
	Remaining int

	// RetryAfter is the time left until the current window expires.
	// It's set only for rejected requests and is never negative.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter in seconds.
func (d Decision) RetryAfterSeconds() float64 {
	return d.RetryAfter.Seconds()
}

// RetryAfterCeilSeconds returns RetryAfter rounded up to whole seconds (e.g., for the Retry-After HTTP header).
func (d Decision) RetryAfterCeilSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// Snapshot is a read-only view of the identity's quota.
type Snapshot struct {
	Identity    string
	Limit       int
	Used        int
	Remaining   int
	WindowStart time.Time // Zero if there is no active window.
	ResetIn     time.Duration
}
