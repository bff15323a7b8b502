/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"fmt"
	"sync"
	"time"
)

// DefaultWindow is a default duration of the quota window.
const DefaultWindow = time.Minute

// ConsumePolicy determines whether rejected attempts are counted against the quota.
type ConsumePolicy int

// Consume policies.
const (
	// ConsumeAlways counts every attempt, including the rejected ones.
	// Rejected attempts don't extend the window, so the quota is restored when the window expires anyway.
	ConsumeAlways ConsumePolicy = iota

	// ConsumeOnAdmit counts only admitted requests.
	ConsumeOnAdmit
)

// String returns a string representation of the policy.
func (p ConsumePolicy) String() string {
	switch p {
	case ConsumeAlways:
		return "always"
	case ConsumeOnAdmit:
		return "on_admit"
	}
	return fmt.Sprintf("ConsumePolicy(%d)", int(p))
}

// Opts represents options for the Controller.
type Opts struct {
	// Window is a duration of the quota window. DefaultWindow is used if zero.
	Window time.Duration

	// ConsumePolicy determines whether rejected attempts are counted. ConsumeAlways by default.
	ConsumePolicy ConsumePolicy

	// MetricsCollector collects metrics about decisions. Metrics are disabled if nil.
	MetricsCollector MetricsCollector

	// Clock returns the current time. It's used by Admit and by Sweeper. time.Now is used if nil.
	Clock func() time.Time
}

type quotaState struct {
	mu          sync.Mutex
	windowStart time.Time
	used        int
	removed     bool // The state is not in the controller's map anymore and must not be used.
}

// expired reports whether the state has no active window at the passed moment. Must be called under st.mu.
func (st *quotaState) expired(now time.Time, window time.Duration) bool {
	return st.windowStart.IsZero() || now.Sub(st.windowStart) > window
}

// Controller decides whether the request of the identity may be admitted.
// It holds the quota state for every identity that has been checked.
// Controller is safe for concurrent use.
type Controller struct {
	registry IdentityRegistry
	window   time.Duration
	policy   ConsumePolicy
	clock    func() time.Time
	metrics  MetricsCollector

	mu     sync.RWMutex
	states map[string]*quotaState
}

// NewController creates a new Controller with default options.
func NewController(registry IdentityRegistry) (*Controller, error) {
	return NewControllerWithOpts(registry, Opts{})
}

// NewControllerWithOpts creates a new Controller with the specified options.
func NewControllerWithOpts(registry IdentityRegistry, opts Opts) (*Controller, error) {
	if registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	if opts.Window < 0 {
		return nil, fmt.Errorf("window should not be negative, got %s", opts.Window)
	}
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	switch opts.ConsumePolicy {
	case ConsumeAlways, ConsumeOnAdmit:
	default:
		return nil, fmt.Errorf("unknown consume policy %s", opts.ConsumePolicy)
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Controller{
		registry: registry,
		window:   opts.Window,
		policy:   opts.ConsumePolicy,
		clock:    opts.Clock,
		metrics:  opts.MetricsCollector,
		states:   make(map[string]*quotaState),
	}, nil
}

// Window returns the duration of the quota window.
func (c *Controller) Window() time.Duration {
	return c.window
}

// Admit calls TryAdmit with the current time of the controller's clock.
func (c *Controller) Admit(identity string) Decision {
	return c.TryAdmit(identity, c.clock())
}

// TryAdmit checks whether the request of the identity may be admitted at the passed moment
// and consumes one request from the identity's quota.
// The check and the consumption are done atomically for the identity.
func (c *Controller) TryAdmit(identity string, now time.Time) Decision {
	ceiling := c.registry.CeilingFor(identity)
	for {
		st := c.getOrCreateState(identity)
		st.mu.Lock()
		if st.removed {
			// The state has been swept or reset concurrently, a new one should be used.
			st.mu.Unlock()
			continue
		}
		decision := c.consume(st, ceiling, now)
		st.mu.Unlock()

		if decision.Allow {
			c.metrics.IncAdmitted()
		} else {
			c.metrics.IncRejected()
		}
		return decision
	}
}

// consume applies the window and the threshold rules. Must be called under st.mu.
func (c *Controller) consume(st *quotaState, ceiling int, now time.Time) Decision {
	if st.expired(now, c.window) {
		st.windowStart = now
		st.used = 0
	}

	admitted := st.used < ceiling
	if admitted || c.policy == ConsumeAlways {
		st.used++
	}
	if admitted {
		return Decision{Allow: true, Limit: ceiling, Remaining: ceiling - st.used}
	}
	return Decision{Allow: false, Limit: ceiling, RetryAfter: c.timeLeft(st.windowStart, now)}
}

// Peek returns the quota of the identity at the passed moment without consuming it.
func (c *Controller) Peek(identity string, now time.Time) Snapshot {
	snapshot := Snapshot{Identity: identity, Limit: c.registry.CeilingFor(identity)}
	snapshot.Remaining = snapshot.Limit

	c.mu.RLock()
	st, ok := c.states[identity]
	c.mu.RUnlock()
	if !ok {
		return snapshot
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.removed || st.expired(now, c.window) {
		return snapshot
	}
	snapshot.Used = st.used
	snapshot.WindowStart = st.windowStart
	snapshot.ResetIn = c.timeLeft(st.windowStart, now)
	if snapshot.Remaining = snapshot.Limit - st.used; snapshot.Remaining < 0 {
		snapshot.Remaining = 0
	}
	return snapshot
}

// PeekNow calls Peek with the current time of the controller's clock.
func (c *Controller) PeekNow(identity string) Snapshot {
	return c.Peek(identity, c.clock())
}

// Reset removes the quota state of the identity, so its next request starts a new window.
// Returns false if there was no state for the identity.
func (c *Controller) Reset(identity string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[identity]
	if !ok {
		return false
	}
	st.mu.Lock()
	st.removed = true
	st.mu.Unlock()
	delete(c.states, identity)
	c.metrics.SetTrackedIdentities(len(c.states))
	return true
}

// Sweep removes the quota states whose window has expired at the passed moment.
// Such states are indistinguishable from the absent ones since the next request resets them anyway.
// Returns the number of removed states.
func (c *Controller) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	swept := 0
	for identity, st := range c.states {
		st.mu.Lock()
		if st.expired(now, c.window) {
			st.removed = true
			delete(c.states, identity)
			swept++
		}
		st.mu.Unlock()
	}
	if swept > 0 {
		c.metrics.AddSweptStates(swept)
		c.metrics.SetTrackedIdentities(len(c.states))
	}
	return swept
}

// Len returns the number of identities whose quota state is tracked.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.states)
}

func (c *Controller) getOrCreateState(identity string) *quotaState {
	c.mu.RLock()
	st, ok := c.states[identity]
	c.mu.RUnlock()
	if ok {
		return st
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok = c.states[identity]; ok {
		return st
	}
	st = &quotaState{}
	c.states[identity] = st
	c.metrics.SetTrackedIdentities(len(c.states))
	return st
}

func (c *Controller) timeLeft(windowStart, now time.Time) time.Duration {
	left := c.window - now.Sub(windowStart)
	if left < 0 {
		return 0
	}
	if left > c.window { // The clock went backwards.
		return c.window
	}
	return left
}
