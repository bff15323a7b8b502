/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package service runs quotagate's long-living components (HTTP servers, periodic sweepers)
// as units with a common lifecycle and stops them gracefully on OS signals.
package service

// Unit represents a service unit that can be started and stopped.
type Unit interface {
	// Start runs the unit. It may either return right after initialization
	// or block for the whole unit's lifetime.
	// A fatal error is reported by writing it to fatalErr; on success nothing is written.
	// The channel must not be used after Start returns.
	Start(fatalErr chan<- error)

	// Stop halts the unit. It may be called even if Start failed or was never called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is an interface for objects that can register its own metrics.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
