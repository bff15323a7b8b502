/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers for testing quotagate HTTP handlers, units and metrics.
package testutil

type tHelper interface {
	Helper()
}
