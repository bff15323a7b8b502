/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package admission provides priority-tiered request admission control.
//
// Every caller is identified by an opaque identity key. Each identity has a ceiling, the maximum number
// of requests that may be admitted within a fixed window (60 seconds by default). Ceilings are resolved
// by IdentityRegistry, unknown identities fall into the anonymous tier.
//
// Controller keeps the quota state for every identity it has seen and exposes a single check-and-consume
// operation, TryAdmit. The window starts with the first request of an identity and is reset by the first
// request that observes its expiry. By default, every attempt counts against the quota, including
// the one that gets rejected (see ConsumePolicy).
//
// Key features:
//   - Atomic per-identity check-and-consume, identities do not block each other
//   - Read-only quota inspection (Peek) and administrative reset
//   - Optional sweeping of identities whose window has already expired
//   - Prometheus metrics for decisions and tracked identities
package admission
