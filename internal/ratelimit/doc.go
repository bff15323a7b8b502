/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit implements quotagate's process-wide guard: a single rate limit
// in front of the per-identity admission that protects the process as a whole.
// Requests exceeding the rate may wait in a bounded backlog before being rejected.
package ratelimit
