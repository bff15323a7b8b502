/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a bounded in-memory cache with LRU eviction, per-entry expiration and Prometheus metrics.
// quotagate uses it to keep login sessions.
package lrucache
