/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package session binds opaque tokens to identities, so each request carries its own identity
// instead of relying on any process-wide "logged in" state.
// Tokens live in an in-memory LRU cache with TTL and are lost on restart.
package session
