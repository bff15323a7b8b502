/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package interceptor guards request handling with the per-identity admission check.
// It's transport-neutral: the HTTP middleware and in-process callers adapt their requests to RequestHandler.
package interceptor
