/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package api contains HTTP handlers of the quotagate service (/api/quotagate/v1).
package api
