/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"context"
	"sync"

	"github.com/acronis/go-quotagate/log"
)

// LoggingParams stores fields for the final "response completed" entry of the Logging middleware.
// Underlying middlewares and handlers (e.g., Identity and Admission) may extend them.
type LoggingParams struct {
	mu     sync.Mutex
	fields []log.Field
}

// ExtendFields extends list of fields that will be logged by the Logging middleware.
func (lp *LoggingParams) ExtendFields(fields ...log.Field) {
	lp.mu.Lock()
	lp.fields = append(lp.fields, fields...)
	lp.mu.Unlock()
}

// Fields returns a copy of the collected fields.
func (lp *LoggingParams) Fields() []log.Field {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return append([]log.Field(nil), lp.fields...)
}

// extendLoggingFields adds fields to the LoggingParams from the context (if any).
func extendLoggingFields(ctx context.Context, fields ...log.Field) {
	if lp := GetLoggingParamsFromContext(ctx); lp != nil {
		lp.ExtendFields(fields...)
	}
}
