/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"fmt"

	"github.com/vasayxtx/go-glob"
)

// BypassFunc reports whether the identity bypasses the admission check.
type BypassFunc func(identity string) bool

// NewBypassFunc makes a BypassFunc from identity glob patterns (e.g. "svc-*").
// Identities matching any of the excluded patterns bypass the admission.
// If included patterns are set, only matching identities are checked.
// Nil is returned if no patterns are set.
func NewBypassFunc(includedIdentities, excludedIdentities []string) (BypassFunc, error) {
	if len(includedIdentities) != 0 && len(excludedIdentities) != 0 {
		return nil, fmt.Errorf("included and excluded identities cannot be used together")
	}
	if len(excludedIdentities) != 0 {
		match := compilePatterns(excludedIdentities)
		return func(identity string) bool { return match(identity) }, nil
	}
	if len(includedIdentities) != 0 {
		match := compilePatterns(includedIdentities)
		return func(identity string) bool { return !match(identity) }, nil
	}
	return nil, nil
}

func compilePatterns(patterns []string) func(s string) bool {
	compiled := make([]func(s string) bool, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, glob.Compile(pattern))
	}
	return func(s string) bool {
		for i := range compiled {
			if compiled[i](s) {
				return true
			}
		}
		return false
	}
}
