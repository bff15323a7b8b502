/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"fmt"
	"sync"
)

// AnonymousIdentity is a reserved identity for callers that are not authenticated.
const AnonymousIdentity = "anonymous"

// DefaultAnonymousCeiling is a default number of requests per window for the anonymous tier.
const DefaultAnonymousCeiling = 1

// IdentityRegistry resolves the ceiling (max requests per window) for the identity.
// It must be a total function: identities that are not known resolve to the anonymous tier.
type IdentityRegistry interface {
	CeilingFor(identity string) int
}

// Registry is an in-memory IdentityRegistry.
// Lookups may be done concurrently with the administrative mutations (SetCeiling, RemoveIdentity).
type Registry struct {
	mu               sync.RWMutex
	ceilings         map[string]int
	anonymousCeiling int
}

var _ IdentityRegistry = (*Registry)(nil)

// NewRegistry creates a new Registry with the passed identity->ceiling table.
func NewRegistry(ceilings map[string]int, anonymousCeiling int) (*Registry, error) {
	if anonymousCeiling <= 0 {
		return nil, fmt.Errorf("anonymous ceiling should be positive, got %d", anonymousCeiling)
	}
	table := make(map[string]int, len(ceilings))
	for identity, ceiling := range ceilings {
		if err := validateIdentityCeiling(identity, ceiling); err != nil {
			return nil, err
		}
		table[identity] = ceiling
	}
	return &Registry{ceilings: table, anonymousCeiling: anonymousCeiling}, nil
}

// CeilingFor returns the ceiling for the identity or the anonymous ceiling if the identity is unknown.
func (r *Registry) CeilingFor(identity string) int {
	if ceiling, ok := r.Lookup(identity); ok {
		return ceiling
	}
	return r.anonymousCeiling
}

// Lookup returns the configured ceiling for the identity and whether the identity is known.
func (r *Registry) Lookup(identity string) (ceiling int, known bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ceiling, known = r.ceilings[identity]
	return ceiling, known
}

// AnonymousCeiling returns the ceiling of the anonymous tier.
func (r *Registry) AnonymousCeiling() int {
	return r.anonymousCeiling
}

// SetCeiling adds the identity or changes its ceiling.
func (r *Registry) SetCeiling(identity string, ceiling int) error {
	if err := validateIdentityCeiling(identity, ceiling); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ceilings[identity] = ceiling
	return nil
}

// RemoveIdentity removes the identity, so it falls into the anonymous tier afterward.
// Returns false if the identity was not known.
func (r *Registry) RemoveIdentity(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ceilings[identity]; !ok {
		return false
	}
	delete(r.ceilings, identity)
	return true
}

// Identities returns a snapshot of the identity->ceiling table.
func (r *Registry) Identities() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make(map[string]int, len(r.ceilings))
	for identity, ceiling := range r.ceilings {
		res[identity] = ceiling
	}
	return res
}

func validateIdentityCeiling(identity string, ceiling int) error {
	if identity == "" {
		return fmt.Errorf("identity cannot be empty")
	}
	if identity == AnonymousIdentity {
		return fmt.Errorf("identity %q is reserved for the anonymous tier, use anonymous ceiling instead", identity)
	}
	if ceiling <= 0 {
		return fmt.Errorf("ceiling for identity %q should be positive, got %d", identity, ceiling)
	}
	return nil
}
