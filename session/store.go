/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/lrucache"
)

// ErrAnonymousIdentity is returned when a session is requested for the anonymous identity.
var ErrAnonymousIdentity = errors.New("session cannot be issued for the anonymous identity")

// StoreOpts represents options for the Store.
type StoreOpts struct {
	// TTL is a lifetime of the issued token. DefaultTTL is used if zero.
	TTL time.Duration

	// MaxEntries is a maximum number of live sessions. DefaultMaxEntries is used if zero.
	MaxEntries int

	// MetricsCollector collects metrics of the underlying cache. May be nil.
	MetricsCollector lrucache.MetricsCollector

	// Clock returns the current time. It is time.Now if not set.
	Clock func() time.Time
}

// Store keeps session tokens bound to identities.
// It's safe for concurrent use.
type Store struct {
	cache *lrucache.LRUCache[string, string]
	ttl   time.Duration
}

// NewStore creates a new Store.
func NewStore(opts StoreOpts) (*Store, error) {
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("session TTL should not be negative")
	}
	if opts.MaxEntries == 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	cache, err := lrucache.NewWithOpts[string, string](opts.MaxEntries, opts.MetricsCollector,
		lrucache.Options{DefaultTTL: opts.TTL, Clock: opts.Clock})
	if err != nil {
		return nil, fmt.Errorf("create sessions cache: %w", err)
	}
	return &Store{cache: cache, ttl: opts.TTL}, nil
}

// NewStoreFromConfig creates a new Store using the configuration.
func NewStoreFromConfig(cfg *Config, metricsCollector lrucache.MetricsCollector) (*Store, error) {
	return NewStore(StoreOpts{
		TTL:              cfg.TTL.Duration(),
		MaxEntries:       cfg.MaxEntries,
		MetricsCollector: metricsCollector,
	})
}

// TTL returns a lifetime of the issued tokens.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Issue creates a new token for the identity.
// Tokens are random (UUID v4), so a token can't be derived from any other one.
// Several tokens may be issued for the same identity, each of them is independent.
func (s *Store) Issue(identity string) (string, error) {
	if identity == "" || identity == admission.AnonymousIdentity {
		return "", ErrAnonymousIdentity
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := id.String()
	s.cache.Add(token, identity)
	return token, nil
}

// Resolve returns the identity bound to the live token.
func (s *Store) Resolve(token string) (identity string, ok bool) {
	if token == "" {
		return "", false
	}
	return s.cache.Get(token)
}

// Revoke removes the token. It reports whether the token was present.
func (s *Store) Revoke(token string) bool {
	if token == "" {
		return false
	}
	return s.cache.Remove(token)
}

// Len returns the number of stored sessions (expired but not yet cleaned up ones included).
func (s *Store) Len() int {
	return s.cache.Len()
}

// Cleaner removes expired sessions from the Store.
// It implements service.Worker and is supposed to be run by service.PeriodicWorker.
type Cleaner struct {
	store  *Store
	logger log.FieldLogger
}

// NewCleaner creates a new Cleaner.
func NewCleaner(store *Store, logger log.FieldLogger) *Cleaner {
	return &Cleaner{store: store, logger: logger}
}

// Run removes expired sessions once.
func (c *Cleaner) Run(_ context.Context) error {
	if removed := c.store.cache.RemoveExpired(); removed > 0 {
		c.logger.Debug("expired sessions removed", log.Int("removed", removed), log.Int("left", c.store.Len()))
	}
	return nil
}
