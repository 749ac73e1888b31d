// Package memory provides an in-memory idempotency store used for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"refmap/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DedupStore = (*Store)(nil)

// MappingResult aliases domain.MappingResult held per idempotency key.
type MappingResult = domain.MappingResult

type entry struct {
	result    MappingResult
	expiresAt time.Time
}

// Store keeps idempotency entries in a mutex-guarded map. Expired entries are
// pruned lazily on access.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewStore constructs an empty in-memory idempotency store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the live entry recorded under key, if any.
func (s *Store) Get(ctx context.Context, key string) (MappingResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return MappingResult{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return MappingResult{}, false, nil
	}
	if !e.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return MappingResult{}, false, nil
	}
	return e.result, true, nil
}

// PutIfAbsent records result under key unless a live entry already exists.
// The returned result is the authoritative entry for the key.
func (s *Store) PutIfAbsent(ctx context.Context, key string, result MappingResult, expiresAt time.Time) (MappingResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return MappingResult{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.expiresAt.After(s.now()) {
		return e.result, false, nil
	}
	s.entries[key] = entry{result: result, expiresAt: expiresAt}
	return result, true, nil
}

// Prune removes all expired entries and returns how many were dropped.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	dropped := 0
	for key, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of entries currently held, live or expired.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
