// Package memory provides an in-memory glossary source for tests and
// embedded use.
package memory

import (
	"context"
	"sync"

	"refmap/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.GlossarySource = (*Source)(nil)

// ReferenceEntity aliases domain.ReferenceEntity served by the source.
type ReferenceEntity = domain.ReferenceEntity

// Source serves a fixed glossary that can be swapped wholesale between
// loads.
type Source struct {
	mu       sync.RWMutex
	entities []ReferenceEntity
}

// NewSource constructs a source serving the given entities.
func NewSource(entities []ReferenceEntity) *Source {
	s := &Source{}
	s.Replace(entities)
	return s
}

// LoadGlossary returns a copy of the current glossary.
func (s *Source) LoadGlossary(ctx context.Context) ([]ReferenceEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ReferenceEntity(nil), s.entities...), nil
}

// Replace swaps the glossary served by subsequent loads.
func (s *Source) Replace(entities []ReferenceEntity) {
	cpy := append([]ReferenceEntity(nil), entities...)
	s.mu.Lock()
	s.entities = cpy
	s.mu.Unlock()
}
