// Package memory provides an in-memory result sink used for tests and
// dry-run tooling.
package memory

import (
	"context"
	"sync"

	"refmap/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.ResultSink = (*Sink)(nil)

// MappingResult aliases domain.MappingResult collected by the sink.
type MappingResult = domain.MappingResult

// Sink accumulates stored results in order of arrival.
type Sink struct {
	mu      sync.Mutex
	results []MappingResult
}

// NewSink constructs an empty in-memory sink.
func NewSink() *Sink { return &Sink{} }

// Store appends the batch to the collected results.
func (s *Sink) Store(ctx context.Context, results []MappingResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.results = append(s.results, results...)
	s.mu.Unlock()
	return nil
}

// Results returns a copy of everything stored so far.
func (s *Sink) Results() []MappingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MappingResult(nil), s.results...)
}

// Reset discards all collected results.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.results = nil
	s.mu.Unlock()
}
