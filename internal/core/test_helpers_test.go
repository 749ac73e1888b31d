package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"refmap/pkg/domain"
)

func glossary() []ReferenceEntity {
	return []ReferenceEntity{
		{ID: "R1", Attributes: Attributes{"name": "Acme Corp"}},
		{ID: "R2", Attributes: Attributes{"name": "Globex Corporation"}},
		{ID: "R3", Attributes: Attributes{"name": "Initech"}},
		{ID: "R4", Attributes: Attributes{"name": "Umbrella Corp"}},
	}
}

func mustBuild(t *testing.T, generation uint64, entities []ReferenceEntity) *IndexSnapshot {
	t.Helper()
	norm := NewNormalizer(Config{}.WithDefaults())
	for i := range entities {
		if entities[i].NormalizedKey == "" {
			key, err := norm.Normalize(entities[i].Attributes)
			if err != nil {
				t.Fatalf("normalize entity %s: %v", entities[i].ID, err)
			}
			entities[i].NormalizedKey = key
		}
	}
	snap, err := BuildIndex(generation, entities)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return snap
}

// staticSource serves a fixed glossary, optionally failing.
type staticSource struct {
	mu       sync.Mutex
	entities []ReferenceEntity
	err      error
	calls    int
}

func (s *staticSource) LoadGlossary(context.Context) ([]ReferenceEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]ReferenceEntity(nil), s.entities...), nil
}

func (s *staticSource) set(entities []ReferenceEntity) {
	s.mu.Lock()
	s.entities = entities
	s.mu.Unlock()
}

// fakeDedup is an in-process dedup store with injectable failures.
type fakeDedup struct {
	mu      sync.Mutex
	entries map[string]MappingResult
	getErr  error
	putErr  error
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{entries: map[string]MappingResult{}}
}

func (f *fakeDedup) Get(ctx context.Context, key string) (MappingResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return MappingResult{}, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return MappingResult{}, false, f.getErr
	}
	res, ok := f.entries[key]
	return res, ok, nil
}

func (f *fakeDedup) PutIfAbsent(ctx context.Context, key string, result MappingResult, _ time.Time) (MappingResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return MappingResult{}, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return MappingResult{}, false, f.putErr
	}
	if existing, ok := f.entries[key]; ok {
		return existing, false, nil
	}
	f.entries[key] = result
	return result, true, nil
}

// fakeSink collects stored results and can fail on demand.
type fakeSink struct {
	mu      sync.Mutex
	batches [][]MappingResult
	err     error
}

func (f *fakeSink) Store(ctx context.Context, results []MappingResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]MappingResult(nil), results...))
	return nil
}

func (f *fakeSink) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

// countingScorer wraps a scorer and counts invocations, so tests can assert
// that matching ran (or was skipped by the dedup cache).
type countingScorer struct {
	inner Scorer
	calls atomic64
}

type atomic64 struct {
	mu sync.Mutex
	n  int
}

func (a *atomic64) inc() {
	a.mu.Lock()
	a.n++
	a.mu.Unlock()
}

func (a *atomic64) value() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

func (c *countingScorer) Name() string { return "counting" }

func (c *countingScorer) Score(a, b string) float64 {
	c.calls.inc()
	return c.inner.Score(a, b)
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEmitter) Emit(_ context.Context, event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

var errStoreDown = errors.New("store down")

func assertStatus(t *testing.T, res MappingResult, want Status) {
	t.Helper()
	if res.Status != want {
		t.Fatalf("status = %q, want %q (result %+v)", res.Status, want, res)
	}
}

func assertAssigned(t *testing.T, res MappingResult, want string) {
	t.Helper()
	if res.AssignedID == nil {
		t.Fatalf("assigned id is nil, want %q (result %+v)", want, res)
	}
	if *res.AssignedID != want {
		t.Fatalf("assigned id = %q, want %q", *res.AssignedID, want)
	}
}

var _ domain.DedupStore = (*fakeDedup)(nil)
var _ domain.ResultSink = (*fakeSink)(nil)
var _ domain.GlossarySource = (*staticSource)(nil)
