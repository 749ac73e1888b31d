package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"refmap/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "dedup.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutIfAbsentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "R1"
	want := MappingResult{
		SourceID:     "feed:1",
		AssignedID:   &id,
		Confidence:   0.91,
		DecisionPath: []string{"exact_accept", "ambiguity", "fuzzy_accept"},
		Status:       domain.StatusMatched,
		Generation:   3,
	}

	got, stored, err := store.PutIfAbsent(ctx, "k1", want, time.Now().Add(time.Hour))
	if err != nil || !stored {
		t.Fatalf("put: stored=%v err=%v", stored, err)
	}
	if got.SourceID != want.SourceID {
		t.Fatalf("authoritative entry = %+v", got)
	}

	cached, ok, err := store.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if cached.SourceID != want.SourceID || cached.Status != want.Status ||
		cached.Confidence != want.Confidence || cached.Generation != want.Generation {
		t.Fatalf("round trip mismatch: got %+v want %+v", cached, want)
	}
	if cached.AssignedID == nil || *cached.AssignedID != "R1" {
		t.Fatalf("assigned id lost in round trip: %+v", cached)
	}
}

func TestPutIfAbsentKeepsFirstEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	if _, stored, err := store.PutIfAbsent(ctx, "k1", MappingResult{SourceID: "first"}, expires); err != nil || !stored {
		t.Fatalf("first put: stored=%v err=%v", stored, err)
	}
	got, stored, err := store.PutIfAbsent(ctx, "k1", MappingResult{SourceID: "second"}, expires)
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if stored {
		t.Fatalf("second put must not overwrite a live entry")
	}
	if got.SourceID != "first" {
		t.Fatalf("loser must receive the stored entry, got %+v", got)
	}
}

func TestExpiredEntriesAreReplaceable(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if _, stored, err := store.PutIfAbsent(ctx, "k1", MappingResult{SourceID: "old"}, now.Add(time.Minute)); err != nil || !stored {
		t.Fatalf("put: stored=%v err=%v", stored, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, err := store.Get(ctx, "k1"); err != nil || ok {
		t.Fatalf("expired entry visible: ok=%v err=%v", ok, err)
	}

	got, stored, err := store.PutIfAbsent(ctx, "k1", MappingResult{SourceID: "new"}, now.Add(time.Minute))
	if err != nil || !stored {
		t.Fatalf("put over expired: stored=%v err=%v", stored, err)
	}
	if got.SourceID != "new" {
		t.Fatalf("fresh write should be authoritative, got %+v", got)
	}
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, _ = store.PutIfAbsent(ctx, "live", MappingResult{SourceID: "a"}, now.Add(time.Hour))
	_, _, _ = store.PutIfAbsent(ctx, "dead", MappingResult{SourceID: "b"}, now.Add(time.Minute))

	now = now.Add(10 * time.Minute)
	dropped, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("pruned %d rows, want 1", dropped)
	}
	if _, ok, _ := store.Get(ctx, "live"); !ok {
		t.Fatalf("live entry removed by prune")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.db")
	ctx := context.Background()

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, stored, err := store.PutIfAbsent(ctx, "k1", MappingResult{SourceID: "a", Status: domain.StatusMatched}, time.Now().Add(time.Hour)); err != nil || !stored {
		t.Fatalf("put: stored=%v err=%v", stored, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, ok, err := reopened.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got.SourceID != "a" {
		t.Fatalf("entry lost across reopen: %+v", got)
	}
}
