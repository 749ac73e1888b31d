package core

import (
	"sort"
	"strings"

	"refmap/pkg/domain"
)

// IndexSnapshot is one immutable generation of the loaded glossary. It holds
// an exact-key map and a token inverted index over normalized keys.
// Concurrent reads are always safe; a snapshot is never mutated after build.
type IndexSnapshot struct {
	generation uint64
	entities   []ReferenceEntity // sorted by ascending id
	byID       map[string]int
	exact      map[string][]int // normalized key -> entity positions
	postings   map[string][]int // token -> entity positions
}

// ApproxMatch pairs an entity with its approximate token-overlap score.
type ApproxMatch struct {
	Entity ReferenceEntity
	Score  float64
}

// BuildIndex constructs a snapshot over the given entities. It fails with
// DuplicateIDError when two entities share an id and EmptyGlossaryError when
// given zero entities; both are fatal to the reload attempt and leave any
// prior snapshot untouched.
func BuildIndex(generation uint64, entities []ReferenceEntity) (*IndexSnapshot, error) {
	if len(entities) == 0 {
		return nil, domain.EmptyGlossaryError{}
	}

	sorted := append([]ReferenceEntity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	snap := &IndexSnapshot{
		generation: generation,
		entities:   sorted,
		byID:       make(map[string]int, len(sorted)),
		exact:      make(map[string][]int),
		postings:   make(map[string][]int),
	}
	for pos, entity := range sorted {
		if _, dup := snap.byID[entity.ID]; dup {
			return nil, domain.DuplicateIDError{ID: entity.ID}
		}
		snap.byID[entity.ID] = pos
		if entity.NormalizedKey == "" {
			continue
		}
		snap.exact[entity.NormalizedKey] = append(snap.exact[entity.NormalizedKey], pos)
		for _, tok := range uniqueTokens(entity.NormalizedKey) {
			snap.postings[tok] = append(snap.postings[tok], pos)
		}
	}
	return snap, nil
}

// Generation identifies this snapshot's reload generation.
func (s *IndexSnapshot) Generation() uint64 { return s.generation }

// Len reports the number of indexed entities.
func (s *IndexSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entities)
}

// FindID returns the entity with the given id within this generation.
func (s *IndexSnapshot) FindID(id string) (ReferenceEntity, bool) {
	if s == nil {
		return ReferenceEntity{}, false
	}
	pos, ok := s.byID[id]
	if !ok {
		return ReferenceEntity{}, false
	}
	return s.entities[pos], true
}

// LookupExact returns every entity whose normalized key equals key, ordered
// by ascending id. More than one entry means exact-key collision inside the
// glossary itself.
func (s *IndexSnapshot) LookupExact(key string) []ReferenceEntity {
	if s == nil || key == "" {
		return nil
	}
	positions := s.exact[key]
	if len(positions) == 0 {
		return nil
	}
	out := make([]ReferenceEntity, len(positions))
	for i, pos := range positions {
		out[i] = s.entities[pos]
	}
	return out
}

// LookupCandidates returns at most limit entities sharing tokens with key,
// ordered by descending token-overlap score, ties broken by ascending entity
// id.
func (s *IndexSnapshot) LookupCandidates(key string, limit int) []ApproxMatch {
	if s == nil || key == "" || limit <= 0 {
		return nil
	}
	keyTokens := uniqueTokens(key)
	if len(keyTokens) == 0 {
		return nil
	}

	overlap := make(map[int]int)
	for _, tok := range keyTokens {
		for _, pos := range s.postings[tok] {
			overlap[pos]++
		}
	}
	if len(overlap) == 0 {
		return nil
	}

	matches := make([]ApproxMatch, 0, len(overlap))
	positions := make([]int, 0, len(overlap))
	for pos := range overlap {
		positions = append(positions, pos)
	}
	// Entities are sorted by id, so position order doubles as the id
	// tie-break.
	sort.Ints(positions)
	for _, pos := range positions {
		entity := s.entities[pos]
		shared := overlap[pos]
		union := len(keyTokens) + len(uniqueTokens(entity.NormalizedKey)) - shared
		matches = append(matches, ApproxMatch{
			Entity: entity,
			Score:  float64(shared) / float64(union),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func uniqueTokens(key string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.Fields(key) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
