package core

import "sort"

// Matcher produces the ranked candidate list for one normalized record
// against an index snapshot. It performs no I/O and represents "no match" as
// an empty list, never as an error.
type Matcher struct {
	scorer    Scorer
	matchedOn []string
}

// NewMatcher constructs a matcher using the given similarity scorer. The
// matchedOn attribution on emitted candidates names the configured key
// attributes, or the synthetic "normalized_key" when keys span all
// attributes.
func NewMatcher(scorer Scorer, cfg Config) *Matcher {
	matchedOn := append([]string(nil), cfg.KeyAttributes...)
	if len(matchedOn) == 0 {
		matchedOn = []string{"normalized_key"}
	}
	return &Matcher{scorer: scorer, matchedOn: matchedOn}
}

// Match runs the exact pass and, only on a miss, the fuzzy pass. The result
// is ordered by descending score with ties broken by ascending entity id;
// an empty normalized key or an empty snapshot yields no candidates.
func (m *Matcher) Match(key string, snap *IndexSnapshot, cfg Config) []Candidate {
	if key == "" || snap.Len() == 0 {
		return nil
	}

	// Exact pass: normalized-key equality short-circuits at score 1.0.
	// Multiple hits mean the glossary itself carries colliding keys; all
	// are emitted so the ambiguity policy can see the tie.
	if exact := snap.LookupExact(key); len(exact) > 0 {
		out := make([]Candidate, len(exact))
		for i, entity := range exact {
			out[i] = Candidate{Entity: entity, Score: 1.0, MatchedOn: m.matchedOn}
		}
		return out
	}

	approx := snap.LookupCandidates(key, cfg.CandidateLimit)
	if len(approx) == 0 {
		return nil
	}
	out := make([]Candidate, 0, len(approx))
	for _, match := range approx {
		score := m.scorer.Score(key, match.Entity.NormalizedKey)
		if score < cfg.MinScore {
			continue
		}
		out = append(out, Candidate{Entity: match.Entity, Score: score, MatchedOn: m.matchedOn})
	}
	sortCandidates(out)
	return out
}

// sortCandidates orders by descending score, ties by ascending entity id, so
// matching is deterministic for a fixed snapshot and config.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Entity.ID < cands[j].Entity.ID
	})
}
