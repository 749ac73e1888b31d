// Package domain defines the core value types, error types, and collaborator
// interfaces used by the refmap mapping engine.
package domain

import "time"

// Attributes maps attribute names to raw scalar values as delivered by the
// ingestion layer. Type coercion is the ingestion layer's responsibility.
type Attributes map[string]string

// Clone returns an independent copy of the attribute map.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	cp := make(Attributes, len(a))
	for k, v := range a {
		cp[k] = v
	}
	return cp
}

// ReferenceEntity is one row of the reference data glossary. Entities are
// immutable within a reload generation and replaced wholesale on the next
// reload. IDs are stable and never reused.
type ReferenceEntity struct {
	ID            string     `json:"id"`
	Attributes    Attributes `json:"attributes"`
	NormalizedKey string     `json:"normalized_key,omitempty"`
}

// SourceRecord is one incoming record from a feed, already preprocessed by
// the excluded ingestion layer. SourceID is feed-local and not globally
// unique; Category selects the fallback identifier policy, when configured.
type SourceRecord struct {
	SourceID   string     `json:"source_id"`
	Category   string     `json:"category,omitempty"`
	Attributes Attributes `json:"attributes"`
}

// Candidate is a scored pairing of a source record with a reference entity.
type Candidate struct {
	Entity ReferenceEntity `json:"entity"`
	// Score is the similarity in [0,1]; 1.0 means exact normalized-key
	// equality.
	Score float64 `json:"score"`
	// MatchedOn names the attribute(s) that produced the score.
	MatchedOn []string `json:"matched_on,omitempty"`
}

// Status enumerates the terminal outcomes of mapping one source record.
type Status string

// Mapping outcomes routed to the result sink. Ambiguous and Unmatched are
// expected business outcomes, never errors.
const (
	// StatusMatched indicates a confident assignment to a glossary entity.
	StatusMatched Status = "matched"
	// StatusMatchedByFallback indicates assignment of a configured
	// category fallback identifier.
	StatusMatchedByFallback Status = "matched_by_fallback"
	// StatusUnmatched indicates no assignment was made.
	StatusUnmatched Status = "unmatched"
	// StatusAmbiguous indicates two or more statistically indistinguishable
	// candidates requiring external adjudication.
	StatusAmbiguous Status = "ambiguous"
)

// MappingResult is the engine's immutable output for one source record.
// AssignedID is nil when the record stayed unresolved; when non-nil it always
// equals an entity id loaded in the generation the batch was pinned to.
type MappingResult struct {
	SourceID     string   `json:"source_id"`
	AssignedID   *string  `json:"assigned_id"`
	Confidence   float64  `json:"confidence"`
	DecisionPath []string `json:"decision_path,omitempty"`
	Status       Status   `json:"status"`
	Reason       string   `json:"reason,omitempty"`
	Generation   uint64   `json:"generation"`
	// Degraded marks results emitted while the dedup store was unavailable,
	// meaning the duplicate-suppression guarantee was temporarily weakened.
	Degraded bool `json:"degraded,omitempty"`
}

// BatchSummary aggregates per-record outcomes of one batch call for
// operational visibility.
type BatchSummary struct {
	Total      int            `json:"total"`
	ByStatus   map[Status]int `json:"by_status"`
	CacheHits  int            `json:"cache_hits"`
	Duration   time.Duration  `json:"duration"`
	StoreError string         `json:"store_error,omitempty"`
}

// Event is the per-record observability payload emitted to external
// consumers. Transport and dashboards are outside the engine.
type Event struct {
	SourceID     string        `json:"source_id"`
	Status       Status        `json:"status"`
	Confidence   float64       `json:"confidence"`
	DecisionPath []string      `json:"decision_path,omitempty"`
	Latency      time.Duration `json:"latency"`
}
