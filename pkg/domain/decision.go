package domain

// DecisionKind identifies the shape of a rules-engine decision.
type DecisionKind string

// Decision kinds produced by the policy chain.
const (
	// DecisionAccept accepts the top candidate.
	DecisionAccept DecisionKind = "accept"
	// DecisionAcceptFallback assigns a configured category fallback id.
	DecisionAcceptFallback DecisionKind = "accept_fallback"
	// DecisionReject declines to assign any identifier.
	DecisionReject DecisionKind = "reject"
	// DecisionAmbiguous reports statistically indistinguishable candidates.
	DecisionAmbiguous DecisionKind = "ambiguous"
)

// Decision is the outcome of the ordered rule chain for one candidate list.
type Decision struct {
	Kind DecisionKind
	// Candidate is set for DecisionAccept.
	Candidate *Candidate
	// FallbackID is set for DecisionAcceptFallback.
	FallbackID string
	// TopCandidates carries the tied set for DecisionAmbiguous.
	TopCandidates []Candidate
	Reason        string
}

// Status maps the decision to the result status recorded downstream.
func (d Decision) Status() Status {
	switch d.Kind {
	case DecisionAccept:
		return StatusMatched
	case DecisionAcceptFallback:
		return StatusMatchedByFallback
	case DecisionAmbiguous:
		return StatusAmbiguous
	default:
		return StatusUnmatched
	}
}

// Confidence returns the winning candidate's score, or 0 when the decision
// leaves the record unresolved.
func (d Decision) Confidence() float64 {
	if d.Kind == DecisionAccept && d.Candidate != nil {
		return d.Candidate.Score
	}
	return 0
}
