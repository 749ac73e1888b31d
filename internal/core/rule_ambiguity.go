package core

import (
	"fmt"
	"strings"
)

// AmbiguityRule reports a tie when the top candidates sit within MinGap of
// each other and all clear FuzzyThreshold. A tie is a reportable business
// outcome requiring external adjudication, never a silent pick.
type AmbiguityRule struct{}

// Name identifies the rule in decision paths.
func (AmbiguityRule) Name() string { return "ambiguity" }

// Evaluate fires when at least two qualifying candidates are statistically
// indistinguishable, carrying the full tied set.
func (AmbiguityRule) Evaluate(req DecisionRequest, cfg Config) *Decision {
	if len(req.Candidates) < 2 {
		return nil
	}
	top := req.Candidates[0]
	second := req.Candidates[1]
	if top.Score < cfg.FuzzyThreshold || second.Score < cfg.FuzzyThreshold {
		return nil
	}
	if top.Score-second.Score >= cfg.MinGap {
		return nil
	}

	tied := []Candidate{top}
	for _, cand := range req.Candidates[1:] {
		if cand.Score < cfg.FuzzyThreshold || top.Score-cand.Score >= cfg.MinGap {
			break
		}
		tied = append(tied, cand)
	}
	ids := make([]string, len(tied))
	for i, cand := range tied {
		ids[i] = cand.Entity.ID
	}
	return &Decision{
		Kind:          DecisionAmbiguous,
		TopCandidates: tied,
		Reason:        fmt.Sprintf("indistinguishable candidates: %s", strings.Join(ids, ", ")),
	}
}
