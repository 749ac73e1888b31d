package core

// FuzzyAcceptRule accepts the top candidate when it clears FuzzyThreshold.
// It runs after AmbiguityRule in the default chain, so a firing here means
// no qualifying tie was detected. The fuzzy origin stays visible through the
// recorded decision path and the sub-exact confidence.
type FuzzyAcceptRule struct{}

// Name identifies the rule in decision paths.
func (FuzzyAcceptRule) Name() string { return "fuzzy_accept" }

// Evaluate fires for an unambiguous fallback-grade leader.
func (FuzzyAcceptRule) Evaluate(req DecisionRequest, cfg Config) *Decision {
	if len(req.Candidates) == 0 {
		return nil
	}
	top := req.Candidates[0]
	if top.Score < cfg.FuzzyThreshold {
		return nil
	}
	return &Decision{Kind: DecisionAccept, Candidate: &top, Reason: "fuzzy match"}
}
