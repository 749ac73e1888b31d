package core

// ExactAcceptRule accepts the top candidate when its score clears
// ExactThreshold and it leads the runner-up by at least MinGap. The gap
// requirement keeps a near-tie from being accepted as if it were
// unambiguous.
type ExactAcceptRule struct{}

// Name identifies the rule in decision paths.
func (ExactAcceptRule) Name() string { return "exact_accept" }

// Evaluate fires only for a clear, high-confidence leader.
func (ExactAcceptRule) Evaluate(req DecisionRequest, cfg Config) *Decision {
	if len(req.Candidates) == 0 {
		return nil
	}
	top := req.Candidates[0]
	if top.Score < cfg.ExactThreshold {
		return nil
	}
	if len(req.Candidates) > 1 && top.Score-req.Candidates[1].Score < cfg.MinGap {
		return nil
	}
	return &Decision{Kind: DecisionAccept, Candidate: &top}
}
