package core

// RejectRule is the terminal rule: it always fires, declining to assign when
// nothing earlier in the chain did.
type RejectRule struct{}

// Name identifies the rule in decision paths.
func (RejectRule) Name() string { return "reject" }

// Evaluate unconditionally rejects.
func (RejectRule) Evaluate(DecisionRequest, Config) *Decision {
	return &Decision{Kind: DecisionReject, Reason: "no candidate above threshold"}
}
