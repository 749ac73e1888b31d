package core

// DecisionRequest carries everything a rule may consult: the ranked
// candidate list and the record's category for fallback policy selection.
type DecisionRequest struct {
	Candidates []Candidate
	Category   string
}

// Rule is one named policy in the ordered chain. Evaluate returns nil when
// the rule's precondition does not fire; rules are pure functions of the
// request and configuration.
type Rule interface {
	Name() string
	Evaluate(req DecisionRequest, cfg Config) *Decision
}

// RulesEngine applies an ordered, short-circuiting chain of rules: the first
// rule whose precondition fires determines the decision.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// NewDefaultRulesEngine builds an engine with the built-in policy chain in
// its fixed priority order. RejectRule is terminal and always fires.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(ExactAcceptRule{})
	engine.Register(AmbiguityRule{})
	engine.Register(FuzzyAcceptRule{})
	engine.Register(FallbackIDRule{})
	engine.Register(RejectRule{})
	return engine
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Decide evaluates the chain and returns the first firing rule's decision
// together with the ordered names of every rule evaluated, the firing rule
// last. A chain without a terminal rule falls through to a reject decision.
func (e *RulesEngine) Decide(req DecisionRequest, cfg Config) (Decision, []string) {
	path := make([]string, 0, len(e.rules))
	for _, rule := range e.rules {
		path = append(path, rule.Name())
		if dec := rule.Evaluate(req, cfg); dec != nil {
			return *dec, path
		}
	}
	return Decision{Kind: DecisionReject, Reason: "no rule fired"}, path
}
