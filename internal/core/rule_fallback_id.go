package core

import "fmt"

// FallbackIDRule assigns the configured catch-all bucket id for the record's
// category when no candidate cleared the fuzzy threshold.
type FallbackIDRule struct{}

// Name identifies the rule in decision paths.
func (FallbackIDRule) Name() string { return "fallback_id" }

// Evaluate fires when a fallback identifier is configured for the category.
func (FallbackIDRule) Evaluate(req DecisionRequest, cfg Config) *Decision {
	id, ok := cfg.FallbackIDsByCategory[req.Category]
	if !ok || id == "" {
		return nil
	}
	return &Decision{
		Kind:       DecisionAcceptFallback,
		FallbackID: id,
		Reason:     fmt.Sprintf("category %q fallback", req.Category),
	}
}
