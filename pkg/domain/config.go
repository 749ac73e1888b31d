package domain

import (
	"runtime"
	"time"
)

// Default threshold and limit values applied by Config.WithDefaults.
const (
	DefaultExactThreshold = 0.98
	DefaultFuzzyThreshold = 0.80
	DefaultMinGap         = 0.05
	DefaultMinScore       = 0.50
	DefaultCandidateLimit = 20
	DefaultDedupRetention = 24 * time.Hour
	DefaultIOTimeout      = 5 * time.Second
)

// DefaultPunctuation is the punctuation set stripped by the normalizer when
// none is configured.
const DefaultPunctuation = ".,;:!?'\"()[]{}&/\\-_"

// Config is the engine's recognized configuration surface. The zero value is
// usable after WithDefaults.
type Config struct {
	// ExactThreshold is the minimum score for unambiguous acceptance.
	ExactThreshold float64 `json:"exact_threshold"`
	// FuzzyThreshold is the minimum score for fallback-grade acceptance.
	FuzzyThreshold float64 `json:"fuzzy_threshold"`
	// MinGap is the minimum score distance between the top two candidates
	// before the leader may be accepted as unambiguous.
	MinGap float64 `json:"min_gap"`
	// MinScore is the floor below which fuzzy candidates are discarded.
	MinScore float64 `json:"min_score"`
	// CandidateLimit caps the approximate-match candidates per record.
	CandidateLimit int `json:"candidate_limit"`
	// DedupRetention bounds how long idempotency records are kept.
	DedupRetention time.Duration `json:"dedup_retention"`
	// ConcurrencyLimit caps parallel workers in a batch call.
	ConcurrencyLimit int `json:"concurrency_limit"`
	// IOTimeout bounds dedup-store access and result emission.
	IOTimeout time.Duration `json:"io_timeout"`
	// FallbackIDsByCategory assigns a catch-all glossary id per record
	// category when no candidate clears FuzzyThreshold.
	FallbackIDsByCategory map[string]string `json:"fallback_ids_by_category,omitempty"`
	// Scorer names the similarity function used in the fuzzy pass.
	Scorer string `json:"scorer,omitempty"`

	// KeyAttributes lists the attributes composing the normalized key, in
	// any order; empty means all attributes, sorted by name.
	KeyAttributes []string `json:"key_attributes,omitempty"`
	// RequiredAttributes must be present on every record and glossary entity.
	RequiredAttributes []string `json:"required_attributes,omitempty"`
	// Punctuation is the character set stripped during normalization.
	Punctuation string `json:"punctuation,omitempty"`
	// SortTokens orders the tokens of each attribute value canonically
	// before concatenation.
	SortTokens bool `json:"sort_tokens,omitempty"`
}

// WithDefaults returns a copy with unset options replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.ExactThreshold <= 0 {
		c.ExactThreshold = DefaultExactThreshold
	}
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if c.MinGap <= 0 {
		c.MinGap = DefaultMinGap
	}
	if c.MinScore <= 0 {
		c.MinScore = DefaultMinScore
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = DefaultCandidateLimit
	}
	if c.DedupRetention <= 0 {
		c.DedupRetention = DefaultDedupRetention
	}
	if c.ConcurrencyLimit <= 0 {
		c.ConcurrencyLimit = runtime.GOMAXPROCS(0)
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = DefaultIOTimeout
	}
	if c.Punctuation == "" {
		c.Punctuation = DefaultPunctuation
	}
	return c
}
