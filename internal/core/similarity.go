package core

import (
	"fmt"
	"strings"
)

// Scorer computes a similarity in [0,1] between two normalized keys; 1.0
// means equality. Scorers must be pure so matching stays deterministic.
type Scorer interface {
	Name() string
	Score(a, b string) float64
}

// Scorer names accepted in Config.Scorer.
const (
	ScorerLevenshtein = "levenshtein"
	ScorerJaroWinkler = "jaro-winkler"
	ScorerTokenSet    = "token-set"
)

// ScorerByName resolves a configured scorer name, defaulting to Jaro-Winkler
// when empty.
func ScorerByName(name string) (Scorer, error) {
	switch name {
	case "", ScorerJaroWinkler:
		return JaroWinklerScorer{}, nil
	case ScorerLevenshtein:
		return LevenshteinScorer{}, nil
	case ScorerTokenSet:
		return TokenSetScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}

// LevenshteinScorer scores by normalized edit distance.
type LevenshteinScorer struct{}

// Name identifies the scorer in configuration.
func (LevenshteinScorer) Name() string { return ScorerLevenshtein }

// Score returns 1 - distance/maxLen over runes.
func (LevenshteinScorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	len1, len2 := len(r1), len(r2)

	row := make([]int, len2+1)
	for i := 0; i <= len2; i++ {
		row[i] = i
	}
	for i := 1; i <= len1; i++ {
		prev := i
		for j := 1; j <= len2; j++ {
			val := row[j]
			if r1[i-1] == r2[j-1] {
				val = row[j-1]
			} else {
				val = min(min(row[j-1]+1, prev+1), row[j]+1)
			}
			row[j-1] = prev
			prev = val
		}
		row[len2] = prev
	}
	return row[len2]
}

// JaroWinklerScorer scores by Jaro similarity with the Winkler common-prefix
// boost. It behaves well on entity names where the head of the string carries
// most of the identity.
type JaroWinklerScorer struct{}

// Name identifies the scorer in configuration.
func (JaroWinklerScorer) Name() string { return ScorerJaroWinkler }

// Score returns the Jaro-Winkler similarity over runes.
func (JaroWinklerScorer) Score(a, b string) float64 {
	j := jaro(a, b)
	if j == 0 {
		return 0
	}
	// Winkler boost: up to 4 common prefix runes, scaling factor 0.1.
	r1, r2 := []rune(a), []rune(b)
	prefix := 0
	for prefix < len(r1) && prefix < len(r2) && prefix < 4 && r1[prefix] == r2[prefix] {
		prefix++
	}
	return j + float64(prefix)*0.1*(1-j)
}

func jaro(a, b string) float64 {
	r1, r2 := []rune(a), []rune(b)
	len1, len2 := len(r1), len(r2)
	if len1 == 0 && len2 == 0 {
		return 1
	}
	if len1 == 0 || len2 == 0 {
		return 0
	}

	window := max(len1, len2)/2 - 1
	if window < 0 {
		window = 0
	}
	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)

	matches := 0
	for i := range r1 {
		lo := max(0, i-window)
		hi := min(len2-1, i+window)
		for j := lo; j <= hi; j++ {
			if matched2[j] || r1[i] != r2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := range r1 {
		if !matched1[i] {
			continue
		}
		for !matched2[j] {
			j++
		}
		if r1[i] != r2[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len1) + m/float64(len2) + (m-t)/m) / 3
}

// TokenSetScorer scores by Jaccard overlap of whitespace-delimited tokens.
// It ignores token order entirely, which suits multi-word names with
// reordered components.
type TokenSetScorer struct{}

// Name identifies the scorer in configuration.
func (TokenSetScorer) Name() string { return ScorerTokenSet }

// Score returns |intersection| / |union| of the two token sets.
func (TokenSetScorer) Score(a, b string) float64 {
	set1 := tokenSet(a)
	set2 := tokenSet(b)
	if len(set1) == 0 && len(set2) == 0 {
		return 1
	}

	intersection := 0
	for tok := range set1 {
		if set2[tok] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
