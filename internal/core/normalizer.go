package core

import (
	"sort"
	"strings"

	"refmap/pkg/domain"
)

// Normalizer canonicalizes record attributes into a comparable key. It is a
// pure function of its configuration: the same attributes always produce the
// same key.
type Normalizer struct {
	keyAttrs []string
	required map[string]bool
	strip    map[rune]bool
	sortTok  bool
}

// NewNormalizer builds a normalizer from the configured canonicalization
// rules. The configuration is expected to have defaults applied.
func NewNormalizer(cfg Config) *Normalizer {
	strip := make(map[rune]bool, len(cfg.Punctuation))
	for _, r := range cfg.Punctuation {
		strip[r] = true
	}
	required := make(map[string]bool, len(cfg.RequiredAttributes))
	for _, name := range cfg.RequiredAttributes {
		required[name] = true
	}
	return &Normalizer{
		keyAttrs: append([]string(nil), cfg.KeyAttributes...),
		required: required,
		strip:    strip,
		sortTok:  cfg.SortTokens,
	}
}

// Normalize derives the canonical key for the given attributes: lowercase,
// punctuation stripped, whitespace collapsed, attribute values concatenated
// in canonical order. Returns InvalidAttributeError when a required or
// configured key attribute is absent.
func (n *Normalizer) Normalize(attrs Attributes) (string, error) {
	for name := range n.required {
		if _, ok := attrs[name]; !ok {
			return "", domain.InvalidAttributeError{Attribute: name}
		}
	}

	names := n.keyAttrs
	if len(names) == 0 {
		names = make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		value, ok := attrs[name]
		if !ok {
			if len(n.keyAttrs) > 0 {
				return "", domain.InvalidAttributeError{Attribute: name}
			}
			continue
		}
		if canon := n.canonicalize(value); canon != "" {
			parts = append(parts, canon)
		}
	}
	// Multi-valued keys are sorted so attribute ordering upstream cannot
	// change the derived key.
	if len(parts) > 1 {
		sort.Strings(parts)
	}
	return strings.Join(parts, " "), nil
}

func (n *Normalizer) canonicalize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(value) {
		if n.strip[r] {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	tokens := strings.Fields(b.String())
	if n.sortTok {
		sort.Strings(tokens)
	}
	return strings.Join(tokens, " ")
}
