// Package fs provides a glossary source reading a JSON document from the
// local filesystem.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"refmap/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.GlossarySource = (*Source)(nil)

// ReferenceEntity aliases domain.ReferenceEntity decoded from the document.
type ReferenceEntity = domain.ReferenceEntity

// Source reads the complete glossary from a single JSON file holding an
// array of reference entities. Every load re-reads the file, so replacing
// the document and calling Reload picks up a new glossary generation.
type Source struct {
	path string
}

// NewSource constructs a source reading from path.
func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("glossary path required")
	}
	return &Source{path: path}, nil
}

// LoadGlossary reads and decodes the glossary document.
func (s *Source) LoadGlossary(ctx context.Context) ([]ReferenceEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read glossary %s: %w", s.path, err)
	}
	var entities []ReferenceEntity
	if err := json.Unmarshal(payload, &entities); err != nil {
		return nil, fmt.Errorf("decode glossary %s: %w", s.path, err)
	}
	return entities, nil
}
