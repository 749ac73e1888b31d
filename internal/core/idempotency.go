package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// IdempotencyKey derives the dedup key for one record within a generation.
// Upstream source ids are not reliably unique, so the key combines the
// source id with an RFC 8785 canonical hash of the attributes; identical
// resubmissions converge on the same key while attribute changes do not.
func IdempotencyKey(record SourceRecord, generation uint64) (string, error) {
	attrs := record.Attributes
	if attrs == nil {
		attrs = Attributes{}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize attributes: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%s:%d:%s", record.SourceID, generation, hex.EncodeToString(sum[:])), nil
}
