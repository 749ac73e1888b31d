package domain

import (
	"context"
	"time"
)

// GlossarySource pulls a complete, self-consistent glossary snapshot. A
// partial glossary must be surfaced as an error, never as a short list.
type GlossarySource interface {
	LoadGlossary(ctx context.Context) ([]ReferenceEntity, error)
}

// ResultSink receives mapping results, one per input record in input order
// for a batch call. Implementations own durability.
type ResultSink interface {
	Store(ctx context.Context, results []MappingResult) error
}

// DedupStore holds short-lived idempotency records keyed by source id plus
// attribute content hash. Updates must be atomic per key.
type DedupStore interface {
	// Get returns the result previously recorded under key, if a live
	// entry exists.
	Get(ctx context.Context, key string) (MappingResult, bool, error)
	// PutIfAbsent records result under key unless a live entry already
	// exists, and returns the authoritative entry along with whether the
	// write happened.
	PutIfAbsent(ctx context.Context, key string, result MappingResult, expiresAt time.Time) (MappingResult, bool, error)
}

// Logger is the minimal structured logging surface accepted by the engine.
// Keys and values alternate, slog style.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// MetricsRecorder observes per-operation outcomes and latencies.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// EventEmitter receives one observability event per mapped record.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}
