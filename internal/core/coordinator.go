package core

import (
	"context"
	"errors"
	"time"
)

// Coordinator converts decisions into final mapping results and guarantees
// at-most-one accepted assignment per (source id, generation) pair, even
// under concurrent resubmission. When the dedup store is unavailable it
// degrades to assignment without duplicate suppression rather than failing
// the record.
type Coordinator struct {
	store  DedupStore // nil disables deduplication entirely
	logger Logger
	clock  func() time.Time
}

// NewCoordinator constructs a coordinator over the given dedup store; a nil
// store is accepted and simply skips deduplication.
func NewCoordinator(store DedupStore, logger Logger) *Coordinator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Coordinator{store: store, logger: logger, clock: time.Now}
}

// Assign resolves one record: on a live dedup hit the cached result is
// returned and compute never runs; otherwise compute produces the decision,
// the result is recorded, and a concurrent racer's entry wins if it got
// there first. The returned bool reports whether the result came from the
// cache.
func (c *Coordinator) Assign(ctx context.Context, record SourceRecord, generation uint64, cfg Config, compute func() (Decision, []string)) (MappingResult, bool) {
	if c.store == nil {
		return c.build(record, generation, compute), false
	}

	key, err := IdempotencyKey(record, generation)
	if err != nil {
		c.logger.Warn("idempotency key derivation failed, assigning without dedup",
			"source_id", record.SourceID, "error", err)
		res := c.build(record, generation, compute)
		res.Degraded = true
		return res, false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, cfg.IOTimeout)
	cached, hit, err := c.store.Get(lookupCtx, key)
	cancel()
	switch {
	case err == nil && hit:
		return cached, true
	case errors.Is(err, context.DeadlineExceeded):
		return c.timeoutResult(record, generation), false
	case err != nil:
		c.logger.Warn("dedup store unavailable, assigning without dedup",
			"source_id", record.SourceID, "error", err)
		res := c.build(record, generation, compute)
		res.Degraded = true
		return res, false
	}

	res := c.build(record, generation, compute)

	putCtx, cancel := context.WithTimeout(ctx, cfg.IOTimeout)
	authoritative, stored, err := c.store.PutIfAbsent(putCtx, key, res, c.clock().Add(cfg.DedupRetention))
	cancel()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return c.timeoutResult(record, generation), false
	case err != nil:
		c.logger.Warn("dedup store write failed, result not deduplicated",
			"source_id", record.SourceID, "error", err)
		res.Degraded = true
		return res, false
	case !stored:
		// A concurrent submission recorded first; its result is the one
		// already emitted downstream.
		return authoritative, true
	}
	return res, false
}

func (c *Coordinator) build(record SourceRecord, generation uint64, compute func() (Decision, []string)) MappingResult {
	decision, path := compute()
	res := MappingResult{
		SourceID:     record.SourceID,
		Confidence:   decision.Confidence(),
		DecisionPath: path,
		Status:       decision.Status(),
		Reason:       decision.Reason,
		Generation:   generation,
	}
	switch decision.Kind {
	case DecisionAccept:
		if decision.Candidate != nil {
			id := decision.Candidate.Entity.ID
			res.AssignedID = &id
		}
	case DecisionAcceptFallback:
		id := decision.FallbackID
		res.AssignedID = &id
	}
	return res
}

func (c *Coordinator) timeoutResult(record SourceRecord, generation uint64) MappingResult {
	return MappingResult{
		SourceID:   record.SourceID,
		Status:     StatusUnmatched,
		Reason:     "coordinator timeout",
		Generation: generation,
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
