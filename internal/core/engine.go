package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"refmap/pkg/domain"
)

// Engine composes the normalizer, matcher, rules engine, and assignment
// coordinator into the single operation "map one record" / "map a batch".
// The active index snapshot is held behind an atomic pointer: reload builds
// a full replacement before swapping, so in-flight batches keep the
// generation they pinned at start and readers are never blocked.
type Engine struct {
	cfg         Config
	source      GlossarySource
	sink        ResultSink
	normalizer  *Normalizer
	matcher     *Matcher
	rules       *RulesEngine
	dedup       DedupStore
	coordinator *Coordinator
	logger      Logger
	metrics     MetricsRecorder
	events      EventEmitter

	snapshot   atomic.Pointer[IndexSnapshot]
	generation atomic.Uint64
}

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger attaches a structured logger; the default discards everything.
func WithLogger(logger Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics attaches a metrics recorder for per-operation outcomes.
func WithMetrics(rec MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = rec }
}

// WithEventEmitter attaches the per-record observability event consumer.
func WithEventEmitter(emitter EventEmitter) Option {
	return func(e *Engine) { e.events = emitter }
}

// WithDedupStore attaches the idempotency store used by the assignment
// coordinator. Without one, deduplication is disabled.
func WithDedupStore(store DedupStore) Option {
	return func(e *Engine) { e.dedup = store }
}

// WithResultSink attaches the downstream result sink.
func WithResultSink(sink ResultSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithScorer overrides the similarity scorer selected by Config.Scorer.
func WithScorer(scorer Scorer) Option {
	return func(e *Engine) { e.matcher = NewMatcher(scorer, e.cfg) }
}

// WithRules replaces the default policy chain.
func WithRules(rules *RulesEngine) Option {
	return func(e *Engine) { e.rules = rules }
}

// New constructs an engine over the given glossary source. The initial
// snapshot is not loaded; call Reload before mapping.
func New(source GlossarySource, cfg Config, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("glossary source cannot be nil")
	}
	cfg = cfg.WithDefaults()
	scorer, err := ScorerByName(cfg.Scorer)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		source:     source,
		normalizer: NewNormalizer(cfg),
		matcher:    NewMatcher(scorer, cfg),
		rules:      NewDefaultRulesEngine(),
		logger:     noopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.coordinator = NewCoordinator(e.dedup, e.logger)
	return e, nil
}

// Config returns the effective configuration with defaults applied.
func (e *Engine) Config() Config { return e.cfg }

// Snapshot returns the currently active index snapshot, or nil before the
// first successful reload.
func (e *Engine) Snapshot() *IndexSnapshot { return e.snapshot.Load() }

// Reload pulls a complete glossary, builds the next-generation snapshot, and
// atomically swaps it in. A failed pull or build leaves the previous
// snapshot authoritative and is surfaced to the caller. Reload may run
// concurrently with mapping; it never exposes a half-built index.
func (e *Engine) Reload(ctx context.Context) (uint64, error) {
	start := time.Now()
	entities, err := e.source.LoadGlossary(ctx)
	if err != nil {
		e.observe(ctx, "reload", false, start)
		return 0, fmt.Errorf("load glossary: %w", err)
	}
	normalized := make([]ReferenceEntity, len(entities))
	for i, entity := range entities {
		if entity.NormalizedKey == "" {
			key, err := e.normalizer.Normalize(entity.Attributes)
			if err != nil {
				e.observe(ctx, "reload", false, start)
				return 0, fmt.Errorf("normalize glossary entity %s: %w", entity.ID, err)
			}
			entity.NormalizedKey = key
		}
		normalized[i] = entity
	}

	generation := e.generation.Add(1)
	snap, err := BuildIndex(generation, normalized)
	if err != nil {
		e.observe(ctx, "reload", false, start)
		return 0, fmt.Errorf("build snapshot: %w", err)
	}
	e.snapshot.Store(snap)
	e.observe(ctx, "reload", true, start)
	e.logger.Info("glossary snapshot swapped",
		"generation", generation, "entities", snap.Len(), "elapsed", time.Since(start))
	return generation, nil
}

// ErrNoSnapshot is returned when mapping is attempted before the first
// successful reload.
var ErrNoSnapshot = errors.New("no glossary snapshot loaded")

// MapRecord maps a single record against the active snapshot and emits the
// result to the sink.
func (e *Engine) MapRecord(ctx context.Context, record SourceRecord) (MappingResult, error) {
	results, _, err := e.MapBatch(ctx, []SourceRecord{record})
	if err != nil {
		return MappingResult{}, err
	}
	return results[0], nil
}

// MapBatch maps records in parallel up to the concurrency limit, one record
// end-to-end per worker, all pinned to the snapshot active at call time.
// Cancellation stops scheduling new records but lets in-flight records
// complete and be emitted. A single bad record never aborts the batch: every
// input yields exactly one result, in input order, plus a summary of counts
// by status.
func (e *Engine) MapBatch(ctx context.Context, records []SourceRecord) ([]MappingResult, BatchSummary, error) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, BatchSummary{}, ErrNoSnapshot
	}
	start := time.Now()

	results := make([]MappingResult, len(records))
	cached := make([]bool, len(records))
	// In-flight records finish their coordinator and sink I/O even when the
	// caller cancels, so accepted decisions are never half-recorded.
	detached := context.WithoutCancel(ctx)

	var group errgroup.Group
	group.SetLimit(e.cfg.ConcurrencyLimit)
	scheduled := 0
	for i := range records {
		if ctx.Err() != nil {
			break
		}
		scheduled++
		group.Go(func() error {
			results[i], cached[i] = e.mapOne(detached, records[i], snap)
			return nil
		})
	}
	_ = group.Wait()

	for i := scheduled; i < len(records); i++ {
		results[i] = MappingResult{
			SourceID:   records[i].SourceID,
			Status:     StatusUnmatched,
			Reason:     "batch cancelled",
			Generation: snap.Generation(),
		}
	}

	summary := e.emit(detached, results, cached)
	summary.Duration = time.Since(start)
	e.observe(ctx, "map_batch", summary.StoreError == "", start)
	return results, summary, nil
}

func (e *Engine) mapOne(ctx context.Context, record SourceRecord, snap *IndexSnapshot) (MappingResult, bool) {
	start := time.Now()

	key, err := e.normalizer.Normalize(record.Attributes)
	if err != nil {
		var invalid domain.InvalidAttributeError
		reason := "invalid input"
		if !errors.As(err, &invalid) {
			reason = err.Error()
		}
		res := MappingResult{
			SourceID:   record.SourceID,
			Status:     StatusUnmatched,
			Reason:     reason,
			Generation: snap.Generation(),
		}
		e.finish(ctx, res, start)
		return res, false
	}

	res, fromCache := e.coordinator.Assign(ctx, record, snap.Generation(), e.cfg, func() (Decision, []string) {
		candidates := e.matcher.Match(key, snap, e.cfg)
		decision, path := e.rules.Decide(DecisionRequest{Candidates: candidates, Category: record.Category}, e.cfg)
		// A fallback id must reference a currently-loaded entity, or the
		// assigned-id invariant breaks.
		if decision.Kind == DecisionAcceptFallback {
			if _, ok := snap.FindID(decision.FallbackID); !ok {
				e.logger.Warn("configured fallback id missing from glossary",
					"fallback_id", decision.FallbackID, "category", record.Category)
				decision = Decision{Kind: DecisionReject, Reason: "fallback id not in glossary"}
			}
		}
		return decision, path
	})
	if !fromCache {
		e.finish(ctx, res, start)
	}
	return res, fromCache
}

// finish emits the per-record observability event and metrics sample.
func (e *Engine) finish(ctx context.Context, res MappingResult, start time.Time) {
	success := res.Status == StatusMatched || res.Status == StatusMatchedByFallback
	e.observe(ctx, "map_record", success, start)
	if e.events != nil {
		e.events.Emit(ctx, Event{
			SourceID:     res.SourceID,
			Status:       res.Status,
			Confidence:   res.Confidence,
			DecisionPath: res.DecisionPath,
			Latency:      time.Since(start),
		})
	}
}

// emit stores fresh results in the sink (cache hits were already written by
// the submission that produced them) and aggregates the batch summary.
func (e *Engine) emit(ctx context.Context, results []MappingResult, cached []bool) BatchSummary {
	summary := BatchSummary{
		Total:    len(results),
		ByStatus: make(map[Status]int, 4),
	}
	fresh := make([]MappingResult, 0, len(results))
	for i, res := range results {
		summary.ByStatus[res.Status]++
		if cached[i] {
			summary.CacheHits++
			continue
		}
		fresh = append(fresh, res)
	}
	if e.sink == nil || len(fresh) == 0 {
		return summary
	}

	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.IOTimeout)
	defer cancel()
	if err := e.sink.Store(storeCtx, fresh); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Per-record contract on sink timeout: the batch call still
			// completes, the affected records report the timeout.
			for i := range results {
				if cached[i] {
					continue
				}
				results[i] = MappingResult{
					SourceID:   results[i].SourceID,
					Status:     StatusUnmatched,
					Reason:     "timeout",
					Generation: results[i].Generation,
				}
			}
			summary.ByStatus = recount(results)
		}
		summary.StoreError = err.Error()
		e.logger.Warn("result sink store failed", "error", err, "results", len(fresh))
	}
	return summary
}

func recount(results []MappingResult) map[Status]int {
	counts := make(map[Status]int, 4)
	for _, res := range results {
		counts[res.Status]++
	}
	return counts
}

func (e *Engine) observe(ctx context.Context, operation string, success bool, start time.Time) {
	if e.metrics != nil {
		e.metrics.Observe(ctx, operation, success, time.Since(start))
	}
}
