// Package postgres provides a Postgres-backed result sink that appends every
// mapping outcome to a results table for downstream consumers.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"refmap/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.ResultSink = (*Sink)(nil)

// MappingResult aliases domain.MappingResult persisted per row.
type MappingResult = domain.MappingResult

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/refmap?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the database opener for tests and returns a restore
// function.
func OverrideSQLOpen(open func(driver, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = open
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Sink appends mapping results to the mapping_results table. Rows are
// append-only: remapping a source id under a new glossary generation adds a
// new row rather than rewriting history.
type Sink struct {
	db  *sql.DB
	now func() time.Time
}

// NewSink opens the results database using the provided DSN (falls back to
// defaultDSN) and ensures the results table exists.
func NewSink(ctx context.Context, dsn string) (*Sink, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS mapping_results (
		id BIGSERIAL PRIMARY KEY,
		source_id TEXT NOT NULL,
		assigned_id TEXT,
		confidence DOUBLE PRECISION NOT NULL,
		decision_path JSONB NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL,
		generation BIGINT NOT NULL,
		degraded BOOLEAN NOT NULL,
		mapped_at TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create results table: %w", err)
	}
	return &Sink{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}

// Store inserts the batch inside a single transaction; either every result
// lands or none does.
func (s *Sink) Store(ctx context.Context, results []MappingResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	mappedAt := s.now().UTC()
	for _, res := range results {
		path, err := json.Marshal(res.DecisionPath)
		if err != nil {
			return fmt.Errorf("encode decision path: %w", err)
		}
		var assigned sql.NullString
		if res.AssignedID != nil {
			assigned = sql.NullString{String: *res.AssignedID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO mapping_results
			(source_id, assigned_id, confidence, decision_path, status, reason, generation, degraded, mapped_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			res.SourceID, assigned, res.Confidence, path,
			string(res.Status), res.Reason, int64(res.Generation), res.Degraded, mappedAt,
		); err != nil {
			return fmt.Errorf("insert result for %s: %w", res.SourceID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
