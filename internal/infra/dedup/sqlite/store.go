// Package sqlite provides a SQLite-backed idempotency store so deduplication
// survives process restarts within the retention window.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"refmap/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DedupStore = (*Store)(nil)

// MappingResult aliases domain.MappingResult persisted per idempotency key.
type MappingResult = domain.MappingResult

// Store persists idempotency entries to a single SQLite table, one JSON
// payload per key with its expiry timestamp. Writes go through transactions,
// so concurrent submissions of the same key resolve to exactly one stored
// entry.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (creating if needed) the dedup database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "refmap-dedup.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS dedup_entries (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create dedup table: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the live entry recorded under key, if any.
func (s *Store) Get(ctx context.Context, key string) (MappingResult, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM dedup_entries WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return MappingResult{}, false, nil
	}
	if err != nil {
		return MappingResult{}, false, fmt.Errorf("select dedup entry: %w", err)
	}
	var result MappingResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return MappingResult{}, false, fmt.Errorf("decode dedup entry: %w", err)
	}
	return result, true, nil
}

// PutIfAbsent records result under key unless a live entry already exists,
// returning the authoritative entry along with whether the write happened.
func (s *Store) PutIfAbsent(ctx context.Context, key string, result MappingResult, expiresAt time.Time) (MappingResult, bool, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return MappingResult{}, false, fmt.Errorf("encode dedup entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MappingResult{}, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing []byte
	err = tx.QueryRowContext(ctx,
		`SELECT payload FROM dedup_entries WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&existing)
	switch {
	case err == nil:
		var prior MappingResult
		if err := json.Unmarshal(existing, &prior); err != nil {
			return MappingResult{}, false, fmt.Errorf("decode dedup entry: %w", err)
		}
		return prior, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return MappingResult{}, false, fmt.Errorf("select dedup entry: %w", err)
	}

	// Replace rather than insert: an expired row under the same key may
	// still be physically present.
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO dedup_entries (key, payload, expires_at) VALUES (?, ?, ?)`,
		key, payload, expiresAt.UnixNano(),
	); err != nil {
		return MappingResult{}, false, fmt.Errorf("insert dedup entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return MappingResult{}, false, fmt.Errorf("commit: %w", err)
	}
	return result, true, nil
}

// Prune deletes expired entries and returns how many rows were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM dedup_entries WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune dedup entries: %w", err)
	}
	dropped, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return dropped, nil
}
