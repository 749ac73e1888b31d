package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"refmap/pkg/domain"
)

// stubConn records statements so tests can assert on the SQL the sink emits.
type stubConn struct {
	mu        sync.Mutex
	execs     []string
	failAfter int // fail the nth exec (1-based), 0 disables
	commits   int
	rollbacks int
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return &stubTx{conn: c}, nil }
func (c *stubConn) Ping(context.Context) error          { return nil }

func (c *stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return &stubTx{conn: c}, nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, query)
	if c.failAfter > 0 && len(c.execs) >= c.failAfter {
		return nil, fmt.Errorf("exec fail")
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) inserts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, q := range c.execs {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(q)), "INSERT") {
			n++
		}
	}
	return n
}

type stubTx struct{ conn *stubConn }

func (t *stubTx) Commit() error {
	t.conn.mu.Lock()
	t.conn.commits++
	t.conn.mu.Unlock()
	return nil
}

func (t *stubTx) Rollback() error {
	t.conn.mu.Lock()
	t.conn.rollbacks++
	t.conn.mu.Unlock()
	return nil
}

func newStubSink(t *testing.T) (*Sink, *stubConn) {
	t.Helper()
	conn := &stubConn{}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.Open(name, "stub")
	})
	t.Cleanup(restore)

	sink, err := NewSink(context.Background(), "")
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })
	return sink, conn
}

func TestNewSinkEnsuresResultsTable(t *testing.T) {
	_, conn := newStubSink(t)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.execs) == 0 || !strings.Contains(strings.ToUpper(conn.execs[0]), "CREATE TABLE") {
		t.Fatalf("expected table DDL on open, got %v", conn.execs)
	}
}

func TestStoreInsertsOneRowPerResult(t *testing.T) {
	sink, conn := newStubSink(t)
	id := "R1"
	err := sink.Store(context.Background(), []MappingResult{
		{SourceID: "a", AssignedID: &id, Confidence: 0.91, Status: domain.StatusMatched, Generation: 2},
		{SourceID: "b", Status: domain.StatusUnmatched, Reason: "no candidate above threshold", Generation: 2},
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if got := conn.inserts(); got != 2 {
		t.Fatalf("inserts = %d, want 2", got)
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.commits != 1 {
		t.Fatalf("commits = %d, want 1", conn.commits)
	}
}

func TestStoreRollsBackOnInsertFailure(t *testing.T) {
	sink, conn := newStubSink(t)
	conn.mu.Lock()
	conn.failAfter = len(conn.execs) + 2 // let the first insert pass, fail the second
	conn.mu.Unlock()

	err := sink.Store(context.Background(), []MappingResult{
		{SourceID: "a", Status: domain.StatusMatched},
		{SourceID: "b", Status: domain.StatusMatched},
	})
	if err == nil {
		t.Fatalf("expected insert failure")
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.commits != 0 {
		t.Fatalf("failed batch must not commit")
	}
	if conn.rollbacks == 0 {
		t.Fatalf("failed batch must roll back")
	}
}

func TestStoreEmptyBatchIsNoOp(t *testing.T) {
	sink, conn := newStubSink(t)
	before := conn.inserts()
	if err := sink.Store(context.Background(), nil); err != nil {
		t.Fatalf("store: %v", err)
	}
	if conn.inserts() != before {
		t.Fatalf("empty batch must not touch the database")
	}
}
