package repository

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"taste-match/internal/database"
)

// step scripts the answer to one statement. match must appear in the
// statement text, compared lower-case with whitespace collapsed.
type step struct {
	match    string
	row      []any
	rows     [][]any
	affected int64
	err      error
}

type call struct {
	query string
	args  []any
	inTx  bool
}

type fakeRow struct {
	vals []any
	err  error
}

// Scan copies vals into dest by reflection. A nil value leaves the zero
// value, which is how a NULL lands in a pointer destination.
func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan dest mismatch: %d dest, %d values", len(dest), len(r.vals))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if r.vals[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(r.vals[i])
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan type mismatch at %d: %s into %s", i, v.Type(), target.Type())
		}
		target.Set(v)
	}
	return nil
}

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.rows)
}
func (r *fakeRows) Scan(dest ...any) error { return fakeRow{vals: r.rows[r.i-1]}.Scan(dest...) }

type fakeDB struct {
	t *testing.T

	mu    sync.Mutex
	steps []step
	calls []call

	begun      int
	committed  int
	rolledBack int
}

func newFakeDB(t *testing.T, steps ...step) *fakeDB {
	return &fakeDB{t: t, steps: steps}
}

func normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func (db *fakeDB) next(query string, args []any, inTx bool) step {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls = append(db.calls, call{query: normalize(query), args: args, inTx: inTx})
	if len(db.steps) == 0 {
		db.t.Errorf("unexpected statement: %s", normalize(query))
		return step{err: fmt.Errorf("unexpected statement")}
	}
	s := db.steps[0]
	db.steps = db.steps[1:]
	if !strings.Contains(normalize(query), s.match) {
		db.t.Errorf("statement %q does not contain %q", normalize(query), s.match)
	}
	return s
}

func (db *fakeDB) exec(query string, args []any, inTx bool) (int64, error) {
	s := db.next(query, args, inTx)
	return s.affected, s.err
}

func (db *fakeDB) query(query string, args []any, inTx bool) (database.Rows, error) {
	s := db.next(query, args, inTx)
	if s.err != nil {
		return nil, s.err
	}
	return &fakeRows{rows: s.rows}, nil
}

func (db *fakeDB) queryRow(query string, args []any, inTx bool) database.Row {
	s := db.next(query, args, inTx)
	return fakeRow{vals: s.row, err: s.err}
}

func (db *fakeDB) Exec(_ context.Context, query string, args ...any) (int64, error) {
	return db.exec(query, args, false)
}

func (db *fakeDB) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	return db.query(query, args, false)
}

func (db *fakeDB) QueryRow(_ context.Context, query string, args ...any) database.Row {
	return db.queryRow(query, args, false)
}

func (db *fakeDB) Ping(context.Context) error { return nil }
func (db *fakeDB) Close() error               { return nil }
func (db *fakeDB) SQLDB() *sql.DB             { return nil }

func (db *fakeDB) Begin(context.Context) (database.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.begun++
	return &fakeTx{db: db}, nil
}

// done reports whether every scripted step was consumed.
func (db *fakeDB) done() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.steps) == 0
}

type fakeTx struct {
	db       *fakeDB
	finished bool
}

func (tx *fakeTx) Exec(_ context.Context, query string, args ...any) (int64, error) {
	return tx.db.exec(query, args, true)
}

func (tx *fakeTx) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	return tx.db.query(query, args, true)
}

func (tx *fakeTx) QueryRow(_ context.Context, query string, args ...any) database.Row {
	return tx.db.queryRow(query, args, true)
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.finished = true
	tx.db.committed++
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	if tx.finished {
		return nil
	}
	tx.finished = true
	tx.db.rolledBack++
	return nil
}
