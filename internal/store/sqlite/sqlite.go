// Package sqlite implements core.Store on an embedded SQLite database using
// the pure-Go modernc.org/sqlite driver. It backs single-node deployments,
// the CLI against a local file, and the pipeline and HTTP tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

//go:embed schema.sql
var schema string

// DefaultBatchSize is the number of rows written per INSERT statement.
const DefaultBatchSize = 500

// MaxBatchSize keeps the widest INSERT (catches, five columns) under
// SQLite's limit of 32766 bound parameters.
const MaxBatchSize = 32766 / 5

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs the import statements against either the database or a
// transaction.
type conn struct {
	q         queryer
	db        *sql.DB // nil inside a transaction
	batchSize int
}

// Store is a SQLite-backed core.Store.
type Store struct {
	conn
}

var _ core.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithBatchSize sets how many rows go into one INSERT statement. Values
// above MaxBatchSize are capped.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = min(n, MaxBatchSize)
		}
	}
}

// Open opens (creating if needed) the database at path. Use MemoryDSN for a
// throwaway database. The schema is not created; call Migrate.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and an in-memory
	// database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{conn: conn{q: db, db: db, batchSize: DefaultBatchSize}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DSN notes:
//   - _pragma=foreign_keys(1) enforces the catch foreign keys
//   - _pragma=busy_timeout sets a lock wait
//   - _pragma=journal_mode(WAL) enables the write-ahead log for file databases
func buildDSN(path string) (string, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" || path == MemoryDSN || path == "file::memory:" {
		return "file::memory:?_pragma=foreign_keys(1)", nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create db path: %w", err)
	}
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		filepath.Clean(path),
	), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates every table and index that does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction.
func (s *Store) InTx(ctx context.Context, fn func(core.ImportStore) error) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&conn{q: tx, batchSize: s.batchSize})
	})
}

// Reset empties tables. SQLite has no TRUNCATE, so rows are deleted and the
// AUTOINCREMENT counters cleared.
func (s *Store) Reset(ctx context.Context, scope core.ResetScope) error {
	var tables []string
	switch scope {
	case core.ResetCatches:
		tables = []string{"catches"}
	case core.ResetAll:
		tables = []string{"catches", "beach_warnings", "sharks", "beaches", "import_history"}
	default:
		return fmt.Errorf("unknown reset scope %q", scope)
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("delete %s: %w", t, err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", t); err != nil && !isNoSuchTable(err) {
				return fmt.Errorf("reset sequence %s: %w", t, err)
			}
		}
		return nil
	})
}

// batch runs fn in a transaction unless c is already inside one, so a
// multi-statement insert is applied as a whole.
func (c *conn) batch(ctx context.Context, fn func(q queryer) error) error {
	if c.db == nil {
		return fn(c.q)
	}
	return withTx(ctx, c.db, func(tx *sql.Tx) error { return fn(tx) })
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// sqlite_sequence only exists once an AUTOINCREMENT table has had a row.
func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// placeholders returns "(?,?,?),(?,?,?)" for rows tuples of width cols.
func placeholders(rows, cols int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", cols), ",") + ")"
	return strings.TrimSuffix(strings.Repeat(tuple+",", rows), ",")
}

// timeLayout is fixed width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
