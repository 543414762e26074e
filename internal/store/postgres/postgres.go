// Package postgres implements core.Store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

//go:embed schema.sql
var schema string

// DefaultBatchSize is the number of rows sent per INSERT statement.
const DefaultBatchSize = 500

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Config holds connection pool settings.
type Config struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// conn runs the import statements against the pool or a transaction.
type conn struct {
	db        DBTX
	pool      *pgxpool.Pool // nil inside a transaction
	batchSize int
}

// Store is a PostgreSQL-backed core.Store.
type Store struct {
	conn
}

var _ core.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithBatchSize sets how many rows go into one INSERT statement.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Open connects a pool using cfg and verifies it with a ping.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(pool, opts...), nil
}

// New wraps an existing pool. Close closes the pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{conn: conn{db: pool, pool: pool, batchSize: DefaultBatchSize}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates every table and index that does not exist yet. Exec with
// no arguments uses the simple protocol, which accepts several statements.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction.
func (s *Store) InTx(ctx context.Context, fn func(core.ImportStore) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&conn{db: tx, batchSize: s.batchSize})
	})
}

// Reset truncates tables and restarts their identity sequences.
func (s *Store) Reset(ctx context.Context, scope core.ResetScope) error {
	var stmt string
	switch scope {
	case core.ResetCatches:
		stmt = "TRUNCATE catches RESTART IDENTITY"
	case core.ResetAll:
		stmt = "TRUNCATE catches, beach_warnings, sharks, beaches, import_history RESTART IDENTITY"
	default:
		return fmt.Errorf("unknown reset scope %q", scope)
	}

	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("reset %s: %w", scope, err)
	}
	return nil
}

// batch runs fn in a transaction unless c is already inside one, so a
// chunked insert is applied as a whole.
func (c *conn) batch(ctx context.Context, fn func(db DBTX) error) error {
	if c.pool == nil {
		return fn(c.db)
	}
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error { return fn(tx) })
}

// chunks calls fn with consecutive [start, end) ranges of at most size.
func chunks(n, size int, fn func(start, end int) error) error {
	for start := 0; start < n; start += size {
		if err := fn(start, min(start+size, n)); err != nil {
			return err
		}
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
